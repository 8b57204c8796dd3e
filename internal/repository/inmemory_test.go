package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"saarthi-chat/internal/domain"
)

func TestInMemoryThreadRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("append keeps derived fields", func(t *testing.T) {
		repo := NewInMemoryThreadRepository()
		first := domain.ThreadMessage{Message: domain.Message{ID: "m1", Role: domain.RoleUser, Content: "Hello"}}
		if err := repo.Create(ctx, domain.NewThread("t1", "u1", first, base)); err != nil {
			t.Fatalf("create: %v", err)
		}
		reply := domain.ThreadMessage{Message: domain.Message{ID: "m1", Role: domain.RoleAssistant, Content: "Hi!"}}
		stored, err := repo.AppendMessage(ctx, "t1", reply, base.Add(time.Second))
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if stored.ID == "m1" {
			t.Fatalf("expected colliding id to be replaced")
		}

		got, err := repo.GetByID(ctx, "t1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.MessageCount != 2 || got.LastMessagePreview != "Hi!" {
			t.Fatalf("unexpected derived fields: %+v", got)
		}
		if last, _ := got.Last(); last.ID != stored.ID {
			t.Fatalf("expected tail to equal appended message")
		}
	})

	t.Run("list orders by update and caps", func(t *testing.T) {
		repo := NewInMemoryThreadRepository()
		for i := 0; i < ThreadLimit+3; i++ {
			first := domain.ThreadMessage{Message: domain.Message{Role: domain.RoleUser, Content: "q"}}
			th := domain.NewThread(fmt.Sprintf("t%d", i), "u1", first, base.Add(time.Duration(i)*time.Minute))
			_ = repo.Create(ctx, th)
		}
		_ = repo.Create(ctx, domain.NewThread("other", "u2", domain.ThreadMessage{}, base))

		list, err := repo.ListByOwner(ctx, "u1", ThreadLimit)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != ThreadLimit {
			t.Fatalf("expected %d threads, got %d", ThreadLimit, len(list))
		}
		if list[0].ID != fmt.Sprintf("t%d", ThreadLimit+2) {
			t.Fatalf("expected most recent first, got %s", list[0].ID)
		}
	})

	t.Run("share lookup and delete", func(t *testing.T) {
		repo := NewInMemoryThreadRepository()
		_ = repo.Create(ctx, domain.NewThread("t1", "u1", domain.ThreadMessage{}, base))
		if _, err := repo.GetByShareID(ctx, ""); !errors.Is(err, domain.ErrThreadNotFound) {
			t.Fatalf("empty share id must not match, got %v", err)
		}
		if err := repo.SetShareID(ctx, "t1", "s1", base); err != nil {
			t.Fatalf("share: %v", err)
		}
		if got, err := repo.GetByShareID(ctx, "s1"); err != nil || got.ID != "t1" {
			t.Fatalf("expected shared thread, got %+v %v", got, err)
		}
		if err := repo.Delete(ctx, "t1"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := repo.GetByID(ctx, "t1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found after delete, got %v", err)
		}
	})
}
