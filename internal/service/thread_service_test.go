package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
)

func newTestThreadService() (*ThreadService, *fakeThreadRepo, *fakeObjectStore) {
	repo := newFakeThreadRepo()
	blobs := &fakeObjectStore{done: make(chan struct{})}
	return NewThreadService(zap.NewNop(), repo, blobs), repo, blobs
}

func TestThreadServiceCreateDerivesTitle(t *testing.T) {
	svc, _, _ := newTestThreadService()
	ctx := context.Background()

	thread, err := svc.Create(ctx, alice, "t1", userMessage("Hello"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if thread.Title != "Hello" || thread.MessageCount != 1 || thread.UserID != "alice" {
		t.Fatalf("unexpected thread: %+v", thread)
	}

	long := strings.Repeat("x", 120)
	thread, err = svc.Create(ctx, alice, "t2", userMessage(long))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if thread.Title != strings.Repeat("x", 50)+"..." {
		t.Fatalf("expected truncated title, got %q", thread.Title)
	}

	if _, err := svc.Create(ctx, alice, "bad/id", userMessage("x")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for bad id, got %v", err)
	}
}

func TestThreadServiceOwnership(t *testing.T) {
	svc, _, _ := newTestThreadService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("Hello")); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("owner reads", func(t *testing.T) {
		if _, err := svc.Get(ctx, alice, "t1"); err != nil {
			t.Fatalf("get: %v", err)
		}
	})

	t.Run("other user is unauthorized", func(t *testing.T) {
		_, err := svc.Get(ctx, bob, "t1")
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected unauthorized, got %v", err)
		}
		if _, err := svc.Rename(ctx, bob, "t1", "mine"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected unauthorized rename, got %v", err)
		}
		if err := svc.Delete(ctx, bob, "t1"); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected unauthorized delete, got %v", err)
		}
	})

	t.Run("missing thread", func(t *testing.T) {
		if _, err := svc.Get(ctx, alice, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestThreadServiceAppendThenFetch(t *testing.T) {
	svc, _, _ := newTestThreadService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("first")); err != nil {
		t.Fatalf("create: %v", err)
	}

	reply := domain.ThreadMessage{Message: domain.Message{Role: domain.RoleAssistant, Content: "second"}}
	stored, err := svc.Append(ctx, "t1", reply)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.ID == "" || stored.UpdatedAt.IsZero() {
		t.Fatalf("expected id and timestamp on stored message: %+v", stored)
	}

	thread, err := svc.Get(ctx, alice, "t1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	last, _ := thread.Last()
	if last.ID != stored.ID || last.Content != "second" {
		t.Fatalf("expected tail to equal appended message, got %+v", last)
	}
	if thread.MessageCount != len(thread.Messages) || thread.LastMessagePreview != "second" {
		t.Fatalf("derived fields out of sync: %+v", thread)
	}
}

func TestThreadServiceRenameAndPin(t *testing.T) {
	svc, _, _ := newTestThreadService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("Hello")); err != nil {
		t.Fatalf("create: %v", err)
	}

	thread, err := svc.Rename(ctx, alice, "t1", "  Trip plans  ")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if thread.Title != "Trip plans" {
		t.Fatalf("expected trimmed title, got %q", thread.Title)
	}
	if _, err := svc.Rename(ctx, alice, "t1", "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}

	thread, err = svc.SetPinned(ctx, alice, "t1", true)
	if err != nil {
		t.Fatalf("pin: %v", err)
	}
	if !thread.IsPinned {
		t.Fatalf("expected pinned thread")
	}
}

func TestThreadServiceShareIsSetOnce(t *testing.T) {
	svc, _, _ := newTestThreadService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("Hello")); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.Share(ctx, alice, "t1")
	if err != nil || first == "" {
		t.Fatalf("share: %q %v", first, err)
	}
	second, err := svc.Share(ctx, alice, "t1")
	if err != nil || second != first {
		t.Fatalf("expected same share id, got %q vs %q (%v)", second, first, err)
	}

	shared, err := svc.GetShared(ctx, first)
	if err != nil {
		t.Fatalf("get shared: %v", err)
	}
	if shared.ID != "t1" || shared.UserID != "" {
		t.Fatalf("unexpected shared snapshot: %+v", shared)
	}
	if _, err := svc.GetShared(ctx, "unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for unknown share id, got %v", err)
	}
}

func TestThreadServiceDeleteCleansUpAttachments(t *testing.T) {
	svc, repo, blobs := newTestThreadService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("Hello")); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(ctx, alice, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "t1"); !errors.Is(err, domain.ErrThreadNotFound) {
		t.Fatalf("expected thread gone, got %v", err)
	}

	select {
	case <-blobs.done:
	case <-time.After(time.Second):
		t.Fatalf("expected background cleanup")
	}
	if len(blobs.prefixes) != 1 || blobs.prefixes[0] != "users/alice/threads/t1/" {
		t.Fatalf("unexpected cleanup prefixes: %+v", blobs.prefixes)
	}
}

func TestThreadServiceGrouped(t *testing.T) {
	svc, _, _ := newTestThreadService()
	now := time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()
	if _, err := svc.Create(ctx, alice, "t1", userMessage("today")); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.now = func() time.Time { return now.AddDate(0, 0, -1) }
	if _, err := svc.Create(ctx, alice, "t2", userMessage("yesterday")); err != nil {
		t.Fatalf("create: %v", err)
	}
	svc.now = func() time.Time { return now }

	groups, err := svc.Grouped(ctx, alice)
	if err != nil {
		t.Fatalf("grouped: %v", err)
	}
	if len(groups.Today) != 1 || len(groups.Yesterday) != 1 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}
