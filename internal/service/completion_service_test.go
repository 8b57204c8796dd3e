package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/search"
)

func TestCompletionServicePrepare(t *testing.T) {
	tool := search.NewTool(nil)
	svc := NewCompletionService(zap.NewNop(), &llm.MockProvider{}, tool, nil)

	var msgs []domain.Message
	for i := 1; i <= 12; i++ {
		msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	t.Run("defaults and window", func(t *testing.T) {
		req, err := svc.Prepare(CompletionRequest{Messages: msgs})
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if req.Model.ID != llm.DefaultModel().ID {
			t.Fatalf("expected default model, got %q", req.Model.ID)
		}
		if len(req.Messages) != HistoryWindow || req.Messages[0].Content != "m3" {
			t.Fatalf("expected last 10 messages, got %d starting at %q", len(req.Messages), req.Messages[0].Content)
		}
		if req.MaxSteps != 5 {
			t.Fatalf("expected 5 steps, got %d", req.MaxSteps)
		}
		if len(req.Tools) != 0 || strings.Contains(req.System, "webSearch") {
			t.Fatalf("did not expect search tool without searchEnabled")
		}
	})

	t.Run("search enabled declares the tool", func(t *testing.T) {
		req, err := svc.Prepare(CompletionRequest{ModelID: "gpt-4.1", Messages: msgs, SearchEnabled: true, User: UserHints{Name: "Ravi"}})
		if err != nil {
			t.Fatalf("prepare: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].Name() != search.ToolName {
			t.Fatalf("expected webSearch tool, got %+v", req.Tools)
		}
		if !strings.Contains(req.System, "User's name is Ravi") {
			t.Fatalf("expected profile hint in prompt")
		}
	})

	t.Run("invalid model", func(t *testing.T) {
		_, err := svc.Prepare(CompletionRequest{ModelID: "gpt-99", Messages: msgs})
		if !errors.Is(err, llm.ErrInvalidModel) || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected invalid model validation error, got %v", err)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		if _, err := svc.Prepare(CompletionRequest{}); !errors.Is(err, ErrNoMessages) {
			t.Fatalf("expected ErrNoMessages, got %v", err)
		}
	})
}

func TestCompletionServiceStream(t *testing.T) {
	provider := &llm.MockProvider{Chunks: []string{"Hel", "lo"}}
	svc := NewCompletionService(zap.NewNop(), provider, nil, nil)
	req, err := svc.Prepare(CompletionRequest{Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	var deltas []string
	res, err := svc.Stream(context.Background(), req, func(ev llm.Event) error {
		deltas = append(deltas, ev.Text)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if res.Text != "Hello" || strings.Join(deltas, "") != "Hello" {
		t.Fatalf("unexpected stream result %q / %v", res.Text, deltas)
	}
}
