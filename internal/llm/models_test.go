package llm

import (
	"errors"
	"testing"

	"saarthi-chat/internal/domain"
)

func TestResolveModel(t *testing.T) {
	t.Run("empty id uses default", func(t *testing.T) {
		m, err := ResolveModel("")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.ID != "gemini-2.0-flash-exp" || !m.IsDefault {
			t.Fatalf("unexpected default model %+v", m)
		}
	})

	t.Run("known id", func(t *testing.T) {
		m, err := ResolveModel("gpt-4.1-mini")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if m.Provider != ProviderOpenAI || m.MaxTokens != 128000 {
			t.Fatalf("unexpected model %+v", m)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := ResolveModel("gpt-99")
		if !errors.Is(err, ErrInvalidModel) || !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected invalid model validation error, got %v", err)
		}
	})
}

func TestModelsCatalog(t *testing.T) {
	models := Models()
	if len(models) != 8 {
		t.Fatalf("expected 8 models, got %d", len(models))
	}
	defaults := 0
	for _, m := range models {
		if m.IsDefault {
			defaults++
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}

	models[0].ID = "mutated"
	if _, ok := LookupModel("mutated"); ok {
		t.Fatalf("Models must return a copy")
	}
}
