package llm

import (
	"fmt"

	"saarthi-chat/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// Model describe un modelo de completion disponible.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`
	MaxTokens   int    `json:"maxTokens"`
	IsDefault   bool   `json:"isDefault,omitempty"`
}

var ErrInvalidModel = fmt.Errorf("%w: Invalid model ID", domain.ErrValidation)

var catalog = []Model{
	{ID: "gpt-4.1", Name: "GPT-4.1", Description: "Most capable model, best for complex tasks", Provider: ProviderOpenAI, MaxTokens: 128000},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", Description: "Faster and more cost-effective", Provider: ProviderOpenAI, MaxTokens: 128000},
	{ID: "gpt-4o", Name: "GPT-4o", Description: "OpenAI's most advanced multimodal model", Provider: ProviderOpenAI, MaxTokens: 128000},
	{ID: "o4-mini-2025-04-16", Name: "o4 mini", Description: "Faster, more affordable reasoning model", Provider: ProviderOpenAI, MaxTokens: 128000},
	{ID: "o3-mini-2025-01-31", Name: "o3 mini", Description: "Compact and efficient reasoning model", Provider: ProviderOpenAI, MaxTokens: 128000},
	{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash", Description: "Google's latest fast model for quick responses", Provider: ProviderGoogle, MaxTokens: 1000000, IsDefault: true},
	{ID: "gemini-2.5-flash-preview-05-20", Name: "Gemini 2.5 Flash", Description: "Google's latest high-speed model with improved capabilities", Provider: ProviderGoogle, MaxTokens: 1000000},
	{ID: "gemini-2.5-pro-preview-06-05", Name: "Gemini 2.5 Pro", Description: "Google's most capable model for complex reasoning", Provider: ProviderGoogle, MaxTokens: 2000000},
}

// Models devuelve una copia del catálogo.
func Models() []Model {
	out := make([]Model, len(catalog))
	copy(out, catalog)
	return out
}

// DefaultModel devuelve el modelo marcado por defecto, o el primero del catálogo.
func DefaultModel() Model {
	for _, m := range catalog {
		if m.IsDefault {
			return m
		}
	}
	return catalog[0]
}

// LookupModel busca un modelo por id.
func LookupModel(id string) (Model, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// ResolveModel usa el modelo por defecto cuando id está vacío y falla con
// ErrInvalidModel cuando no existe.
func ResolveModel(id string) (Model, error) {
	if id == "" {
		return DefaultModel(), nil
	}
	m, ok := LookupModel(id)
	if !ok {
		return Model{}, ErrInvalidModel
	}
	return m, nil
}
