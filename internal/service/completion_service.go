package service

import (
	"context"

	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/metrics"
)

// CompletionRequest es la entrada del endpoint de completion.
type CompletionRequest struct {
	ModelID       string
	Messages      []domain.Message
	SearchEnabled bool
	User          UserHints
	Geo           GeoHints
}

// CompletionService arma la request al proveedor (ventana de historial,
// system prompt, herramientas) y transmite la respuesta.
type CompletionService struct {
	logger   *zap.Logger
	provider llm.Provider
	search   llm.Tool
	prompts  PromptBuilder
	metrics  *metrics.Chat
}

// NewCompletionService recibe la herramienta de búsqueda opcional; solo se
// declara al modelo cuando la request la habilita.
func NewCompletionService(logger *zap.Logger, provider llm.Provider, search llm.Tool, m *metrics.Chat) *CompletionService {
	return &CompletionService{logger: logger, provider: provider, search: search, metrics: m}
}

// Prepare valida el modelo y construye la request. Falla con llm.ErrInvalidModel
// o ErrNoMessages sin tocar la red.
func (s *CompletionService) Prepare(in CompletionRequest) (llm.Request, error) {
	model, err := llm.ResolveModel(in.ModelID)
	if err != nil {
		return llm.Request{}, err
	}
	history := RecentHistory(in.Messages, HistoryWindow)
	if len(history) == 0 {
		return llm.Request{}, ErrNoMessages
	}
	req := llm.Request{
		Model: model,
		System: s.prompts.Build(PromptInput{
			SearchEnabled: in.SearchEnabled,
			User:          in.User,
			Geo:           in.Geo,
		}),
		Messages: history,
		MaxSteps: llm.DefaultMaxSteps,
	}
	if in.SearchEnabled && s.search != nil {
		req.Tools = []llm.Tool{s.search}
	}
	return req, nil
}

func (s *CompletionService) Stream(ctx context.Context, req llm.Request, emit func(llm.Event) error) (llm.Result, error) {
	return s.provider.Stream(ctx, req, func(ev llm.Event) error {
		if ev.Type == llm.EventTool && ev.Tool != nil && ev.Tool.State == domain.ToolStateCall {
			s.metrics.ToolCall(ev.Tool.Name)
		}
		if emit == nil {
			return nil
		}
		return emit(ev)
	})
}
