package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/metrics"
)

const (
	MinSuggestions     = 3
	MaxSuggestions     = 6
	suggestionWindow   = 5
	suggestionTemp     = 0.7
	suggestionSchemaID = "suggestions"
)

var (
	ErrNoMessages           = fmt.Errorf("%w: At least one message is required", domain.ErrValidation)
	ErrSuggestionCount      = fmt.Errorf("%w: suggestion count must be between %d and %d", domain.ErrValidation, MinSuggestions, MaxSuggestions)
	ErrMalformedSuggestions = errors.New("malformed suggestions")
)

// SuggestionTurn es un turno reducido a rol y texto.
type SuggestionTurn struct {
	Role    domain.Role
	Content string
}

type Suggestions struct {
	Suggestions []string `json:"suggestions"`
	Context     string   `json:"context,omitempty"`
}

var suggestionSchema = llm.Schema{
	Type: llm.TypeObject,
	Properties: map[string]llm.Schema{
		"suggestions": {Type: llm.TypeArray, Items: &llm.Schema{Type: llm.TypeString}},
		"context":     {Type: llm.TypeString, Description: "One short sentence on what the suggestions build on."},
	},
	Required: []string{"suggestions"},
}

// SuggestionService genera sugerencias de seguimiento con salida estructurada.
type SuggestionService struct {
	logger  *zap.Logger
	gen     llm.ObjectGenerator
	model   string
	metrics *metrics.Chat
	count   func() int
}

func NewSuggestionService(logger *zap.Logger, gen llm.ObjectGenerator, model string, m *metrics.Chat) *SuggestionService {
	return &SuggestionService{
		logger:  logger,
		gen:     gen,
		model:   model,
		metrics: m,
		count:   RandomSuggestionCount,
	}
}

// RandomSuggestionCount elige N en [3,6].
func RandomSuggestionCount() int {
	return MinSuggestions + rand.IntN(MaxSuggestions-MinSuggestions+1)
}

// Generate pide exactamente n sugerencias. Con n == 0 se elige al azar.
func (s *SuggestionService) Generate(ctx context.Context, turns []SuggestionTurn, n int) (Suggestions, error) {
	if len(turns) == 0 {
		return Suggestions{}, ErrNoMessages
	}
	if n == 0 {
		n = s.count()
	}
	if n < MinSuggestions || n > MaxSuggestions {
		return Suggestions{}, ErrSuggestionCount
	}
	if s.gen == nil {
		return Suggestions{}, fmt.Errorf("%w: suggestions not configured", domain.ErrProvider)
	}

	var out Suggestions
	err := s.gen.GenerateObject(ctx, llm.ObjectRequest{
		Model:       s.model,
		Prompt:      buildSuggestionPrompt(turns, n),
		SchemaName:  suggestionSchemaID,
		Schema:      suggestionSchema,
		Temperature: suggestionTemp,
	}, &out)
	if err != nil {
		return Suggestions{}, err
	}

	cleaned := make([]string, 0, len(out.Suggestions))
	for _, sug := range out.Suggestions {
		if sug = strings.TrimSpace(sug); sug != "" {
			cleaned = append(cleaned, sug)
		}
	}
	if len(cleaned) != n {
		return Suggestions{}, fmt.Errorf("%w: expected %d, got %d", ErrMalformedSuggestions, n, len(cleaned))
	}
	out.Suggestions = cleaned
	out.Context = strings.TrimSpace(out.Context)
	return out, nil
}

// Suggest es la versión best-effort usada al final de un turno: cualquier
// falla devuelve una lista vacía.
func (s *SuggestionService) Suggest(ctx context.Context, turns []SuggestionTurn) []string {
	res, err := s.Generate(ctx, turns, 0)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("suggestions unavailable", zap.Error(err))
		}
		s.metrics.Suggestion(metrics.OutcomeEmpty)
		return []string{}
	}
	s.metrics.Suggestion(metrics.OutcomeOK)
	return res.Suggestions
}

// TurnsFromMessages reduce mensajes de un thread a turnos de sugerencia.
func TurnsFromMessages(msgs []domain.ThreadMessage) []SuggestionTurn {
	turns := make([]SuggestionTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, SuggestionTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

func buildSuggestionPrompt(turns []SuggestionTurn, n int) string {
	last := turns[len(turns)-1]
	if len(turns) > suggestionWindow {
		turns = turns[len(turns)-suggestionWindow:]
	}
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}

	var sb strings.Builder
	sb.WriteString("You are an AI assistant that generates helpful follow-up suggestions for conversations.\n\n")
	fmt.Fprintf(&sb, "Based on the conversation history, generate %d concise, actionable suggestions that:\n", n)
	sb.WriteString("1. Are heavily influenced by the LAST message (most recent)\n")
	sb.WriteString("2. Consider the broader conversation context\n")
	sb.WriteString("3. Offer logical next steps, clarifications, or related topics\n")
	sb.WriteString("4. Are phrased as questions or action items the user might want to explore\n")
	sb.WriteString("5. Each suggestion should be EXACTLY 3-4 words maximum - be very concise\n")
	sb.WriteString("6. Avoid generic suggestions - be specific to the conversation\n")
	sb.WriteString("7. Use simple, direct language\n")
	sb.WriteString("8. If the last message contains a question asking \"would you like to...\" or similar invitation:\n")
	sb.WriteString("   - If no options are provided, make the first suggestion \"Yes, I would\"\n")
	sb.WriteString("   - If options are provided (e.g. \"would you like to A or B\"), include those options as suggestions\n\n")
	sb.WriteString("Current conversation context:\n")
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "LAST MESSAGE (heavy influence): %s: %s\n\n", last.Role, last.Content)
	sb.WriteString("Generate suggestions that feel natural and relevant to what the user might want to ask or explore next. ")
	sb.WriteString("Keep them extremely short and punchy. Also include answers to questions in the last message.")
	return sb.String()
}
