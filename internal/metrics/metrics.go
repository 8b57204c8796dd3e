package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resultados usados como label "outcome".
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
	OutcomeRejected = "rejected"
	OutcomeEmpty    = "empty"
)

// Chat agrupa los colectores del ciclo de vida de un turno. Un *Chat nil es
// válido y no registra nada, así los tests no necesitan un registry.
type Chat struct {
	turns        *prometheus.CounterVec
	turnDuration prometheus.Histogram
	suggestions  *prometheus.CounterVec
	uploads      *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
}

// NewChat registra los colectores en reg. Con reg nil usa el registry por defecto.
func NewChat(reg prometheus.Registerer) *Chat {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Chat{
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Turns processed, by outcome.",
		}, []string{"outcome"}),
		turnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Wall time from admission to settled turn.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		suggestions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_suggestions_total",
			Help: "Suggestion generations, by outcome.",
		}, []string{"outcome"}),
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_uploads_total",
			Help: "Attachment files processed, by outcome.",
		}, []string{"outcome"}),
		toolCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_tool_calls_total",
			Help: "Tool invocations requested by the model.",
		}, []string{"tool"}),
	}
}

func (m *Chat) TurnFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.turnDuration.Observe(elapsed.Seconds())
	}
}

func (m *Chat) Suggestion(outcome string) {
	if m == nil {
		return
	}
	m.suggestions.WithLabelValues(outcome).Inc()
}

func (m *Chat) Upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}

func (m *Chat) ToolCall(tool string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool).Inc()
}
