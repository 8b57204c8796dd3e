package llm

import (
	"context"
	"encoding/json"

	"saarthi-chat/internal/domain"
)

// Provider transmite una respuesta del modelo, resolviendo las rondas de
// herramientas hasta Request.MaxSteps.
type Provider interface {
	Stream(ctx context.Context, req Request, emit func(Event) error) (Result, error)
}

// ObjectGenerator produce una respuesta estructurada que respeta un schema.
type ObjectGenerator interface {
	GenerateObject(ctx context.Context, req ObjectRequest, out any) error
}

// Message es un turno de la conversación tal como se envía al modelo.
type Message struct {
	Role        domain.Role
	Content     string
	Attachments []domain.Attachment
}

// Tool es una capacidad externa que el modelo puede invocar.
type Tool interface {
	Name() string
	Description() string
	Parameters() Schema
	Call(ctx context.Context, args json.RawMessage) (any, error)
}

type Request struct {
	Model    Model
	System   string
	Messages []Message
	Tools    []Tool
	MaxSteps int
}

type EventType string

const (
	EventText      EventType = "text"
	EventReasoning EventType = "reasoning"
	EventTool      EventType = "tool"
)

type Event struct {
	Type EventType
	Text string
	Tool *domain.ToolInvocation
}

type Result struct {
	Text         string
	Parts        domain.Parts
	Steps        int
	FinishReason string
	TokenCount   int
}

type ObjectRequest struct {
	Model       string
	Prompt      string
	SchemaName  string
	Schema      Schema
	Temperature float32
}

// DefaultMaxSteps limita las rondas modelo/herramienta de un turno.
const DefaultMaxSteps = 5
