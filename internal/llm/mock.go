package llm

import (
	"context"
	"encoding/json"
	"sync"

	"saarthi-chat/internal/domain"
)

// MockProvider permite tests sin llamar a un LLM real. Emite Chunks como
// deltas de texto, o devuelve Err antes de emitir nada.
type MockProvider struct {
	Chunks []string
	Err    error
	// Block, si no es nil, se espera antes de terminar (o hasta que ctx se cancele).
	Block chan struct{}

	mu       sync.Mutex
	Requests []Request
}

func (m *MockProvider) Stream(ctx context.Context, req Request, emit func(Event) error) (Result, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.Err != nil {
		return Result{}, m.Err
	}
	var text string
	for _, c := range m.Chunks {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		text += c
		if emit != nil {
			if err := emit(Event{Type: EventText, Text: c}); err != nil {
				return Result{}, err
			}
		}
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{
		Text:         text,
		Parts:        domain.Parts{domain.TextPart{Text: text}},
		Steps:        1,
		FinishReason: "stop",
	}, nil
}

// LastRequest devuelve la última Request recibida.
func (m *MockProvider) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return Request{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// MockObjectGenerator devuelve Payload decodificado en out, o Err.
type MockObjectGenerator struct {
	Payload string
	Err     error

	mu       sync.Mutex
	Requests []ObjectRequest
}

func (m *MockObjectGenerator) GenerateObject(ctx context.Context, req ObjectRequest, out any) error {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	return json.Unmarshal([]byte(m.Payload), out)
}
