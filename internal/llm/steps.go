package llm

import (
	"context"
	"encoding/json"
	"strings"

	"saarthi-chat/internal/domain"
)

type toolCall struct {
	ID   string
	Name string
	Args json.RawMessage
}

type toolResult struct {
	Call    toolCall
	Payload json.RawMessage
}

type stepOutcome struct {
	calls        []toolCall
	finishReason string
	tokens       int
}

// conversation guarda el historial en el formato nativo de cada proveedor.
type conversation interface {
	step(ctx context.Context, sink *stepSink) (stepOutcome, error)
	addToolResults(results []toolResult)
}

// stepSink reenvía los deltas al caller y los acumula en partes.
type stepSink struct {
	emit  func(Event) error
	parts domain.Parts
	text  strings.Builder
	open  strings.Builder
	kind  domain.PartKind
}

func (s *stepSink) Text(delta string) error {
	if delta == "" {
		return nil
	}
	s.appendDelta(domain.PartText, delta)
	s.text.WriteString(delta)
	return s.emit(Event{Type: EventText, Text: delta})
}

func (s *stepSink) Reasoning(delta string) error {
	if delta == "" {
		return nil
	}
	s.appendDelta(domain.PartReasoning, delta)
	return s.emit(Event{Type: EventReasoning, Text: delta})
}

func (s *stepSink) Tool(inv domain.ToolInvocation) error {
	s.flush()
	if inv.State == domain.ToolStateResult {
		s.parts = append(s.parts, domain.ToolInvocationPart{Invocation: inv})
	}
	return s.emit(Event{Type: EventTool, Tool: &inv})
}

func (s *stepSink) appendDelta(kind domain.PartKind, delta string) {
	if s.kind != kind {
		s.flush()
		s.kind = kind
	}
	s.open.WriteString(delta)
}

func (s *stepSink) flush() {
	if s.open.Len() == 0 {
		s.kind = ""
		return
	}
	switch s.kind {
	case domain.PartText:
		s.parts = append(s.parts, domain.TextPart{Text: s.open.String()})
	case domain.PartReasoning:
		s.parts = append(s.parts, domain.ReasoningPart{Reasoning: s.open.String()})
	}
	s.open.Reset()
	s.kind = ""
}

// runSteps ejecuta la conversación hasta que el modelo responde sin pedir
// herramientas o se agotan maxSteps.
func runSteps(ctx context.Context, conv conversation, tools []Tool, maxSteps int, emit func(Event) error) (Result, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if emit == nil {
		emit = func(Event) error { return nil }
	}
	sink := &stepSink{emit: emit}
	var res Result

	for step := 1; step <= maxSteps; step++ {
		out, err := conv.step(ctx, sink)
		if err != nil {
			return Result{}, err
		}
		res.Steps = step
		res.FinishReason = out.finishReason
		res.TokenCount += out.tokens
		if len(out.calls) == 0 {
			break
		}

		results := make([]toolResult, 0, len(out.calls))
		for _, call := range out.calls {
			inv := domain.ToolInvocation{CallID: call.ID, Name: call.Name, State: domain.ToolStateCall, Args: call.Args}
			if err := sink.Tool(inv); err != nil {
				return Result{}, err
			}
			payload := callTool(ctx, tools, call)
			inv.State = domain.ToolStateResult
			inv.Result = payload
			if err := sink.Tool(inv); err != nil {
				return Result{}, err
			}
			results = append(results, toolResult{Call: call, Payload: payload})
		}
		conv.addToolResults(results)
	}

	sink.flush()
	res.Text = sink.text.String()
	res.Parts = sink.parts
	return res, nil
}

// callTool nunca falla: los errores de la herramienta vuelven al modelo como payload.
func callTool(ctx context.Context, tools []Tool, call toolCall) json.RawMessage {
	for _, t := range tools {
		if t.Name() != call.Name {
			continue
		}
		out, err := t.Call(ctx, call.Args)
		if err != nil {
			return errorPayload(err.Error())
		}
		data, err := json.Marshal(out)
		if err != nil {
			return errorPayload("tool returned an unencodable result")
		}
		return data
	}
	return errorPayload("unknown tool " + call.Name)
}

func errorPayload(msg string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return data
}
