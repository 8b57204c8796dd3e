package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type PartKind string

const (
	PartText           PartKind = "text"
	PartReasoning      PartKind = "reasoning"
	PartToolInvocation PartKind = "tool-invocation"
)

// Part es un segmento tipado de un mensaje. Las únicas variantes son
// TextPart, ReasoningPart y ToolInvocationPart.
type Part interface {
	Kind() PartKind
	isPart()
}

type TextPart struct {
	Text string
}

type ReasoningPart struct {
	Reasoning string
}

type ToolState string

const (
	ToolStatePartialCall ToolState = "partial-call"
	ToolStateCall        ToolState = "call"
	ToolStateResult      ToolState = "result"
)

type ToolInvocation struct {
	CallID string          `json:"toolCallId" firestore:"toolCallId"`
	Name   string          `json:"toolName" firestore:"toolName"`
	State  ToolState       `json:"state" firestore:"state"`
	Args   json.RawMessage `json:"args,omitempty" firestore:"args,omitempty"`
	Result json.RawMessage `json:"result,omitempty" firestore:"result,omitempty"`
}

type ToolInvocationPart struct {
	Invocation ToolInvocation
}

func (TextPart) Kind() PartKind           { return PartText }
func (ReasoningPart) Kind() PartKind      { return PartReasoning }
func (ToolInvocationPart) Kind() PartKind { return PartToolInvocation }

func (TextPart) isPart()           {}
func (ReasoningPart) isPart()      {}
func (ToolInvocationPart) isPart() {}

// PartRecord es la representación plana de un Part para JSON y Firestore.
type PartRecord struct {
	Type           PartKind        `json:"type" firestore:"type"`
	Text           string          `json:"text,omitempty" firestore:"text,omitempty"`
	Reasoning      string          `json:"reasoning,omitempty" firestore:"reasoning,omitempty"`
	ToolInvocation *ToolInvocation `json:"toolInvocation,omitempty" firestore:"toolInvocation,omitempty"`
}

// EncodePart convierte un Part a su registro plano.
func EncodePart(p Part) PartRecord {
	switch v := p.(type) {
	case TextPart:
		return PartRecord{Type: PartText, Text: v.Text}
	case ReasoningPart:
		return PartRecord{Type: PartReasoning, Reasoning: v.Reasoning}
	case ToolInvocationPart:
		inv := v.Invocation
		return PartRecord{Type: PartToolInvocation, ToolInvocation: &inv}
	default:
		panic(fmt.Sprintf("domain: unhandled part type %T", p))
	}
}

// DecodePart reconstruye el Part correspondiente a un registro.
func DecodePart(r PartRecord) (Part, error) {
	switch r.Type {
	case PartText:
		return TextPart{Text: r.Text}, nil
	case PartReasoning:
		return ReasoningPart{Reasoning: r.Reasoning}, nil
	case PartToolInvocation:
		if r.ToolInvocation == nil {
			return nil, fmt.Errorf("%w: tool-invocation part without payload", ErrValidation)
		}
		return ToolInvocationPart{Invocation: *r.ToolInvocation}, nil
	default:
		return nil, fmt.Errorf("%w: unknown part type %q", ErrValidation, r.Type)
	}
}

type Parts []Part

// Records devuelve las partes en su forma plana.
func (ps Parts) Records() []PartRecord {
	if len(ps) == 0 {
		return nil
	}
	out := make([]PartRecord, 0, len(ps))
	for _, p := range ps {
		out = append(out, EncodePart(p))
	}
	return out
}

// PartsFromRecords es la inversa de Records.
func PartsFromRecords(records []PartRecord) (Parts, error) {
	if len(records) == 0 {
		return nil, nil
	}
	out := make(Parts, 0, len(records))
	for _, r := range records {
		p, err := DecodePart(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (ps Parts) MarshalJSON() ([]byte, error) {
	records := ps.Records()
	if records == nil {
		records = []PartRecord{}
	}
	return json.Marshal(records)
}

func (ps *Parts) UnmarshalJSON(data []byte) error {
	var records []PartRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	parts, err := PartsFromRecords(records)
	if err != nil {
		return err
	}
	*ps = parts
	return nil
}

// Text concatena el texto de las partes TextPart.
func (ps Parts) Text() string {
	var b strings.Builder
	for _, p := range ps {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
