package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"saarthi-chat/internal/domain"
)

// GeminiProvider implementa Provider sobre la API de Gemini.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider construye el cliente; baseURL vacío usa el endpoint oficial.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("llm: creating genai client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Stream(ctx context.Context, req Request, emit func(Event) error) (Result, error) {
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if decls := geminiDeclarations(req.Tools); len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	conv := &geminiConversation{
		models:   p.client.Models,
		model:    req.Model.ID,
		config:   config,
		contents: geminiContents(req.Messages),
	}
	return runSteps(ctx, conv, req.Tools, req.MaxSteps, emit)
}

type geminiConversation struct {
	models   *genai.Models
	model    string
	config   *genai.GenerateContentConfig
	contents []*genai.Content
}

func (c *geminiConversation) step(ctx context.Context, sink *stepSink) (stepOutcome, error) {
	var (
		out        stepOutcome
		text       strings.Builder
		modelParts []*genai.Part
	)
	for resp, err := range c.models.GenerateContentStream(ctx, c.model, c.contents, c.config) {
		if err != nil {
			return stepOutcome{}, classifyError(ProviderGoogle, err)
		}
		if resp.UsageMetadata != nil {
			out.tokens = int(resp.UsageMetadata.TotalTokenCount)
		}
		if len(resp.Candidates) == 0 {
			continue
		}
		cand := resp.Candidates[0]
		if cand.FinishReason != "" {
			out.finishReason = string(cand.FinishReason)
		}
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch {
			case part.FunctionCall != nil:
				fc := part.FunctionCall
				if fc.ID == "" {
					fc.ID = uuid.NewString()
				}
				args, err := json.Marshal(fc.Args)
				if err != nil {
					args = []byte("{}")
				}
				out.calls = append(out.calls, toolCall{ID: fc.ID, Name: fc.Name, Args: args})
				modelParts = append(modelParts, part)
			case part.Thought:
				if err := sink.Reasoning(part.Text); err != nil {
					return stepOutcome{}, err
				}
			case part.Text != "":
				text.WriteString(part.Text)
				if err := sink.Text(part.Text); err != nil {
					return stepOutcome{}, err
				}
			}
		}
	}

	if text.Len() > 0 {
		modelParts = append([]*genai.Part{genai.NewPartFromText(text.String())}, modelParts...)
	}
	if len(modelParts) > 0 {
		c.contents = append(c.contents, &genai.Content{Role: string(genai.RoleModel), Parts: modelParts})
	}
	return out, nil
}

func (c *geminiConversation) addToolResults(results []toolResult) {
	if len(results) == 0 {
		return
	}
	parts := make([]*genai.Part, 0, len(results))
	for _, r := range results {
		var payload any
		if err := json.Unmarshal(r.Payload, &payload); err != nil {
			payload = string(r.Payload)
		}
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       r.Call.ID,
			Name:     r.Call.Name,
			Response: map[string]any{"output": payload},
		}})
	}
	c.contents = append(c.contents, &genai.Content{Role: string(genai.RoleUser), Parts: parts})
}

func geminiDeclarations(tools []Tool) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters().genaiSchema(),
		})
	}
	return out
}

func geminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.Role(genai.RoleUser)
		if m.Role == domain.RoleAssistant {
			role = genai.RoleModel
		}
		images, rest := splitAttachments(m.Attachments)
		var parts []*genai.Part
		if content := withAttachmentNotes(m.Content, rest); content != "" {
			parts = append(parts, genai.NewPartFromText(content))
		}
		for _, a := range images {
			parts = append(parts, genai.NewPartFromURI(a.URL, a.ContentType))
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: string(role), Parts: parts})
	}
	return out
}
