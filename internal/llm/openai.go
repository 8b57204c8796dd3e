package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"saarthi-chat/internal/domain"
)

// OpenAIProvider implementa Provider y ObjectGenerator sobre la API de OpenAI.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider construye el cliente; baseURL vacío usa el endpoint oficial.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) Stream(ctx context.Context, req Request, emit func(Event) error) (Result, error) {
	conv := &openaiConversation{
		client:   p.client,
		model:    req.Model.ID,
		tools:    openAITools(req.Tools),
		messages: openAIMessages(req.System, req.Messages),
	}
	return runSteps(ctx, conv, req.Tools, req.MaxSteps, emit)
}

func (p *OpenAIProvider) GenerateObject(ctx context.Context, req ObjectRequest, out any) error {
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	schema := req.Schema.openAIDefinition(true)
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: &schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return classifyError(ProviderOpenAI, err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("%w: openai: empty response", domain.ErrProvider)
	}
	raw := firstJSONObject(resp.Choices[0].Message.Content)
	if raw == "" {
		return fmt.Errorf("%w: openai: response is not a JSON object", domain.ErrProvider)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: openai: decoding structured output: %v", domain.ErrProvider, err)
	}
	return nil
}

type openaiConversation struct {
	client   *openai.Client
	model    string
	tools    []openai.Tool
	messages []openai.ChatCompletionMessage
}

func (c *openaiConversation) step(ctx context.Context, sink *stepSink) (stepOutcome, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:         c.model,
		Messages:      c.messages,
		Tools:         c.tools,
		Stream:        true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	})
	if err != nil {
		return stepOutcome{}, classifyError(ProviderOpenAI, err)
	}
	defer stream.Close()

	var (
		out   stepOutcome
		text  strings.Builder
		calls = map[int]*openai.ToolCall{}
		order []int
	)
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stepOutcome{}, classifyError(ProviderOpenAI, err)
		}
		if resp.Usage != nil {
			out.tokens = resp.Usage.TotalTokens
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if delta := choice.Delta.Content; delta != "" {
			text.WriteString(delta)
			if err := sink.Text(delta); err != nil {
				return stepOutcome{}, err
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			cur, ok := calls[idx]
			if !ok {
				cur = &openai.ToolCall{Type: openai.ToolTypeFunction}
				calls[idx] = cur
				order = append(order, idx)
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" && cur.Function.Name == "" {
				cur.Function.Name = tc.Function.Name
				pending := domain.ToolInvocation{CallID: cur.ID, Name: cur.Function.Name, State: domain.ToolStatePartialCall}
				if err := sink.emit(Event{Type: EventTool, Tool: &pending}); err != nil {
					return stepOutcome{}, err
				}
			}
			cur.Function.Arguments += tc.Function.Arguments
		}
		if choice.FinishReason != "" {
			out.finishReason = string(choice.FinishReason)
		}
	}

	assistant := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text.String()}
	for _, idx := range order {
		tc := *calls[idx]
		assistant.ToolCalls = append(assistant.ToolCalls, tc)
		args := json.RawMessage(tc.Function.Arguments)
		if !json.Valid(args) {
			args = json.RawMessage("{}")
		}
		out.calls = append(out.calls, toolCall{ID: tc.ID, Name: tc.Function.Name, Args: args})
	}
	c.messages = append(c.messages, assistant)
	return out, nil
}

func (c *openaiConversation) addToolResults(results []toolResult) {
	for _, r := range results {
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			ToolCallID: r.Call.ID,
			Name:       r.Call.Name,
			Content:    string(r.Payload),
		})
	}
}

func openAITools(tools []Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters().openAIDefinition(false)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  &params,
			},
		})
	}
	return out
}

func openAIMessages(system string, msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		images, rest := splitAttachments(m.Attachments)
		content := withAttachmentNotes(m.Content, rest)
		if len(images) == 0 || role != openai.ChatMessageRoleUser {
			out = append(out, openai.ChatCompletionMessage{Role: role, Content: content})
			continue
		}
		parts := make([]openai.ChatMessagePart, 0, len(images)+1)
		if content != "" {
			parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: content})
		}
		for _, a := range images {
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: a.URL, Detail: openai.ImageURLDetailAuto},
			})
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, MultiContent: parts})
	}
	return out
}

// splitAttachments separa las imágenes, que los modelos aceptan por URL, del resto.
func splitAttachments(atts []domain.Attachment) (images, rest []domain.Attachment) {
	for _, a := range atts {
		if strings.HasPrefix(a.ContentType, "image/") {
			images = append(images, a)
			continue
		}
		rest = append(rest, a)
	}
	return images, rest
}

func withAttachmentNotes(content string, atts []domain.Attachment) string {
	if len(atts) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	for _, a := range atts {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[Attachment: %s (%s) %s]", a.Name, a.ContentType, a.URL)
	}
	return b.String()
}
