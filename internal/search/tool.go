package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
)

const ToolName = "webSearch"

const toolDescription = `Search the web for current information, facts, recent events, or detailed explanations.

Use this tool when:
- User asks about current events or recent news
- Questions require up-to-date information
- User asks for specific facts that might not be in your training data
- User requests recent developments on any topic
- Questions about current stock prices, weather, or time-sensitive data

The tool provides web search results with sources.`

// Tool expone un Searcher como herramienta del modelo.
type Tool struct {
	searcher Searcher
}

func NewTool(searcher Searcher) *Tool {
	return &Tool{searcher: searcher}
}

func (t *Tool) Name() string        { return ToolName }
func (t *Tool) Description() string { return toolDescription }

func (t *Tool) Parameters() llm.Schema {
	return llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]llm.Schema{
			"query": {Type: llm.TypeString, Description: "The search query"},
		},
		Required: []string{"query"},
	}
}

func (t *Tool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("%w: webSearch arguments: %v", domain.ErrValidation, err)
	}
	query := strings.TrimSpace(in.Query)
	if query == "" {
		return []Result{}, nil
	}
	return t.searcher.Search(ctx, query)
}
