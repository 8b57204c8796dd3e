package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

const defaultResultCount = 5

type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// Searcher consulta un buscador web.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// GoogleSearcher usa la API de Google Custom Search.
type GoogleSearcher struct {
	service  *customsearch.Service
	engineID string
}

// NewGoogleSearcher devuelve nil si faltan credenciales.
func NewGoogleSearcher(ctx context.Context, apiKey, engineID string) (*GoogleSearcher, error) {
	if apiKey == "" || engineID == "" {
		return nil, nil
	}
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("search: creating customsearch service: %w", err)
	}
	return &GoogleSearcher{service: svc, engineID: engineID}, nil
}

func (g *GoogleSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	resp, err := g.service.Cse.List().Cx(g.engineID).Q(query).Num(defaultResultCount).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search: listing results: %w", err)
	}
	out := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Source:  item.DisplayLink,
		})
	}
	return out, nil
}

// Degraded envuelve un Searcher para que nunca falle: sin credenciales o ante
// errores devuelve una lista vacía.
type Degraded struct {
	inner  Searcher
	logger *zap.Logger
}

func NewDegraded(inner Searcher, logger *zap.Logger) *Degraded {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Degraded{inner: inner, logger: logger}
}

func (d *Degraded) Search(ctx context.Context, query string) ([]Result, error) {
	if d.inner == nil {
		d.logger.Warn("web search not configured")
		return []Result{}, nil
	}
	results, err := d.inner.Search(ctx, query)
	if err != nil {
		d.logger.Warn("web search failed", zap.String("query", query), zap.Error(err))
		return []Result{}, nil
	}
	return results, nil
}
