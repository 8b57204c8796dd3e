package llm

import (
	"context"
	"fmt"

	"saarthi-chat/internal/domain"
)

// Router despacha cada Request al Provider del modelo resuelto.
type Router struct {
	providers map[string]Provider
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]Provider)}
}

// Register asocia un proveedor ("openai", "google") a su implementación.
func (r *Router) Register(name string, p Provider) *Router {
	if p != nil {
		r.providers[name] = p
	}
	return r
}

// Supports indica si hay un cliente configurado para el modelo.
func (r *Router) Supports(m Model) bool {
	_, ok := r.providers[m.Provider]
	return ok
}

func (r *Router) Stream(ctx context.Context, req Request, emit func(Event) error) (Result, error) {
	p, ok := r.providers[req.Model.Provider]
	if !ok {
		return Result{}, fmt.Errorf("%w: no client configured for provider %q", domain.ErrProvider, req.Model.Provider)
	}
	return p.Stream(ctx, req, emit)
}
