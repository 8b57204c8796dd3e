package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"saarthi-chat/internal/domain"
)

// classifyError envuelve un error del SDK con ErrProvider o ErrNetwork.
// La cancelación se devuelve intacta para que el caller la distinga.
func classifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %s", domain.ErrProvider, provider, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %s: status %d", domain.ErrProvider, provider, reqErr.HTTPStatusCode)
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return fmt.Errorf("%w: %s: %s", domain.ErrProvider, provider, genaiErr.Message)
	}
	var genaiErrPtr *genai.APIError
	if errors.As(err, &genaiErrPtr) {
		return fmt.Errorf("%w: %s: %s", domain.ErrProvider, provider, genaiErrPtr.Message)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %s: %v", domain.ErrNetwork, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrProvider, provider, err)
}
