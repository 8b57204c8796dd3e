package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saarthi-chat/internal/service"
)

// sseStream escribe eventos Server-Sent Events sobre la respuesta de gin.
type sseStream struct {
	c *gin.Context
}

func startSSE(c *gin.Context) *sseStream {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	return &sseStream{c: c}
}

// send devuelve el error del contexto si el cliente ya se fue, así el
// orquestador cancela el turno.
func (s *sseStream) send(event string, payload any) error {
	if err := s.c.Request.Context().Err(); err != nil {
		return err
	}
	s.c.SSEvent(event, payload)
	s.c.Writer.Flush()
	return nil
}

func (s *sseStream) sendTurn(ev service.TurnEvent) error {
	return s.send(string(ev.Type), turnEventPayload(ev))
}

func turnEventPayload(ev service.TurnEvent) gin.H {
	switch ev.Type {
	case service.TurnEventThread:
		return gin.H{"thread": ev.Thread}
	case service.TurnEventText, service.TurnEventReasoning:
		return gin.H{"delta": ev.Delta}
	case service.TurnEventTool:
		return gin.H{"tool": ev.Tool, "label": ev.Label}
	case service.TurnEventSuggestions:
		return gin.H{"suggestions": ev.Suggestions}
	case service.TurnEventPersistError, service.TurnEventError:
		return gin.H{"error": ev.Error, "message": ev.Message}
	default:
		return gin.H{"message": ev.Message}
	}
}
