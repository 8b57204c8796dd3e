package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/llm"
	"saarthi-chat/internal/service"
)

// ChatHandler mantiene dependencias para los endpoints de completion y turnos.
type ChatHandler struct {
	logger      *zap.Logger
	completions *service.CompletionService
	suggestions *service.SuggestionService
	turns       *service.TurnService
	threads     *service.ThreadService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	completions *service.CompletionService,
	suggestions *service.SuggestionService,
	turns *service.TurnService,
	threads *service.ThreadService,
) *ChatHandler {
	return &ChatHandler{
		logger:      logger,
		completions: completions,
		suggestions: suggestions,
		turns:       turns,
		threads:     threads,
	}
}

// Models maneja GET /api/models.
func (h *ChatHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":       llm.Models(),
		"defaultModel": llm.DefaultModel().ID,
	})
}

// Chat maneja POST /api/chat: completion sin estado sobre el historial que
// manda el cliente, transmitido como SSE.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req struct {
		Messages      []domain.Message  `json:"messages"`
		ModelID       string            `json:"modelId"`
		SearchEnabled bool              `json:"searchEnabled"`
		UserInfo      service.UserHints `json:"userInfo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if _, err := llm.ResolveModel(req.ModelID); err != nil {
		h.logger.Warn("unknown model requested", zap.String("model", req.ModelID))
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.String(http.StatusBadRequest, "Invalid model ID")
		return
	}
	for _, m := range req.Messages {
		if _, err := domain.ParseRole(string(m.Role)); err != nil {
			respondError(c, h.logger, err, "invalid request")
			return
		}
	}

	prepared, err := h.completions.Prepare(service.CompletionRequest{
		ModelID:       req.ModelID,
		Messages:      req.Messages,
		SearchEnabled: req.SearchEnabled,
		User:          req.UserInfo,
		Geo:           geoFromRequest(c.Request),
	})
	if err != nil {
		respondError(c, h.logger, err, "could not prepare completion")
		return
	}

	stream := startSSE(c)
	result, err := h.completions.Stream(c.Request.Context(), prepared, func(ev llm.Event) error {
		return stream.sendTurn(service.TurnEventFromStream(ev))
	})
	if err != nil {
		if c.Request.Context().Err() != nil {
			return
		}
		h.logger.Error("completion failed", zap.String("model", prepared.Model.ID), zap.Error(err))
		_ = stream.send("error", gin.H{"error": service.FailureNotice(err)})
		return
	}
	_ = stream.send("finish", gin.H{
		"text":         result.Text,
		"parts":        result.Parts,
		"finishReason": result.FinishReason,
		"steps":        result.Steps,
		"tokenCount":   result.TokenCount,
	})
}

// GenerateSuggestions maneja POST /api/generate-suggestions.
func (h *ChatHandler) GenerateSuggestions(c *gin.Context) {
	var req struct {
		Messages []struct {
			ID      string `json:"id"`
			Role    string `json:"role" binding:"required"`
			Content string `json:"content"`
		} `json:"messages" binding:"required,min=1,dive"`
		MaxSuggestions int `json:"maxSuggestions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid suggestions request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	turns := make([]service.SuggestionTurn, 0, len(req.Messages))
	for _, m := range req.Messages {
		role, err := domain.ParseRole(m.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
			return
		}
		turns = append(turns, service.SuggestionTurn{Role: role, Content: m.Content})
	}

	out, err := h.suggestions.Generate(c.Request.Context(), turns, req.MaxSuggestions)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			respondError(c, h.logger, err, "invalid request")
			return
		}
		h.logger.Error("suggestion generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate suggestions"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// PostTurn maneja POST /api/threads/:id/turns. Los errores de admisión y de
// creación del thread se responden como JSON; una vez emitido el primer
// evento, todo lo demás viaja por el stream.
func (h *ChatHandler) PostTurn(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Content       string              `json:"content"`
		Attachments   []domain.Attachment `json:"attachments"`
		ModelID       string              `json:"modelId"`
		SearchEnabled bool                `json:"searchEnabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid turn request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var stream *sseStream
	emit := func(ev service.TurnEvent) error {
		if stream == nil {
			stream = startSSE(c)
		}
		return stream.sendTurn(ev)
	}
	res, err := h.turns.Run(c.Request.Context(), ident, service.TurnInput{
		ThreadID:      c.Param("id"),
		Content:       req.Content,
		Attachments:   req.Attachments,
		ModelID:       req.ModelID,
		SearchEnabled: req.SearchEnabled,
		Geo:           geoFromRequest(c.Request),
	}, emit)

	if stream == nil {
		if err != nil {
			respondError(c, h.logger, err, "could not start turn")
			return
		}
		stream = startSSE(c)
	}
	if errors.Is(err, service.ErrTurnCanceled) {
		_ = stream.send("done", gin.H{"threadId": c.Param("id"), "canceled": true})
		return
	}
	if err != nil {
		h.logger.Error("turn failed after streaming began", zap.Error(err))
		_ = stream.send("error", gin.H{"error": service.FailureNotice(err)})
		return
	}
	_ = stream.send("done", gin.H{"threadId": res.Thread.ID, "failed": res.Failed})
}

// StopTurn maneja DELETE /api/threads/:id/turns/current.
func (h *ChatHandler) StopTurn(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.turns.Stop(ident, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrNoActiveTurn) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active turn"})
			return
		}
		respondError(c, h.logger, err, "could not stop turn")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
}

// TurnState maneja GET /api/threads/:id/turns/current.
func (h *ChatHandler) TurnState(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	threadID := c.Param("id")
	if _, err := h.threads.Get(c.Request.Context(), ident, threadID); err != nil && !errors.Is(err, domain.ErrThreadNotFound) {
		respondError(c, h.logger, err, "could not read turn state")
		return
	}
	c.JSON(http.StatusOK, gin.H{"threadId": threadID, "state": h.turns.State(threadID)})
}
