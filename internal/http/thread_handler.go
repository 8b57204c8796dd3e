package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/service"
)

// ThreadHandler mantiene dependencias para endpoints de threads y links compartidos.
type ThreadHandler struct {
	logger  *zap.Logger
	threads *service.ThreadService
	origin  string
}

// NewThreadHandler recibe el origin público usado para armar los links de
// compartir; vacío, se deriva del request.
func NewThreadHandler(logger *zap.Logger, threads *service.ThreadService, origin string) *ThreadHandler {
	return &ThreadHandler{
		logger:  logger,
		threads: threads,
		origin:  strings.TrimRight(origin, "/"),
	}
}

// List maneja GET /api/threads. Con ?grouped=true devuelve los buckets por fecha.
func (h *ThreadHandler) List(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	if c.Query("grouped") == "true" {
		groups, err := h.threads.Grouped(c.Request.Context(), ident)
		if err != nil {
			respondError(c, h.logger, err, "could not list threads")
			return
		}
		c.JSON(http.StatusOK, groups)
		return
	}
	threads, err := h.threads.List(c.Request.Context(), ident)
	if err != nil {
		respondError(c, h.logger, err, "could not list threads")
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": threads})
}

// Get maneja GET /api/threads/:id. A quien no es dueño se lo manda al home
// sin revelar si el thread existe.
func (h *ThreadHandler) Get(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	thread, err := h.threads.Get(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			h.logger.Warn("thread read by non-owner", zap.String("thread_id", c.Param("id")), zap.String("user_id", ident.UserID))
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		if errors.Is(err, domain.ErrThreadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "thread not found"})
			return
		}
		respondError(c, h.logger, err, "could not fetch thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

// Update maneja PATCH /api/threads/:id (title y/o isPinned).
func (h *ThreadHandler) Update(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req struct {
		Title    *string `json:"title"`
		IsPinned *bool   `json:"isPinned"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Title == nil && req.IsPinned == nil) {
		h.logger.Warn("invalid thread update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	id := c.Param("id")
	var (
		thread domain.Thread
		err    error
	)
	if req.Title != nil {
		if thread, err = h.threads.Rename(c.Request.Context(), ident, id, *req.Title); err != nil {
			respondError(c, h.logger, err, "could not rename thread")
			return
		}
	}
	if req.IsPinned != nil {
		if thread, err = h.threads.SetPinned(c.Request.Context(), ident, id, *req.IsPinned); err != nil {
			respondError(c, h.logger, err, "could not pin thread")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

// Delete maneja DELETE /api/threads/:id.
func (h *ThreadHandler) Delete(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	if err := h.threads.Delete(c.Request.Context(), ident, c.Param("id")); err != nil {
		respondError(c, h.logger, err, "could not delete thread")
		return
	}
	c.Status(http.StatusNoContent)
}

// Share maneja POST /api/threads/:id/share.
func (h *ThreadHandler) Share(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	shareID, err := h.threads.Share(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "could not share thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"shareId": shareID,
		"url":     h.publicOrigin(c) + "/share/" + shareID,
	})
}

// Shared maneja GET /api/share/:shareId, sin autenticación.
func (h *ThreadHandler) Shared(c *gin.Context) {
	thread, err := h.threads.GetShared(c.Request.Context(), c.Param("shareId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shared thread not found"})
			return
		}
		respondError(c, h.logger, err, "could not fetch shared thread")
		return
	}
	c.JSON(http.StatusOK, gin.H{"thread": thread})
}

func (h *ThreadHandler) publicOrigin(c *gin.Context) string {
	if h.origin != "" {
		return h.origin
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
