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

// errorStatus clasifica un error de servicio en su código HTTP.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrTurnInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(err error, status int, fallback string) string {
	switch status {
	case http.StatusBadRequest:
		return strings.TrimPrefix(err.Error(), domain.ErrValidation.Error()+": ")
	case http.StatusNotFound:
		return "not found"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusConflict, http.StatusTooManyRequests:
		return err.Error()
	default:
		return fallback
	}
}

// respondError responde {"error": ...} según la categoría del error. Los 5xx
// se loguean como Error con el mensaje de fallback.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(fallback, zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Warn("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": errorMessage(err, status, fallback)})
}
