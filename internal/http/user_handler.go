package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/service"
)

// UserHandler mantiene dependencias para endpoints de sesión y perfil.
type UserHandler struct {
	logger   *zap.Logger
	userServ *service.UserService
	jwtServ  *service.JWTService
}

// NewUserHandler recibe jwtServ nil cuando la autenticación la resuelve
// Firebase; en ese caso las rutas de tokens propios responden 501.
func NewUserHandler(logger *zap.Logger, userServ *service.UserService, jwtServ *service.JWTService) *UserHandler {
	return &UserHandler{
		logger:   logger,
		userServ: userServ,
		jwtServ:  jwtServ,
	}
}

// Anonymous maneja POST /api/auth/anonymous.
func (h *UserHandler) Anonymous(c *gin.Context) {
	if !h.tokensEnabled(c) {
		return
	}
	user, err := h.userServ.CreateAnonymous(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "could not create session")
		return
	}
	tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "tokens": tokens})
}

// RefreshToken maneja POST /api/auth/refresh.
func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid refresh request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !h.tokensEnabled(c) {
		return
	}
	tokens, err := h.jwtServ.RefreshPair(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout maneja POST /api/auth/logout.
func (h *UserHandler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid logout request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !h.tokensEnabled(c) {
		return
	}
	_ = h.jwtServ.RevokeRefresh(c.Request.Context(), req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// Federate maneja POST /api/auth/federate. Con tokens propios el proveedor
// viene en el body y se emite un par nuevo; con Firebase se toman los claims
// del ID token ya verificado.
func (h *UserHandler) Federate(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	if h.jwtServ == nil {
		if !ident.Federated() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sign in with a provider before linking"})
			return
		}
		user, err := h.userServ.EnsureProfile(c.Request.Context(), ident)
		if err != nil {
			respondError(c, h.logger, err, "could not link account")
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	var req struct {
		Provider    string `json:"provider" binding:"required"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		AvatarURL   string `json:"avatarUrl"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid federate request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	user, err := h.userServ.Federate(c.Request.Context(), ident, service.FederatedProfile{
		Provider:    req.Provider,
		Email:       req.Email,
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		respondError(c, h.logger, err, "could not link account")
		return
	}
	tokens, err := h.jwtServ.GeneratePair(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("jwt issue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue tokens"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "tokens": tokens})
}

// Me maneja GET /api/me.
func (h *UserHandler) Me(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	user, err := h.userServ.Get(c.Request.Context(), ident)
	if err != nil {
		respondError(c, h.logger, err, "could not fetch profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Sync maneja POST /api/me/sync: alta en el primer ingreso o upgrade en el lugar.
func (h *UserHandler) Sync(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	user, err := h.userServ.EnsureProfile(c.Request.Context(), ident)
	if err != nil {
		respondError(c, h.logger, err, "could not sync profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateSettings maneja PATCH /api/me/settings.
func (h *UserHandler) UpdateSettings(c *gin.Context) {
	ident, ok := requireIdentity(c)
	if !ok {
		return
	}
	var req domain.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid settings request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	user, err := h.userServ.UpdateSettings(c.Request.Context(), ident, req)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
			return
		}
		respondError(c, h.logger, err, "could not update settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) tokensEnabled(c *gin.Context) bool {
	if h.jwtServ == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "sessions are issued by the identity provider"})
		return false
	}
	return true
}
