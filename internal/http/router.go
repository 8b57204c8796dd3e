package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"saarthi-chat/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas de la API.
// metricsHandler puede ser nil.
func NewRouter(
	logger *zap.Logger,
	verifier service.IdentityVerifier,
	userH *UserHandler,
	chatH *ChatHandler,
	threadH *ThreadHandler,
	attachH *AttachmentHandler,
	metricsHandler http.Handler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	api := r.Group("/api")
	api.GET("/models", chatH.Models)
	api.POST("/chat", chatH.Chat)
	api.POST("/generate-suggestions", chatH.GenerateSuggestions)
	api.GET("/share/:shareId", threadH.Shared)

	auth := api.Group("/auth")
	auth.POST("/anonymous", userH.Anonymous)
	auth.POST("/refresh", userH.RefreshToken)
	auth.POST("/logout", userH.Logout)

	private := api.Group("", AuthMiddleware(verifier))
	private.POST("/auth/federate", userH.Federate)

	private.GET("/me", userH.Me)
	private.POST("/me/sync", userH.Sync)
	private.PATCH("/me/settings", userH.UpdateSettings)

	threads := private.Group("/threads")
	threads.GET("", threadH.List)
	threads.GET("/:id", threadH.Get)
	threads.PATCH("/:id", threadH.Update)
	threads.DELETE("/:id", threadH.Delete)
	threads.POST("/:id/share", threadH.Share)
	threads.POST("/:id/turns", chatH.PostTurn)
	threads.GET("/:id/turns/current", chatH.TurnState)
	threads.DELETE("/:id/turns/current", chatH.StopTurn)

	private.POST("/attachments", attachH.Upload)
	private.DELETE("/attachments", attachH.Delete)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
// Los streams SSE y /metrics lo reemplazan con el suyo.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
