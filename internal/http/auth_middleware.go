package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saarthi-chat/internal/domain"
	"saarthi-chat/internal/service"
)

const identityKey = "identity"

// AuthMiddleware valida el bearer token y guarda la domain.Identity en el contexto.
func AuthMiddleware(verifier service.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		ident, err := verifier.Verify(c.Request.Context(), token)
		if err != nil || ident.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// GetIdentity obtiene la identidad autenticada desde el contexto.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	val, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	ident, ok := val.(domain.Identity)
	return ident, ok
}

// requireIdentity responde 401 si la ruta quedó montada sin AuthMiddleware.
func requireIdentity(c *gin.Context) (domain.Identity, bool) {
	ident, ok := GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return domain.Identity{}, false
	}
	return ident, true
}
