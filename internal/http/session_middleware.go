package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"memory-makers/internal/domain"
	"memory-makers/internal/service"
)

const authUserKey = "auth_user"

// SessionAuthMiddleware resuelve el bearer token a un usuario y lo deja en el
// contexto. Los mensajes de detail siguen el contrato del backend original.
func SessionAuthMiddleware(authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		user, err := authSvc.CurrentUser(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionNotFound):
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid session"})
			case errors.Is(err, service.ErrSessionExpired):
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "Session expired"})
			case errors.Is(err, service.ErrUserNotFound):
				c.JSON(http.StatusNotFound, gin.H{"detail": "User not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not resolve session"})
			}
			c.Abort()
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// GetAuthUser obtiene el usuario autenticado desde el contexto.
func GetAuthUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}
