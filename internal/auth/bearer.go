package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerTokenAuth handles Bearer token authentication
type BearerTokenAuth struct {
	token string
}

// NewBearerTokenAuth creates a new Bearer token authenticator
func NewBearerTokenAuth(token string) *BearerTokenAuth {
	return &BearerTokenAuth{token: token}
}

// IsAuthorized validates Bearer token from Authorization header
func (b *BearerTokenAuth) IsAuthorized(r *http.Request) bool {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return false
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return false
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return false
	}

	return token == b.token
}

// SetUnauthorizedHeaders sets standard WWW-Authenticate header for Bearer auth
func (b *BearerTokenAuth) SetUnauthorizedHeaders(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
}

// Middleware rejects gin requests without a valid Bearer token
func (b *BearerTokenAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !b.IsAuthorized(c.Request) {
			b.SetUnauthorizedHeaders(c.Writer)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
