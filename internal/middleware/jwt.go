package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pianoteacher/studio-api/internal/service"
	appErrors "github.com/pianoteacher/studio-api/pkg/errors"
	"github.com/pianoteacher/studio-api/pkg/response"
)

// ContextUserKey stores validated JWT claims on the gin context.
const ContextUserKey = "auth.claims"

type tokenValidator interface {
	ValidateToken(token string) (*service.Claims, error)
}

// JWT rejects requests without a valid bearer token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing authorization header"))
			c.Abort()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authorization header must use the Bearer scheme"))
			c.Abort()
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// ClaimsFromContext retrieves claims stored by the JWT middleware.
func ClaimsFromContext(c *gin.Context) (*service.Claims, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*service.Claims)
	return claims, ok
}
