package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/envo-lms/backend/internal/auth"
	"github.com/envo-lms/backend/pkg/response"
)

// ContextIdentity is the key for the resolved identity in gin context.
const ContextIdentity = "identity"

// Auth returns a middleware that resolves the bearer credential to an
// identity and stores it in the request context. 401 when the credential is
// missing or does not resolve.
func Auth(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		identity, err := resolver.Resolve(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextIdentity, *identity)
		c.Next()
	}
}

// IdentityFrom returns the identity set by Auth. Panics if the route is not
// behind the Auth middleware.
func IdentityFrom(c *gin.Context) auth.Identity {
	return c.MustGet(ContextIdentity).(auth.Identity)
}
