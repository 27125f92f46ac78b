package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"crewtransit/internal/core/actor"
	"crewtransit/internal/core/apperror"
)

// Role claims recognized by the API. Admin implies every other role.
const (
	RoleAdmin         = "admin"
	RoleCatalogEditor = "catalog:editor"
	RoleDispatcher    = "dispatcher"
	RoleBilling       = "billing"
)

// TokenValidator validates bearer tokens and extracts the caller identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*actor.Actor, error)
}

// Auth middleware validates JWT tokens and populates the actor context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		caller, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := actor.WithActor(c.Request.Context(), caller)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", caller.UserID)

		c.Next()
	}
}

// RequireRole middleware checks if the caller carries one of the roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := actor.FromContext(c.Request.Context())
		if caller == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, role := range caller.Roles {
			if role == RoleAdmin {
				c.Next()
				return
			}
			for _, required := range roles {
				if role == required {
					c.Next()
					return
				}
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
