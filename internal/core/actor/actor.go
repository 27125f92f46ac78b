// Package actor provides request-scoped caller identity.
//
// Authorization decisions belong to the external gateway; the core only needs
// to know who is performing an operation, for audit fields and logging. The
// identity is threaded explicitly through context instead of a global
// "current user" singleton.
package actor

import (
	"context"
)

// Actor describes the authenticated caller of a core operation.
type Actor struct {
	UserID string
	Email  string
	Roles  []string
}

type actorKey struct{}

// WithActor adds the caller identity to context.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// FromContext returns the caller identity from context, or nil.
func FromContext(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// UserID returns the caller's user ID from context or empty string.
func UserID(ctx context.Context) string {
	if a := FromContext(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// HasRole checks if the caller carries a specific role claim.
func HasRole(ctx context.Context, role string) bool {
	a := FromContext(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
