// Package userctx carries the authenticated user through request context
package userctx

import (
	"context"

	"github.com/nkiryanov/festival/internal/models"
)

type userKey struct{}

// New returns ctx carrying the user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the user set by New, false on anonymous request
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

// HasRole reports whether request is made by user with the role
func HasRole(ctx context.Context, role string) bool {
	u, ok := FromContext(ctx)
	return ok && u.Role == role
}
