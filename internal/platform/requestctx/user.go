// Package requestctx carries the signed-in user through a request context.
package requestctx

import (
	"context"

	"github.com/prereview/prereview/internal/orcid"
)

// User is the person behind a web session.
type User struct {
	ORCID     orcid.ID
	Name      string
	Pseudonym string
}

type userContextKey struct{}

// WithUser stores the signed-in user in context.
func WithUser(ctx context.Context, user User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFrom returns the signed-in user, if any.
func UserFrom(ctx context.Context) (User, bool) {
	if ctx == nil {
		return User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(User)
	if !ok || !orcid.IsValid(string(user.ORCID)) {
		return User{}, false
	}
	return user, true
}
