package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// ErrUnauthenticated indicates no user is attached to the request context.
var ErrUnauthenticated = fmt.Errorf("auth: no authenticated user: %w", httpx.ErrUnauthorized)

type userContextKey struct{}

// WithUser stores the acting user in ctx.
func WithUser(ctx context.Context, user permission.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext extracts the acting user from ctx.
func UserFromContext(ctx context.Context) (permission.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(permission.User)
	return user, ok
}

// RightLookup resolves right identifiers by name.
type RightLookup interface {
	FindRightByName(ctx context.Context, name permission.Right) (permission.RightRef, error)
}

// Context resolves the current user from the request context and rights through
// the reference data service.
type Context struct {
	rights RightLookup
}

// NewContext constructs the authentication context.
func NewContext(rights RightLookup) *Context {
	return &Context{rights: rights}
}

// CurrentUser returns the user attached by Middleware.Authenticate.
func (c *Context) CurrentUser(ctx context.Context) (permission.User, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return permission.User{}, ErrUnauthenticated
	}
	return user, nil
}

// RightByName resolves the right's identifier. Lookup failures are reported as-is.
func (c *Context) RightByName(ctx context.Context, name permission.Right) (permission.RightRef, error) {
	ref, err := c.rights.FindRightByName(ctx, name)
	if err != nil {
		return permission.RightRef{}, fmt.Errorf("auth: resolve right %s: %w", name, err)
	}
	return ref, nil
}

var errInvalidToken = errors.New("auth: invalid token")
