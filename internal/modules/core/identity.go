package core

import (
	"context"

	"github.com/google/uuid"
)

type ContextKey string

const IdentityContextKey ContextKey = "identity"

const RoleAdmin = "admin"

// Identity is the acting user, placed into the request context by the
// authentication middleware. Handlers receive it explicitly instead of
// reading ambient state, which keeps the domain testable.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

func CurrentIdentity(ctx context.Context) Identity {
	rawVal := ctx.Value(IdentityContextKey)
	if rawVal == nil {
		return Identity{}
	}

	identity, ok := rawVal.(Identity)
	if !ok {
		return Identity{}
	}

	return identity
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}
