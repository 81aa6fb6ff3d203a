package api

import (
	"context"

	"github.com/google/uuid"
)

type keyType string

const (
	principalKey keyType = "principal"
	visitorIDKey keyType = "visitorID"
)

// Principal is the authenticated caller of an admin route.
type Principal struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	// Issuer is "local" for our own tokens and "descope" for federated ones.
	Issuer string `json:"issuer"`
}

func ctxWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// ctxGetPrincipal returns nil outside authenticated routes.
func ctxGetPrincipal(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

func ctxWithVisitorID(ctx context.Context, visitorID string) context.Context {
	return context.WithValue(ctx, visitorIDKey, visitorID)
}

func ctxGetVisitorID(ctx context.Context) string {
	id, _ := ctx.Value(visitorIDKey).(string)
	return id
}
