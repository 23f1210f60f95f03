package model

import "context"

// User is the authenticated caller as asserted by the identity provider. Users are not persisted
// by this service, they are referenced by ID from team memberships.
// swagger:model
type User struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type userCtxKey int

var userKey userCtxKey

// NewContextWithUser returns a new [context.Context] that carries value user.
func NewContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUserFromContext returns the user stored in the ctx, if any.
func GetUserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userKey).(*User)
	return u, ok
}
