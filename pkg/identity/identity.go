// Package identity supplies the identity of the authenticated caller.
// Authentication itself happens upstream; this package only reads what the
// auth layer put on the request context.
package identity

import "context"

// Provider exposes the current caller. A nil user id means a guest.
type Provider interface {
	CurrentUserID(ctx context.Context) *int64
	CurrentUserEmail(ctx context.Context) string
}

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	userEmailKey contextKey = "user_email"
)

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, userID int64, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

// ContextProvider reads identity from the request context, where the auth
// middleware placed it.
type ContextProvider struct{}

func NewContextProvider() *ContextProvider {
	return &ContextProvider{}
}

func (p *ContextProvider) CurrentUserID(ctx context.Context) *int64 {
	if v := ctx.Value(userIDKey); v != nil {
		if id, ok := v.(int64); ok {
			return &id
		}
	}
	return nil
}

func (p *ContextProvider) CurrentUserEmail(ctx context.Context) string {
	if v := ctx.Value(userEmailKey); v != nil {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}
