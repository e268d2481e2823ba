package auth

import "context"

type contextKey struct{}

// AuthContext carries the resolved session for a request.
type AuthContext struct {
	Email string
	Token string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// Email returns the authenticated email, or "" when the request carries no
// session.
func Email(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.Email
}
