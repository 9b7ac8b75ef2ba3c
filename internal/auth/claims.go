package auth

import "context"

// Claims is the verified identity claim set the rest of the system consumes.
// Subject is the provider's stable user identifier; everything else is
// optional profile data.
type Claims struct {
	Subject  string
	Email    string
	Nickname string
	Name     string
	Picture  string
}

type claimsKey struct{}

// WithClaims attaches verified claims to the request context.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom extracts the verified claims placed by the middleware.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}
