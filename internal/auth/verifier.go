package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crudai-app/backend/internal/config"
)

// Verifier turns a bearer token into verified identity claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Nickname string `json:"nickname,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// Auth0Verifier validates RS256 tokens issued by the configured identity
// provider, resolving signing keys through the JWKS cache.
type Auth0Verifier struct {
	audience  string
	issuer    string
	algorithm string
	keys      *KeyCache
}

func NewAuth0Verifier(cfg *config.Config) *Auth0Verifier {
	return &Auth0Verifier{
		audience:  cfg.Auth0Audience,
		issuer:    cfg.Auth0Issuer,
		algorithm: cfg.Auth0Algorithm,
		keys:      NewKeyCache(cfg.Auth0Domain),
	}
}

func (v *Auth0Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header missing kid")
		}
		return v.keys.SigningKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{v.algorithm}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(v.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token missing subject")
	}

	return &Claims{
		Subject:  claims.Subject,
		Email:    claims.Email,
		Nickname: claims.Nickname,
		Name:     claims.Name,
		Picture:  claims.Picture,
	}, nil
}

// MockVerifier substitutes a fixed development identity when the identity
// provider is not configured. Every request resolves to the same user.
type MockVerifier struct{}

func (MockVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	return &Claims{
		Subject:  "dev-user-123",
		Email:    "dev@example.com",
		Nickname: "Developer",
		Name:     "Development User",
	}, nil
}

// NewVerifier picks the real verifier when auth is configured and the mock
// otherwise.
func NewVerifier(cfg *config.Config) Verifier {
	if cfg.AuthEnabled() {
		return NewAuth0Verifier(cfg)
	}
	return MockVerifier{}
}
