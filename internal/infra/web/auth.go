package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"effects-store/internal/domain"
	"effects-store/internal/domain/model"
)

// ===== Session/JWT primitives =====

// SessionClaims is the bearer token shape minted by the identity provider.
// Subject carries the user id.
type SessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() string { return c.Subject }
func (c *SessionClaims) IsAdmin() bool  { return model.Role(c.Role) == model.RoleAdmin }

// AuthManager verifies bearer session tokens against the provider's shared
// HMAC secret. This service never mints tokens.
type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

func (a *AuthManager) ParseFromRequest(r *http.Request) (*SessionClaims, error) {
	hdr := r.Header.Get("Authorization")
	if hdr == "" || !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
		return nil, domain.ErrUnauthorized
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *AuthManager) parse(tok string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// ===== Request context =====

type ctxKey string

const ctxClaims ctxKey = "session_claims"

func withClaims(ctx context.Context, c *SessionClaims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsFrom returns the authenticated session, or nil on unauthenticated
// routes.
func ClaimsFrom(ctx context.Context) *SessionClaims {
	c, _ := ctx.Value(ctxClaims).(*SessionClaims)
	return c
}
