// Package auth verifies OIDC bearer tokens on incoming requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
)

var (
	ErrMissingToken  = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid bearer token")
	ErrMissingTenant = errors.New("token carries no tenant_id claim")
)

// Verifier checks a raw token. *oidc.IDTokenVerifier implements it.
type Verifier interface {
	Verify(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)
}

// Claims is the caller identity taken from a verified token.
type Claims struct {
	Subject  string
	Username string
	TenantID string
	Expiry   time.Time
}

type claimsKey struct{}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims stored by the middleware, if any.
func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

// NewVerifier discovers the issuer's signing keys. An empty clientID skips
// the audience check, which access tokens without an aud claim need.
func NewVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider for issuer %s: %w", issuer, err)
	}
	return provider.Verifier(&oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}), nil
}

// Middleware rejects requests without a valid bearer token by calling deny,
// and otherwise adds the token's claims to the request context. With
// requireTenant, tokens without a tenant_id claim are rejected as well.
func Middleware(v Verifier, requireTenant bool, deny func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := Authenticate(r.Context(), v, r.Header.Get("Authorization"), requireTenant)
			if err != nil {
				deny(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Authenticate verifies the bearer token in an Authorization header value.
// It returns ErrMissingToken, ErrInvalidToken or, with requireTenant,
// ErrMissingTenant; the verification cause is logged, not returned.
func Authenticate(ctx context.Context, v Verifier, header string, requireTenant bool) (Claims, error) {
	token, ok := bearerToken(header)
	if !ok {
		return Claims{}, ErrMissingToken
	}

	claims, err := verify(ctx, v, token)
	if err != nil {
		slog.WarnContext(ctx, "token rejected", "error", err)
		return Claims{}, ErrInvalidToken
	}
	if requireTenant && claims.TenantID == "" {
		slog.WarnContext(ctx, "token rejected: no tenant_id claim", "sub", claims.Subject)
		return Claims{}, ErrMissingTenant
	}
	return claims, nil
}

func verify(ctx context.Context, v Verifier, raw string) (Claims, error) {
	idToken, err := v.Verify(ctx, raw)
	if err != nil {
		return Claims{}, fmt.Errorf("token verification failed: %w", err)
	}

	var extra struct {
		Username string `json:"username"`
		TenantID string `json:"tenant_id"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return Claims{}, fmt.Errorf("failed to decode claims: %w", err)
	}

	return Claims{
		Subject:  idToken.Subject,
		Username: extra.Username,
		TenantID: extra.TenantID,
		Expiry:   idToken.Expiry,
	}, nil
}

// bearerToken strips a case-insensitive "Bearer " prefix.
func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
