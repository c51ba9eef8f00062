package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// Introspection is the RFC 7662 view of a token. Only Active is meaningful
// when the token is dead; the remaining fields are populated for live tokens.
type Introspection struct {
	Active    bool     `json:"active"`
	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	Subject   string   `json:"sub,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	ExpiresAt int64    `json:"exp,omitempty"`
	IssuedAt  int64    `json:"iat,omitempty"`
	Issuer    string   `json:"iss,omitempty"`
	Audience  []string `json:"aud,omitempty"`
	JTI       string   `json:"jti,omitempty"`
}

var inactive = Introspection{Active: false}

// Introspect reports the state of an access or refresh token per RFC 7662.
//
// The method never returns a protocol error for a bad token; malformed,
// expired, revoked, and unknown all collapse into {"active": false} so the
// endpoint leaks nothing about why a token is dead. An infra failure while
// consulting the store is the only error path.
func (s *TokenService) Introspect(ctx context.Context, token, tokenTypeHint string) (Introspection, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return inactive, nil
	}

	// The hint only orders the lookups; a wrong hint never changes the
	// answer.
	if tokenTypeHint == "refresh_token" {
		if res, ok, err := s.introspectRefresh(ctx, token); err != nil || ok {
			return res, err
		}
		return s.introspectAccess(ctx, token)
	}

	if res, ok, err := s.introspectAccessChecked(ctx, token); err != nil || ok {
		return res, err
	}
	res, _, err := s.introspectRefresh(ctx, token)
	return res, err
}

func (s *TokenService) introspectAccess(ctx context.Context, token string) (Introspection, error) {
	res, _, err := s.introspectAccessChecked(ctx, token)
	return res, err
}

func (s *TokenService) introspectAccessChecked(ctx context.Context, token string) (Introspection, bool, error) {
	claims, err := s.KeyManager.Verifier.Verify(token)
	if err != nil {
		return inactive, false, nil
	}
	if err := claims.ValidateExpiry(); err != nil {
		return inactive, false, nil
	}

	revoked, err := s.Store.Revocations().IsRevoked(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		slogx.FromContext(ctx).Error("revocation lookup failed during introspection", "error", err)
		return inactive, false, err
	}
	if revoked {
		return inactive, true, nil
	}

	res := Introspection{
		Active:    true,
		Scope:     strings.Join(claims.Scopes, " "),
		Subject:   claims.Subject,
		TokenType: "Bearer",
		Issuer:    claims.Issuer,
		Audience:  claims.Audience,
		JTI:       claims.ID,
	}
	if len(claims.Audience) > 0 {
		res.ClientID = claims.Audience[0]
	}
	if claims.ExpiresAt != nil {
		res.ExpiresAt = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		res.IssuedAt = claims.IssuedAt.Unix()
	}
	return res, true, nil
}

func (s *TokenService) introspectRefresh(ctx context.Context, token string) (Introspection, bool, error) {
	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return inactive, false, nil
		}
		return inactive, false, err
	}
	if time.Now().UTC().After(rt.ExpiresAt) {
		return inactive, true, nil
	}

	return Introspection{
		Active:    true,
		Scope:     strings.Join(rt.Scopes, " "),
		ClientID:  rt.ClientID,
		Subject:   rt.UserID,
		TokenType: "refresh_token",
		ExpiresAt: rt.ExpiresAt.Unix(),
		IssuedAt:  rt.CreatedAt.Unix(),
		Issuer:    s.Issuer,
		JTI:       rt.ID,
	}, true, nil
}
