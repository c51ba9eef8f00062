package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/keyfold/keyfold/pkg/idx"
)

// Default token TTL constants for standard OAuth2/JWT flows.
// These provide sensible security defaults but can be overridden per-service.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = time.Hour

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultIDTokenTTL is the default lifetime for OIDC ID tokens.
	DefaultIDTokenTTL = time.Hour
)

// Claims are the token claims used across the service. Access tokens and
// ID tokens share the struct; the OIDC profile fields stay empty on access
// tokens and the scope list stays empty on ID tokens.
type Claims struct {
	jwt.RegisteredClaims

	// Permission scopes, e.g. "openid profile api:read"
	Scopes []string `json:"scopes,omitempty"`

	/* OIDC ID token fields */

	// Nonce echoes the value from the authorization request, binding the
	// ID token to that request.
	Nonce string `json:"nonce,omitempty"`

	// Email for the authenticated user
	Email string `json:"email,omitempty"`

	// EmailVerified reports whether the directory has verified the address.
	EmailVerified bool `json:"email_verified,omitempty"`

	// Name is the display name for the user
	Name string `json:"name,omitempty"`
}

// NewAccessClaims builds minimally-correct access token claims.
func NewAccessClaims(
	subject string,
	scopes []string,
	ttl time.Duration,
	issuer string,
	audience []string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Scopes: scopes,
	}
}

// NewIDClaims builds OIDC ID token claims for a user profile. The audience
// is the requesting client and the nonce is echoed from the authorization
// request when present.
func NewIDClaims(
	subject string,
	ttl time.Duration,
	issuer, clientID, nonce string,
	email string,
	emailVerified bool,
	name string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Nonce:         nonce,
		Email:         email,
		EmailVerified: emailVerified,
		Name:          name,
	}
}

// NewJTI returns a URL-safe unique identifier for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	// Check expired (exp)
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	// Check if a valid token isn't used before it is valid (nbf)
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiryWithLeeway adds a small grace period for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(leeway time.Duration) error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}
