package domain

import "time"

// TokenPair represents what the token endpoint returns: the short-lived
// access token (JWT), the opaque refresh token when the grant rotates one,
// and the OIDC ID token when the grant includes the openid scope.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	IDToken      string `json:"id_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"` // always "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // seconds until expiry
	Scope        string `json:"scope,omitempty"`      // space-delimited
}

// RefreshToken models the stored refresh token record. Records are keyed by
// the token fingerprint; rotation deletes the old record before the new one
// is persisted.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	ClientID  string    `json:"client_id"`
	TokenHash string    `json:"token_hash"` // deterministic fingerprint (base64url SHA-256)
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
