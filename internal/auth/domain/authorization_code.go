package domain

import "time"

// AuthorizationCode represents an OAuth 2.0 authorization code issuance.
// The record is keyed by the code fingerprint and deleted atomically on
// first redemption, so there is no used flag.
type AuthorizationCode struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	ClientID            string    `json:"client_id"`
	CodeHash            string    `json:"code_hash"`
	RedirectURI         string    `json:"redirect_uri"`
	Scopes              []string  `json:"scopes"`
	Nonce               string    `json:"nonce,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	ExpiresAt           time.Time `json:"expires_at"`
	CreatedAt           time.Time `json:"created_at"`
}
