package domain

import "time"

// Client is a registered OAuth2 client. The secret is stored only as an
// Argon2id hash; the plaintext leaves the service exactly once, in the
// registration response.
type Client struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SecretHash    string    `json:"secret_hash"`
	RedirectURIs  []string  `json:"redirect_uris"`
	GrantTypes    []string  `json:"grant_types"`
	ResponseTypes []string  `json:"response_types"`
	Scopes        []string  `json:"scopes"`
	TenantID      string    `json:"tenant_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
