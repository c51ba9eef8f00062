package domain

import "time"

// APIToken is an opaque gateway credential with per-token rate limits.
// The record is keyed by the token fingerprint; the plaintext token is
// returned exactly once when minted.
type APIToken struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	TokenHash      string    `json:"token_hash"`
	LimitPerMinute int64     `json:"limit_per_minute"`
	LimitPerHour   int64     `json:"limit_per_hour"`
	LimitPerDay    int64     `json:"limit_per_day"`
	CreatedAt      time.Time `json:"created_at"`
}
