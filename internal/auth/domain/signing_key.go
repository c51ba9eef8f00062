package domain

import "time"

// SigningKey is a persisted JWT signing key. The private key material is
// encrypted with the master key before it reaches the store.
type SigningKey struct {
	ID                  string    `json:"id"`
	Kid                 string    `json:"kid"`
	Algorithm           string    `json:"algorithm"`
	PrivateKeyEncrypted []byte    `json:"private_key_encrypted"`
	CreatedAt           time.Time `json:"created_at"`
}
