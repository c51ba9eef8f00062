package store

import (
	"context"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/pkg/jwtx"
)

// KeyStoreAdapter bridges the store's signing key repository to the
// jwtx.KeyStore interface, keeping jwtx free of store imports.
type KeyStoreAdapter struct {
	keys *SigningKeys
}

var _ jwtx.KeyStore = (*KeyStoreAdapter)(nil)

func NewKeyStoreAdapter(s *Store) *KeyStoreAdapter {
	return &KeyStoreAdapter{keys: s.SigningKeys()}
}

func (a *KeyStoreAdapter) ListSigningKeys(ctx context.Context) ([]jwtx.SigningKeyRecord, error) {
	keys, err := a.keys.ListSigningKeys(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]jwtx.SigningKeyRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, jwtx.SigningKeyRecord{
			ID:                  k.ID,
			Kid:                 k.Kid,
			Algorithm:           k.Algorithm,
			PrivateKeyEncrypted: k.PrivateKeyEncrypted,
			CreatedAt:           k.CreatedAt,
		})
	}
	return records, nil
}

func (a *KeyStoreAdapter) CreateSigningKey(ctx context.Context, rec jwtx.SigningKeyRecord) error {
	return a.keys.CreateSigningKey(ctx, domain.SigningKey{
		ID:                  rec.ID,
		Kid:                 rec.Kid,
		Algorithm:           rec.Algorithm,
		PrivateKeyEncrypted: rec.PrivateKeyEncrypted,
		CreatedAt:           rec.CreatedAt,
	})
}
