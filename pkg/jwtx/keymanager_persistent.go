package jwtx

import (
	"context"
	"fmt"
	"time"

	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/idx"
)

// SigningKeyRecord represents a signing key held in the key store.
// The private key material is encrypted at rest with the master key.
type SigningKeyRecord struct {
	ID                  string    `json:"id"`
	Kid                 string    `json:"kid"`
	Algorithm           string    `json:"algorithm"`
	PrivateKeyEncrypted []byte    `json:"private_key_encrypted"`
	CreatedAt           time.Time `json:"created_at"`
}

// KeyStore defines the minimal interface needed for persistent key
// management. This keeps jwtx decoupled from the store package.
type KeyStore interface {
	// ListSigningKeys returns all stored signing keys.
	ListSigningKeys(ctx context.Context) ([]SigningKeyRecord, error)

	// CreateSigningKey stores a new signing key with encrypted private
	// key material.
	CreateSigningKey(ctx context.Context, key SigningKeyRecord) error
}

// PersistentKeyManagerOptions configures a KeyManager with persistent key
// storage.
type PersistentKeyManagerOptions struct {
	// Store provides access to the signing key records.
	Store KeyStore

	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience is the list of audience values (aud) that will be validated.
	// Empty slice means no audience validation.
	Audience []string

	// NumKeys specifies the target number of active signing keys.
	// If fewer keys exist in the store, new ones will be generated.
	NumKeys int
}

// NewPersistentKeyManager creates a KeyManager that loads Ed25519 keys from
// a key store. Unlike ephemeral keys, these survive service restarts, so
// access tokens stay verifiable across deploys.
//
// On initialization it loads every stored key, decrypts the private
// material, and generates additional keys if the store holds fewer than
// NumKeys.
func NewPersistentKeyManager(ctx context.Context, opts PersistentKeyManagerOptions) (*KeyManager, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("jwtx: Store is required for persistent key manager")
	}
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := clampNumKeys(opts.NumKeys)

	records, err := opts.Store.ListSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("jwtx: failed to load keys from store: %w", err)
	}

	keyset := NewKeySet()
	signers := make([]Signer, 0, max(len(records), numKeys))

	for _, rec := range records {
		if rec.Algorithm != AlgorithmEdDSA {
			return nil, fmt.Errorf("jwtx: unsupported stored algorithm %q for key %s", rec.Algorithm, rec.Kid)
		}

		pemData, err := cryptox.DecryptPrivateKey(rec.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to decrypt key %s: %w", rec.Kid, err)
		}

		signer, err := NewSignerEdDSA(rec.Kid, pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to create signer for key %s: %w", rec.Kid, err)
		}

		signers = append(signers, signer)
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add key %s to keyset: %w", rec.Kid, err)
		}
	}

	// Top up to the target key count.
	now := time.Now().UTC()
	for len(signers) < numKeys {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
		}

		pemData, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate new key: %w", err)
		}

		signer, err := NewSignerEdDSA(kid, pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to create new signer: %w", err)
		}

		encryptedKey, err := cryptox.EncryptPrivateKey(pemData)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to encrypt new key: %w", err)
		}

		rec := SigningKeyRecord{
			ID:                  idx.New().String(),
			Kid:                 kid,
			Algorithm:           AlgorithmEdDSA,
			PrivateKeyEncrypted: encryptedKey,
			CreatedAt:           now,
		}
		if err := opts.Store.CreateSigningKey(ctx, rec); err != nil {
			return nil, fmt.Errorf("jwtx: failed to store new key: %w", err)
		}

		signers = append(signers, signer)
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add new key to keyset: %w", err)
		}
	}

	return &KeyManager{
		Verifier: NewCommonEdDSA(keyset, opts.Issuer, opts.Audience),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}
