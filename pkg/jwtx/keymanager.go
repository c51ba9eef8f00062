package jwtx

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/keyfold/keyfold/pkg/cryptox"
)

// AlgorithmEdDSA is the JWT signing algorithm used by this service.
const AlgorithmEdDSA = "EdDSA"

// KeyManager manages JWT signing and verification keys for an instance.
// It supports multiple signing keys for improved availability and load
// distribution; keys are selected randomly for signing operations.
type KeyManager struct {
	Verifier Verifier
	KeySet   *KeySet

	mu      sync.RWMutex
	signers []Signer
}

// KeyManagerOptions configures the KeyManager for a specific use case.
type KeyManagerOptions struct {
	// Issuer is the issuer claim (iss) that will be validated in tokens.
	Issuer string

	// Audience is the list of audience values (aud) that will be validated.
	// Empty slice means no audience validation.
	Audience []string

	// NumKeys specifies how many signing keys to generate.
	// Multiple keys improve availability and distribute signing load.
	// Defaults to 3 if not specified. Minimum is 1, maximum is 10.
	NumKeys int
}

// NewEphemeralKeyManager creates a new KeyManager with ephemeral Ed25519
// keys. The keys are generated on the fly and only exist in memory. All
// tokens become invalid when the service restarts, which is useful for
// stateless key rotation.
func NewEphemeralKeyManager(opts KeyManagerOptions) (*KeyManager, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("jwtx: Issuer is required")
	}

	numKeys := clampNumKeys(opts.NumKeys)

	// KeySet for JWKS publishing
	keyset := NewKeySet()

	signers := make([]Signer, 0, numKeys)
	for i := 0; i < numKeys; i++ {
		kid, err := generateRandomKeyID()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key ID: %w", err)
		}

		pemBytes, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to generate key %d: %w", i+1, err)
		}

		signer, err := NewSignerEdDSA(kid, pemBytes)
		if err != nil {
			return nil, fmt.Errorf("jwtx: failed to create signer %d: %w", i+1, err)
		}

		signers = append(signers, signer)
		if err := keyset.AddSigner(signer); err != nil {
			return nil, fmt.Errorf("jwtx: failed to add signer %d to keyset: %w", i+1, err)
		}
	}

	return &KeyManager{
		Verifier: NewCommonEdDSA(keyset, opts.Issuer, opts.Audience),
		KeySet:   keyset,
		signers:  signers,
	}, nil
}

// Algorithm returns the signing algorithm being used.
func (km *KeyManager) Algorithm() string {
	return AlgorithmEdDSA
}

// IsReady returns true if the KeyManager has valid keys loaded.
func (km *KeyManager) IsReady() bool {
	return km.KeySet.IsReady()
}

// GetSigner returns a randomly selected signer from the available signing
// keys. Random selection distributes signing load across the set.
func (km *KeyManager) GetSigner() Signer {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if len(km.signers) == 0 {
		return nil
	}

	if len(km.signers) == 1 {
		return km.signers[0]
	}

	idx := rand.IntN(len(km.signers))
	return km.signers[idx]
}

// NumSigners returns the number of active signing keys.
func (km *KeyManager) NumSigners() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return len(km.signers)
}

// AddSigner adds a new signing key to the KeyManager. The key is added to
// both the active signers list (for signing) and the KeySet (for
// verification). Thread-safe.
func (km *KeyManager) AddSigner(signer Signer) error {
	if signer == nil {
		return fmt.Errorf("signer cannot be nil")
	}

	km.mu.Lock()
	defer km.mu.Unlock()

	if err := km.KeySet.AddSigner(signer); err != nil {
		return fmt.Errorf("failed to add signer to keyset: %w", err)
	}

	km.signers = append(km.signers, signer)
	return nil
}

func clampNumKeys(n int) int {
	if n <= 0 {
		return 3
	}
	if n > 10 {
		return 10
	}
	return n
}

// generateRandomKeyID creates a random key identifier using cryptographic
// entropy. Format: "keyfold-{random-token}" with 128 bits of entropy.
func generateRandomKeyID() (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate random key ID: %w", err)
	}
	return fmt.Sprintf("keyfold-%s", token), nil
}
