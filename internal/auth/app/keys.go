package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/jwtx"
)

// InitAuthKeys creates a KeyManager in the configured storage mode.
//
// Storage modes:
//   - "ephemeral": Keys are generated on startup and held only in memory.
//     All existing tokens become invalid when the service restarts.
//   - "persistent": Keys are stored encrypted in the KV store, so tokens
//     survive service restarts.
//
// All keys are Ed25519; tokens are signed with EdDSA. By default, three
// signing keys with random identifiers are generated for load distribution.
// Use AUTH_NUM_KEYS to customize.
func InitAuthKeys(ctx context.Context, cfg Config, db *store.Store, logger *slog.Logger) (*jwtx.KeyManager, error) {
	// Configure master key path if provided (for persistent mode)
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	var keyManager *jwtx.KeyManager
	var err error

	switch cfg.KeyStorageMode {
	case "persistent":
		keyStore := store.NewKeyStoreAdapter(db)

		logger.Info("initializing persistent key manager", "num_keys", cfg.NumKeys)

		keyManager, err = jwtx.NewPersistentKeyManager(ctx, jwtx.PersistentKeyManagerOptions{
			Store:  keyStore,
			Issuer: cfg.Issuer,
			// No audience validation; tokens carry a dynamic audience (the client id).
			Audience: nil,
			NumKeys:  cfg.NumKeys,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize persistent key manager: %w", err)
		}

		logger.Info("persistent signing keys loaded",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)

	case "ephemeral":
		fallthrough
	default:
		logger.Info("initializing ephemeral key manager", "num_keys", cfg.NumKeys)

		keyManager, err = jwtx.NewEphemeralKeyManager(jwtx.KeyManagerOptions{
			Issuer:   cfg.Issuer,
			Audience: nil,
			NumKeys:  cfg.NumKeys,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ephemeral key manager: %w", err)
		}

		logger.Info("generated ephemeral signing keys",
			"algorithm", keyManager.Algorithm(),
			"num_keys", keyManager.NumSigners(),
			"issuer", cfg.Issuer,
		)

		logger.Warn("all existing tokens are now invalid due to key rotation on startup")
	}

	return keyManager, nil
}
