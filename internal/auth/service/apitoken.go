package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/idx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// Fallback limits for minted gateway tokens when the request and config
// provide none.
const (
	FallbackLimitPerMinute = 60
	FallbackLimitPerHour   = 1000
	FallbackLimitPerDay    = 10000
)

// APITokenService mints and authenticates the opaque bearer tokens accepted
// by the gateway. Tokens are stored only by fingerprint; the plaintext is
// handed out once at mint time.
type APITokenService struct {
	Store *store.Store

	// Defaults applied when a mint request leaves a limit unset.
	DefaultLimitPerMinute int64
	DefaultLimitPerHour   int64
	DefaultLimitPerDay    int64
}

// MintAPITokenRequest carries the inputs for minting a gateway token. Zero
// limits inherit the service defaults.
type MintAPITokenRequest struct {
	Name           string
	LimitPerMinute int64
	LimitPerHour   int64
	LimitPerDay    int64
}

// Mint creates a gateway token and returns the record with its plaintext.
func (s *APITokenService) Mint(ctx context.Context, req MintAPITokenRequest) (domain.APIToken, string, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(req.Name) == "" {
		return domain.APIToken{}, "", ErrInvalidRequest
	}

	plaintext, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate api token", "error", err)
		return domain.APIToken{}, "", err
	}

	token := domain.APIToken{
		ID:             idx.New().String(),
		Name:           strings.TrimSpace(req.Name),
		TokenHash:      cryptox.FingerprintToken(plaintext),
		LimitPerMinute: s.pickLimit(req.LimitPerMinute, s.DefaultLimitPerMinute, FallbackLimitPerMinute),
		LimitPerHour:   s.pickLimit(req.LimitPerHour, s.DefaultLimitPerHour, FallbackLimitPerHour),
		LimitPerDay:    s.pickLimit(req.LimitPerDay, s.DefaultLimitPerDay, FallbackLimitPerDay),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.Store.APITokens().CreateAPIToken(ctx, token); err != nil {
		l.Error("failed to persist api token", "error", err)
		return domain.APIToken{}, "", err
	}

	l.Info("api token minted", "token_id", token.ID, "name", token.Name)
	return token, plaintext, nil
}

// Authenticate resolves a presented bearer value to its token record.
// Unknown tokens return ErrInvalidAPIToken.
func (s *APITokenService) Authenticate(ctx context.Context, plaintext string) (domain.APIToken, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return domain.APIToken{}, ErrInvalidAPIToken
	}

	token, err := s.Store.APITokens().GetAPITokenByHash(ctx, cryptox.FingerprintToken(plaintext))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.APIToken{}, ErrInvalidAPIToken
		}
		return domain.APIToken{}, err
	}
	return token, nil
}

// Revoke removes a gateway token by its plaintext value. Idempotent.
func (s *APITokenService) Revoke(ctx context.Context, plaintext string) error {
	return s.Store.APITokens().DeleteAPIToken(ctx, cryptox.FingerprintToken(plaintext))
}

func (s *APITokenService) pickLimit(requested, configured, fallback int64) int64 {
	if requested > 0 {
		return requested
	}
	if configured > 0 {
		return configured
	}
	return fallback
}
