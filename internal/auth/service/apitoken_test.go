package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPITokenMint(t *testing.T) {
	svc := &APITokenService{
		Store:                 newTestStore(),
		DefaultLimitPerMinute: 30,
		DefaultLimitPerHour:   500,
	}

	t.Run("name is required", func(t *testing.T) {
		_, _, err := svc.Mint(t.Context(), MintAPITokenRequest{Name: "   "})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("limits resolve request, config, fallback in order", func(t *testing.T) {
		token, plaintext, err := svc.Mint(t.Context(), MintAPITokenRequest{
			Name:           "resolver",
			LimitPerMinute: 5,
		})
		require.NoError(t, err)
		require.NotEmpty(t, plaintext)
		require.NotEmpty(t, token.ID)
		require.Equal(t, int64(5), token.LimitPerMinute, "Explicit request wins")
		require.Equal(t, int64(500), token.LimitPerHour, "Configured default next")
		require.Equal(t, int64(FallbackLimitPerDay), token.LimitPerDay, "Built-in fallback last")
	})

	t.Run("plaintext is not stored", func(t *testing.T) {
		token, plaintext, err := svc.Mint(t.Context(), MintAPITokenRequest{Name: "opaque"})
		require.NoError(t, err)
		require.NotEqual(t, plaintext, token.TokenHash)
		require.NotEmpty(t, token.TokenHash)
	})
}

func TestAPITokenAuthenticate(t *testing.T) {
	svc := &APITokenService{Store: newTestStore()}

	minted, plaintext, err := svc.Mint(t.Context(), MintAPITokenRequest{Name: "auth-test"})
	require.NoError(t, err)

	t.Run("valid token resolves", func(t *testing.T) {
		token, err := svc.Authenticate(t.Context(), plaintext)
		require.NoError(t, err)
		require.Equal(t, minted.ID, token.ID)
		require.Equal(t, "auth-test", token.Name)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := svc.Authenticate(t.Context(), "never-minted")
		require.ErrorIs(t, err, ErrInvalidAPIToken)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.Authenticate(t.Context(), "  ")
		require.ErrorIs(t, err, ErrInvalidAPIToken)
	})
}

func TestAPITokenRevoke(t *testing.T) {
	svc := &APITokenService{Store: newTestStore()}

	_, plaintext, err := svc.Mint(t.Context(), MintAPITokenRequest{Name: "revoke-test"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(t.Context(), plaintext))

	_, err = svc.Authenticate(t.Context(), plaintext)
	require.ErrorIs(t, err, ErrInvalidAPIToken)

	// Revoking again is a no-op.
	require.NoError(t, svc.Revoke(t.Context(), plaintext))
	require.NoError(t, svc.Revoke(t.Context(), "never-minted"))
}
