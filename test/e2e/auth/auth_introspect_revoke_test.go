package auth_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntrospection(t *testing.T) {
	ts := newTestServer(t)
	client := registerTestClient(t, ts)
	bearer := obtainBearer(t, ts, client.ClientID, client.ClientSecret, nil)

	t.Run("active access token", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile email")

		resp, err := ts.sdk.Introspect(t.Context(), bearer, pair.AccessToken, "")
		require.NoError(t, err)
		require.True(t, resp.Active)
		require.Equal(t, "Bearer", resp.TokenType)
		require.Equal(t, client.ClientID, resp.ClientID)
		require.Equal(t, testIssuer, resp.Iss)
		require.NotEmpty(t, resp.Sub)
		require.NotEmpty(t, resp.Jti)
		require.Positive(t, resp.Exp)
		require.Contains(t, resp.Scope, "profile")
	})

	t.Run("active refresh token with hint", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		resp, err := ts.sdk.Introspect(t.Context(), bearer, pair.RefreshToken, "refresh_token")
		require.NoError(t, err)
		require.True(t, resp.Active)
		require.Equal(t, client.ClientID, resp.ClientID)
	})

	t.Run("hint does not restrict lookup", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		// A refresh token introspected with the access_token hint is still found.
		resp, err := ts.sdk.Introspect(t.Context(), bearer, pair.RefreshToken, "access_token")
		require.NoError(t, err)
		require.True(t, resp.Active)
	})

	t.Run("unknown token is inactive not an error", func(t *testing.T) {
		resp, err := ts.sdk.Introspect(t.Context(), bearer, "complete-garbage", "")
		require.NoError(t, err)
		require.False(t, resp.Active)
		require.Empty(t, resp.Scope)
		require.Empty(t, resp.Sub)
	})

	t.Run("rotated refresh token is inactive", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		_, err := ts.sdk.RefreshGrant(t.Context(),
			client.ClientID, client.ClientSecret, pair.RefreshToken, nil)
		require.NoError(t, err)

		resp, err := ts.sdk.Introspect(t.Context(), bearer, pair.RefreshToken, "refresh_token")
		require.NoError(t, err)
		require.False(t, resp.Active)
	})
}

func TestRevocation(t *testing.T) {
	ts := newTestServer(t)
	client := registerTestClient(t, ts)
	bearer := obtainBearer(t, ts, client.ClientID, client.ClientSecret, nil)

	t.Run("revoked refresh token cannot be redeemed", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		require.NoError(t, ts.sdk.Revoke(t.Context(), pair.RefreshToken, "refresh_token"))

		_, err := ts.sdk.RefreshGrant(t.Context(),
			client.ClientID, client.ClientSecret, pair.RefreshToken, nil)
		require.Error(t, err)
	})

	t.Run("revoked access token goes inactive", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		require.NoError(t, ts.sdk.Revoke(t.Context(), pair.AccessToken, "access_token"))

		resp, err := ts.sdk.Introspect(t.Context(), bearer, pair.AccessToken, "")
		require.NoError(t, err)
		require.False(t, resp.Active)
	})

	t.Run("revoked access token is rejected at protected endpoints", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		require.NoError(t, ts.sdk.Revoke(t.Context(), pair.AccessToken, ""))

		_, err := ts.sdk.GetUserInfo(t.Context(), pair.AccessToken)
		require.Error(t, err)
	})

	t.Run("revoking unknown tokens succeeds", func(t *testing.T) {
		require.NoError(t, ts.sdk.Revoke(t.Context(), "never-issued", ""))
		require.NoError(t, ts.sdk.Revoke(t.Context(), "never-issued", "refresh_token"))
	})

	t.Run("revocation is idempotent", func(t *testing.T) {
		pair := issueTokenPair(t, ts, client, "profile")

		require.NoError(t, ts.sdk.Revoke(t.Context(), pair.RefreshToken, "refresh_token"))
		require.NoError(t, ts.sdk.Revoke(t.Context(), pair.RefreshToken, "refresh_token"))
	})
}
