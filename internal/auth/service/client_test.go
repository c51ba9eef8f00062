package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterClient(t *testing.T) {
	svc := &ClientService{Store: newTestStore()}

	t.Run("defaults applied", func(t *testing.T) {
		client, secret, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
			Name:         "web-app",
			RedirectURIs: []string{"https://app.example.com/cb"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, client.ID)
		require.NotEmpty(t, secret)
		require.Equal(t, []string{"authorization_code", "refresh_token"}, client.GrantTypes)
		require.Equal(t, []string{"code"}, client.ResponseTypes)
	})

	t.Run("secret is hashed before storage", func(t *testing.T) {
		client, secret, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
			Name:         "hashed",
			RedirectURIs: []string{"https://app.example.com/cb"},
		})
		require.NoError(t, err)
		require.NotEqual(t, secret, client.SecretHash)
		require.Contains(t, client.SecretHash, "$argon2id$")

		stored, err := svc.GetClient(t.Context(), client.ID)
		require.NoError(t, err)
		require.Equal(t, client.SecretHash, stored.SecretHash)
	})

	t.Run("name required", func(t *testing.T) {
		_, _, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
			RedirectURIs: []string{"https://app.example.com/cb"},
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("redirect uri required", func(t *testing.T) {
		_, _, err := svc.RegisterClient(t.Context(), RegisterClientRequest{Name: "no-redirect"})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("duplicate grant types collapse", func(t *testing.T) {
		client, _, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
			Name:         "dupes",
			RedirectURIs: []string{"https://app.example.com/cb"},
			GrantTypes:   []string{"client_credentials", "client_credentials"},
		})
		require.NoError(t, err)
		require.Equal(t, []string{"client_credentials"}, client.GrantTypes)
	})
}

func TestValidateCredentials(t *testing.T) {
	svc := &ClientService{Store: newTestStore()}

	client, secret, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
		Name:         "creds",
		RedirectURIs: []string{"https://app.example.com/cb"},
	})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		got, err := svc.ValidateCredentials(t.Context(), client.ID, secret)
		require.NoError(t, err)
		require.Equal(t, client.ID, got.ID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.ValidateCredentials(t.Context(), client.ID, "wrong")
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := svc.ValidateCredentials(t.Context(), client.ID, "")
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("unknown client indistinguishable from wrong secret", func(t *testing.T) {
		_, err := svc.ValidateCredentials(t.Context(), "no-such-client", secret)
		require.ErrorIs(t, err, ErrInvalidClient)
	})
}

func TestValidateRedirectURI(t *testing.T) {
	svc := &ClientService{Store: newTestStore()}

	client, _, err := svc.RegisterClient(t.Context(), RegisterClientRequest{
		Name:         "redirects",
		RedirectURIs: []string{"https://app.example.com/cb", "https://app.example.com/alt"},
	})
	require.NoError(t, err)

	require.True(t, svc.ValidateRedirectURI(client, "https://app.example.com/cb"))
	require.True(t, svc.ValidateRedirectURI(client, "https://app.example.com/alt"))
	require.False(t, svc.ValidateRedirectURI(client, "https://app.example.com/cb/"))
	require.False(t, svc.ValidateRedirectURI(client, "https://evil.example.com/cb"))
}

func TestGetClient(t *testing.T) {
	svc := &ClientService{Store: newTestStore()}

	_, err := svc.GetClient(t.Context(), "missing")
	require.ErrorIs(t, err, ErrClientNotFound)
}
