package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoveryMetadata(t *testing.T) {
	t.Run("endpoints derive from the issuer", func(t *testing.T) {
		svc := &DiscoveryService{
			Issuer:      "https://auth.example.com",
			SigningAlgs: []string{"EdDSA"},
		}

		meta := svc.Metadata()
		require.Equal(t, "https://auth.example.com", meta.Issuer)
		require.Equal(t, "https://auth.example.com/oauth2/authorize", meta.AuthorizationEndpoint)
		require.Equal(t, "https://auth.example.com/oauth2/token", meta.TokenEndpoint)
		require.Equal(t, "https://auth.example.com/.well-known/jwks.json", meta.JWKSURI)
		require.Equal(t, "https://auth.example.com/oauth2/register", meta.RegistrationEndpoint)
		require.Equal(t, []string{"EdDSA"}, meta.IDTokenSigningAlgValuesSupported)
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		svc := &DiscoveryService{Issuer: "https://auth.example.com/"}

		meta := svc.Metadata()
		require.Equal(t, "https://auth.example.com", meta.Issuer)
		require.Equal(t, "https://auth.example.com/oauth2/token", meta.TokenEndpoint)
	})

	t.Run("scope default", func(t *testing.T) {
		svc := &DiscoveryService{Issuer: "https://auth.example.com"}

		meta := svc.Metadata()
		require.Equal(t, []string{"openid", "profile", "email"}, meta.ScopesSupported)
		require.Equal(t, []string{"code"}, meta.ResponseTypesSupported)
		require.ElementsMatch(t,
			[]string{"authorization_code", "refresh_token", "client_credentials"},
			meta.GrantTypesSupported)
		require.ElementsMatch(t, []string{"plain", "S256"}, meta.CodeChallengeMethodsSupported)
	})

	t.Run("configured scopes win", func(t *testing.T) {
		svc := &DiscoveryService{
			Issuer:          "https://auth.example.com",
			ScopesSupported: []string{"openid", "custom:scope"},
		}

		require.Equal(t, []string{"openid", "custom:scope"}, svc.Metadata().ScopesSupported)
	})
}
