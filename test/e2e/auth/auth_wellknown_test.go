package auth_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoveryDocument(t *testing.T) {
	ts := newTestServer(t)

	doc, err := ts.sdk.GetDiscovery(t.Context())
	require.NoError(t, err)

	require.Equal(t, testIssuer, doc.Issuer)
	require.Equal(t, testIssuer+"/oauth2/authorize", doc.AuthorizationEndpoint)
	require.Equal(t, testIssuer+"/oauth2/token", doc.TokenEndpoint)
	require.Equal(t, testIssuer+"/oauth2/userinfo", doc.UserinfoEndpoint)
	require.Equal(t, testIssuer+"/.well-known/jwks.json", doc.JWKSURI)
	require.Equal(t, testIssuer+"/oauth2/introspect", doc.IntrospectionEndpoint)
	require.Equal(t, testIssuer+"/oauth2/revoke", doc.RevocationEndpoint)

	require.Contains(t, doc.ScopesSupported, "openid")
	require.Equal(t, []string{"code"}, doc.ResponseTypesSupported)
	require.ElementsMatch(t,
		[]string{"authorization_code", "refresh_token", "client_credentials"},
		doc.GrantTypesSupported)
	require.Equal(t, []string{"EdDSA"}, doc.IDTokenSigningAlgValuesSupported)
	require.ElementsMatch(t, []string{"plain", "S256"}, doc.CodeChallengeMethodsSupported)
}

// The same metadata document is served under the OAuth2 well-known path.
func TestDiscoveryAliasPath(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.url + "/oauth2/.well-known/oauth-authorization-server")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	require.Equal(t, testIssuer, doc["issuer"])
	require.NotEmpty(t, doc["token_endpoint"])
}

func TestJWKSDocument(t *testing.T) {
	ts := newTestServer(t)

	jwks, err := ts.sdk.GetJWKS(t.Context())
	require.NoError(t, err)
	require.NotEmpty(t, jwks.Keys)

	for _, key := range jwks.Keys {
		require.Equal(t, "OKP", key.Kty)
		require.Equal(t, "Ed25519", key.Crv)
		require.Equal(t, "EdDSA", key.Alg)
		require.Equal(t, "sig", key.Use)
		require.NotEmpty(t, key.Kid)
		require.NotEmpty(t, key.X)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	t.Run("livez", func(t *testing.T) {
		health, err := ts.sdk.GetLiveness(t.Context())
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.NotEmpty(t, health.Uptime)
	})

	t.Run("readyz", func(t *testing.T) {
		health, err := ts.sdk.GetReadiness(t.Context())
		require.NoError(t, err)
		require.Equal(t, "ok", health.Status)
		require.NotNil(t, health.Checks)
		require.Equal(t, "ok", health.Checks.Store)
		require.Equal(t, "ok", health.Checks.Signer)
	})
}
