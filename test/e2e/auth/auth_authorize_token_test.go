package auth_test

import (
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationCodeFlow(t *testing.T) {
	ts := newTestServer(t)
	client := registerTestClient(t, ts)
	bearer := obtainBearer(t, ts, client.ClientID, client.ClientSecret, nil)

	t.Run("full exchange", func(t *testing.T) {
		authResp := authorizeCode(t, ts, bearer, client.ClientID, "profile email")
		require.Equal(t, redirectURI, authResp.RedirectURI)

		tokenResp, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, redirectURI, "")
		require.NoError(t, err)
		assertTokenResponse(t, tokenResp)
		require.Empty(t, tokenResp.IDToken, "ID token requires the openid scope")

		claims, err := ts.verifier.Verify(tokenResp.AccessToken)
		require.NoError(t, err)
		require.Equal(t, testIssuer, claims.Issuer)
		require.ElementsMatch(t, []string{"profile", "email"}, claims.Scopes)
		require.Equal(t, []string{client.ClientID}, []string(claims.Audience))
	})

	t.Run("state echoed back", func(t *testing.T) {
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType: "code",
			ClientID:     client.ClientID,
			RedirectURI:  redirectURI,
			Scope:        "profile",
			State:        "xyz-opaque-state",
		})
		require.NoError(t, err)
		require.Equal(t, "xyz-opaque-state", resp.State)
	})

	t.Run("browser caller gets a 302 to the redirect uri", func(t *testing.T) {
		q := url.Values{
			"response_type": {"code"},
			"client_id":     {client.ClientID},
			"redirect_uri":  {redirectURI},
			"scope":         {"profile"},
			"state":         {"browser-state"},
		}
		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet,
			ts.url+"/oauth2/authorize?"+q.Encode(), nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+bearer)

		noFollow := &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
		resp, err := noFollow.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusFound, resp.StatusCode)

		location, err := url.Parse(resp.Header.Get("Location"))
		require.NoError(t, err)
		require.Equal(t, "app.example.com", location.Host)
		require.NotEmpty(t, location.Query().Get("code"))
		require.Equal(t, "browser-state", location.Query().Get("state"))
	})

	t.Run("code is single use", func(t *testing.T) {
		authResp := authorizeCode(t, ts, bearer, client.ClientID, "profile")

		_, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, redirectURI, "")
		require.NoError(t, err)

		_, err = ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, redirectURI, "")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidGrant, "replayed code")
	})

	t.Run("redirect mismatch burns the code", func(t *testing.T) {
		authResp := authorizeCode(t, ts, bearer, client.ClientID, "profile")

		_, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, "https://evil.example.com/cb", "")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidGrant, "wrong redirect_uri")

		// The failed exchange consumed the code; the honest retry must fail too.
		_, err = ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, redirectURI, "")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidGrant, "retry after failed exchange")
	})

	t.Run("scopes intersect with client registration", func(t *testing.T) {
		authResp := authorizeCode(t, ts, bearer, client.ClientID, "profile not:registered")

		tokenResp, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, authResp.Code, redirectURI, "")
		require.NoError(t, err)
		require.Equal(t, "profile", tokenResp.Scope)
		require.NotContains(t, tokenResp.Scope, "not:registered")
	})

	t.Run("unknown response type rejected", func(t *testing.T) {
		_, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType: "token",
			ClientID:     client.ClientID,
			RedirectURI:  redirectURI,
		})
		assertOAuth2Error(t, err, authsdk.ErrorCodeUnsupportedResponseType, "implicit flow")
	})

	t.Run("unregistered redirect rejected at authorize", func(t *testing.T) {
		_, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType: "code",
			ClientID:     client.ClientID,
			RedirectURI:  "https://evil.example.com/cb",
		})
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidRequest, "unregistered redirect_uri")
	})

	t.Run("authorize requires authentication", func(t *testing.T) {
		_, err := ts.sdk.Authorize(t.Context(), "", authsdk.AuthorizeParams{
			ResponseType: "code",
			ClientID:     client.ClientID,
			RedirectURI:  redirectURI,
		})
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidToken, "no bearer token")
	})

	t.Run("wrong client secret", func(t *testing.T) {
		authResp := authorizeCode(t, ts, bearer, client.ClientID, "profile")

		_, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, "wrong-secret", authResp.Code, redirectURI, "")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidClient, "wrong secret")
	})
}

func TestAuthorizationCodeFlowPKCE(t *testing.T) {
	ts := newTestServer(t)
	client := registerTestClient(t, ts)
	bearer := obtainBearer(t, ts, client.ClientID, client.ClientSecret, nil)

	verifier := "e2e-code-verifier-with-enough-entropy-0123456789"
	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	t.Run("S256 round trip", func(t *testing.T) {
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType:        "code",
			ClientID:            client.ClientID,
			RedirectURI:         redirectURI,
			Scope:               "profile",
			CodeChallenge:       challenge,
			CodeChallengeMethod: "S256",
		})
		require.NoError(t, err)

		tokenResp, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, resp.Code, redirectURI, verifier)
		require.NoError(t, err)
		assertTokenResponse(t, tokenResp)
	})

	t.Run("wrong verifier rejected", func(t *testing.T) {
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType:        "code",
			ClientID:            client.ClientID,
			RedirectURI:         redirectURI,
			Scope:               "profile",
			CodeChallenge:       challenge,
			CodeChallengeMethod: "S256",
		})
		require.NoError(t, err)

		_, err = ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, resp.Code, redirectURI, "not-the-verifier")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidGrant, "wrong code_verifier")
	})

	t.Run("missing verifier rejected", func(t *testing.T) {
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType:        "code",
			ClientID:            client.ClientID,
			RedirectURI:         redirectURI,
			Scope:               "profile",
			CodeChallenge:       challenge,
			CodeChallengeMethod: "S256",
		})
		require.NoError(t, err)

		_, err = ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, resp.Code, redirectURI, "")
		assertOAuth2Error(t, err, authsdk.ErrorCodeInvalidGrant, "missing code_verifier")
	})

	t.Run("plain method", func(t *testing.T) {
		plainVerifier := "plain-verifier-value-with-sufficient-length-42"
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType:        "code",
			ClientID:            client.ClientID,
			RedirectURI:         redirectURI,
			Scope:               "profile",
			CodeChallenge:       plainVerifier,
			CodeChallengeMethod: "plain",
		})
		require.NoError(t, err)

		tokenResp, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, resp.Code, redirectURI, plainVerifier)
		require.NoError(t, err)
		assertTokenResponse(t, tokenResp)
	})
}

func TestOpenIDConnectIDToken(t *testing.T) {
	ts := newTestServer(t)
	client := registerTestClient(t, ts)
	bearer := obtainBearer(t, ts, client.ClientID, client.ClientSecret, nil)

	t.Run("openid scope yields an ID token", func(t *testing.T) {
		resp, err := ts.sdk.Authorize(t.Context(), bearer, authsdk.AuthorizeParams{
			ResponseType: "code",
			ClientID:     client.ClientID,
			RedirectURI:  redirectURI,
			Scope:        "openid profile",
			Nonce:        "n-0S6_WzA2Mj",
		})
		require.NoError(t, err)

		tokenResp, err := ts.sdk.AuthorizationCodeGrant(t.Context(),
			client.ClientID, client.ClientSecret, resp.Code, redirectURI, "")
		require.NoError(t, err)
		assertTokenResponse(t, tokenResp)
		require.NotEmpty(t, tokenResp.IDToken)
		require.True(t, strings.Contains(tokenResp.Scope, "openid"))

		idClaims, err := ts.verifier.Verify(tokenResp.IDToken)
		require.NoError(t, err)
		require.Equal(t, testIssuer, idClaims.Issuer)
		require.Equal(t, []string{client.ClientID}, []string(idClaims.Audience))
		require.Equal(t, "n-0S6_WzA2Mj", idClaims.Nonce)
	})
}
