package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// AuthorizationCodeGrant exchanges an authorization code for tokens.
// codeVerifier may be empty when PKCE was not used.
func (c *SDKClient) AuthorizationCodeGrant(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant rotates a refresh token for a new token pair. The presented
// refresh token is dead after a successful call; keep the returned one.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, clientSecret, refreshToken string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// ClientCredentialsGrant requests an access token for machine-to-machine
// use. No refresh token is returned; clients re-authenticate instead.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	clientID, clientSecret string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
	}
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}

	return c.requestToken(ctx, data)
}

// Introspect reports the state of a token per RFC 7662. The caller
// authenticates with its own bearer access token.
func (c *SDKClient) Introspect(
	ctx context.Context,
	bearerToken, token, tokenTypeHint string,
) (*IntrospectionResponse, error) {
	data := url.Values{"token": {token}}
	if tokenTypeHint != "" {
		data.Set("token_type_hint", tokenTypeHint)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth2/introspect",
		strings.NewReader(data.Encode()), bearerToken, formHeaders())
	if err != nil {
		return nil, err
	}

	var out IntrospectionResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke invalidates a token per RFC 7009. Revoking an unknown token still
// succeeds.
func (c *SDKClient) Revoke(ctx context.Context, token, tokenTypeHint string) error {
	data := url.Values{"token": {token}}
	if tokenTypeHint != "" {
		data.Set("token_type_hint", tokenTypeHint)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth2/revoke",
		strings.NewReader(data.Encode()), "", formHeaders())
	if err != nil {
		return err
	}

	var out RevocationResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth2/token",
		strings.NewReader(data.Encode()), "", formHeaders())
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokenResp, nil
}

func formHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
}
