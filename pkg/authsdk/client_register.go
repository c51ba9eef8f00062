package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RegisterClient registers a new OAuth2 client. The returned secret is
// plaintext and cannot be retrieved again; store it.
func (c *SDKClient) RegisterClient(
	ctx context.Context,
	req RegisterClientRequest,
) (*RegisterClientResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth2/register",
		bytes.NewReader(body), "", jsonHeaders())
	if err != nil {
		return nil, err
	}

	var out RegisterClientResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizeParams carries the query parameters for the authorization
// endpoint. Empty optional fields are omitted from the request.
type AuthorizeParams struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// Authorize requests an authorization code. The resource owner proves their
// identity with bearerToken; the code in the response is single use.
func (c *SDKClient) Authorize(
	ctx context.Context,
	bearerToken string,
	params AuthorizeParams,
) (*AuthorizeResponse, error) {
	q := url.Values{
		"response_type": {params.ResponseType},
		"client_id":     {params.ClientID},
		"redirect_uri":  {params.RedirectURI},
	}
	setIfPresent := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	setIfPresent("scope", params.Scope)
	setIfPresent("state", params.State)
	setIfPresent("nonce", params.Nonce)
	setIfPresent("code_challenge", params.CodeChallenge)
	setIfPresent("code_challenge_method", params.CodeChallengeMethod)

	resp, err := c.doRequest(ctx, http.MethodGet, "/oauth2/authorize?"+q.Encode(),
		nil, bearerToken, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	var out AuthorizeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}
