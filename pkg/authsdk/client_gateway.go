package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MintAPIToken mints an opaque gateway API token. Requires an access token
// with the admin:write scope; the plaintext token is returned exactly once.
func (c *SDKClient) MintAPIToken(
	ctx context.Context,
	bearerToken string,
	req MintAPITokenRequest,
) (*MintAPITokenResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/tokens",
		bytes.NewReader(body), bearerToken, jsonHeaders())
	if err != nil {
		return nil, err
	}

	var out MintAPITokenResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping calls the gateway-protected sample resource with an API token.
func (c *SDKClient) Ping(ctx context.Context, apiToken string) (*PingResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/ping", nil, apiToken, nil)
	if err != nil {
		return nil, err
	}

	var out PingResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
