package authsdk

import (
	"context"
	"net/http"
)

// GetJWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) GetJWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, "", nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}

	return &jwks, nil
}

// GetDiscovery retrieves the OpenID Connect discovery document.
func (c *SDKClient) GetDiscovery(ctx context.Context) (*DiscoveryResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/openid-configuration", nil, "", nil)
	if err != nil {
		return nil, err
	}

	var doc DiscoveryResponse
	if err := decodeJSON(resp, &doc, http.StatusOK); err != nil {
		return nil, err
	}

	return &doc, nil
}
