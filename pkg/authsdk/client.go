// Package authsdk is a small client for the Keyfold authorization server.
// It covers the OAuth2 endpoints (token, introspection, revocation), the
// discovery and JWKS documents, and the health probes. Server handlers share
// the response types and OAuth2Error values defined here, so the wire shapes
// cannot drift between the two sides.
package authsdk

import (
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the Keyfold authorization server. Calls that hit
// protected endpoints take the bearer token explicitly; the SDK does not
// manage sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a client for the server at baseURL.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}
