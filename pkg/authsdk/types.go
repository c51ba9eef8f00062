package authsdk

import (
	"time"

	"github.com/keyfold/keyfold/pkg/jwtx"
)

// ErrorResponse represents a standard OAuth2 error response per RFC 6749.
// This is used internally for parsing HTTP error responses. Client code
// should use the OAuth2Error type from errors.go instead.
type ErrorResponse struct {
	// Error is the OAuth2 error code (e.g., "invalid_request", "invalid_grant")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// TokenResponse represents the OAuth2 token endpoint response per RFC 6749.
// This is returned from the POST /oauth2/token endpoint for all grant types.
type TokenResponse struct {
	// AccessToken is the JWT access token used to authenticate API requests
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque refresh token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`

	// IDToken is the OpenID Connect ID token, present when "openid" was granted
	IDToken string `json:"id_token,omitempty"`

	// TokenType is always "Bearer" per OAuth2 spec
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in"`

	// Scope is the space-delimited list of scopes granted to this token
	Scope string `json:"scope,omitempty"`
}

// IntrospectionResponse represents the RFC 7662 token introspection response.
// When a token is inactive, only the Active field is populated.
type IntrospectionResponse struct {
	Active bool `json:"active"`

	Scope     string   `json:"scope,omitempty"`
	ClientID  string   `json:"client_id,omitempty"`
	TokenType string   `json:"token_type,omitempty"`
	Exp       int64    `json:"exp,omitempty"`
	Iat       int64    `json:"iat,omitempty"`
	Sub       string   `json:"sub,omitempty"`
	Aud       []string `json:"aud,omitempty"`
	Iss       string   `json:"iss,omitempty"`
	Jti       string   `json:"jti,omitempty"`
}

// RevocationResponse acknowledges a revocation request. Revocation is
// idempotent; the response never reveals whether the token existed.
type RevocationResponse struct {
	Status string `json:"status"`
}

// RegisterClientRequest represents the request to register an OAuth2 client.
// Field names follow RFC 7591 where they overlap.
type RegisterClientRequest struct {
	// Name is the human-readable name for the client
	Name string `json:"client_name"`

	// RedirectURIs is the exact-match allow list for authorization redirects
	RedirectURIs []string `json:"redirect_uris"`

	// GrantTypes lists the grants this client may use; defaults to
	// authorization_code and refresh_token when omitted
	GrantTypes []string `json:"grant_types,omitempty"`

	// ResponseTypes lists the response types this client may request
	ResponseTypes []string `json:"response_types,omitempty"`

	// Scopes is the list of scopes this client is authorized to grant
	Scopes []string `json:"scopes,omitempty"`

	// TenantID optionally pins the client to a tenant
	TenantID string `json:"tenant_id,omitempty"`
}

// RegisterClientResponse contains the registered client's credentials.
// The secret is plaintext and returned exactly once.
type RegisterClientResponse struct {
	ClientID      string    `json:"client_id"`
	ClientSecret  string    `json:"client_secret"`
	Name          string    `json:"client_name"`
	RedirectURIs  []string  `json:"redirect_uris"`
	GrantTypes    []string  `json:"grant_types"`
	ResponseTypes []string  `json:"response_types"`
	Scopes        []string  `json:"scopes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// AuthorizeResponse contains the authorization code issued by the
// authorization endpoint along with the redirect target.
type AuthorizeResponse struct {
	Code        string `json:"code"`
	State       string `json:"state,omitempty"`
	RedirectURI string `json:"redirect_uri"`
}

// UserInfoResponse represents the OpenID Connect UserInfo response.
// Returned from GET /oauth2/userinfo for a valid access token.
type UserInfoResponse struct {
	// Sub is the subject identifier the access token was issued for
	Sub string `json:"sub"`

	Email string `json:"email,omitempty"`
	// EmailVerified serializes even when false so clients can tell
	// "unverified" apart from "unknown".
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
	Department    string `json:"department,omitempty"`
	Organization  string `json:"organization,omitempty"`
}

// MintAPITokenRequest represents a request to mint a gateway API token.
// Zero limits inherit the server defaults.
type MintAPITokenRequest struct {
	Name           string `json:"name"`
	LimitPerMinute int64  `json:"limit_per_minute,omitempty"`
	LimitPerHour   int64  `json:"limit_per_hour,omitempty"`
	LimitPerDay    int64  `json:"limit_per_day,omitempty"`
}

// MintAPITokenResponse contains the minted gateway token. The token value
// is plaintext and returned exactly once.
type MintAPITokenResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Token          string `json:"token"`
	LimitPerMinute int64  `json:"limit_per_minute"`
	LimitPerHour   int64  `json:"limit_per_hour"`
	LimitPerDay    int64  `json:"limit_per_day"`
}

// PingResponse is the sample gateway resource's response. TokenName echoes
// the name of the API token that authenticated the request.
type PingResponse struct {
	Status    string `json:"status"`
	TokenName string `json:"token_name,omitempty"`
}

// HealthResponse represents the response structure for health check
// endpoints. Used by both /livez and /readyz; readyz adds the Checks field.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Store indicates the KV store connection status
	Store string `json:"store"`

	// Signer indicates the JWT signing capability status
	Signer string `json:"signer"`
}

// JWKSResponse contains the JSON Web Key Set returned from the
// GET /.well-known/jwks.json endpoint.
type JWKSResponse jwtx.JWKS

// DiscoveryResponse is the server metadata document served at the
// well-known discovery endpoints.
type DiscoveryResponse struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	UserinfoEndpoint                  string   `json:"userinfo_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint"`
	RevocationEndpoint                string   `json:"revocation_endpoint"`
	ScopesSupported                   []string `json:"scopes_supported"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	SubjectTypesSupported             []string `json:"subject_types_supported"`
	IDTokenSigningAlgValuesSupported  []string `json:"id_token_signing_alg_values_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	ClaimsSupported                   []string `json:"claims_supported"`
}
