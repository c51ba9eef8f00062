package service

import "strings"

// ServerMetadata is the discovery document served at the well-known
// endpoints, covering both RFC 8414 and the OpenID Connect discovery
// profile. The same document answers both paths.
type ServerMetadata struct {
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

// DiscoveryService builds the static discovery document from the configured
// issuer and the signing algorithm in use.
type DiscoveryService struct {
	Issuer          string
	SigningAlgs     []string
	ScopesSupported []string
}

// Metadata assembles the discovery document. Endpoint URLs are derived from
// the issuer so the document stays consistent with the mount points in the
// router.
func (s *DiscoveryService) Metadata() ServerMetadata {
	base := strings.TrimRight(s.Issuer, "/")

	scopes := s.ScopesSupported
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}

	return ServerMetadata{
		Issuer:                base,
		AuthorizationEndpoint: base + "/oauth2/authorize",
		TokenEndpoint:         base + "/oauth2/token",
		UserinfoEndpoint:      base + "/oauth2/userinfo",
		JWKSURI:               base + "/.well-known/jwks.json",
		RegistrationEndpoint:  base + "/oauth2/register",
		IntrospectionEndpoint: base + "/oauth2/introspect",
		RevocationEndpoint:    base + "/oauth2/revoke",
		ScopesSupported:       scopes,
		ResponseTypesSupported: []string{
			"code",
		},
		GrantTypesSupported: []string{
			"authorization_code",
			"refresh_token",
			"client_credentials",
		},
		TokenEndpointAuthMethodsSupported: []string{
			"client_secret_post",
			"client_secret_basic",
		},
		SubjectTypesSupported:            []string{"public"},
		IDTokenSigningAlgValuesSupported: s.SigningAlgs,
		CodeChallengeMethodsSupported:    []string{"plain", "S256"},
		ClaimsSupported: []string{
			"iss", "sub", "aud", "exp", "iat", "jti",
			"scopes", "nonce", "email", "email_verified", "name", "tenant_id",
		},
	}
}
