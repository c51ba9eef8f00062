package http

import (
	"net/http"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/jwtx"
)

// DiscoveryHandler serves the server metadata document. The same document
// answers both the RFC 8414 path and the OpenID Connect discovery path.
func DiscoveryHandler(discovery *service.DiscoveryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, discovery.Metadata())
	}
}

// JWKSHandler exposes the JSON Web Key Set for public key discovery.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.PublicJWKS()))
	}
}
