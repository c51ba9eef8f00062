package http

import (
	"net/http"
	"strings"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// IntrospectHandler serves POST /oauth2/introspect following RFC 7662.
// Dead tokens of any kind get {"active":false}; the endpoint never explains
// why a token is inactive.
type IntrospectHandler struct {
	TokenService *service.TokenService
}

func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	tokenTypeHint := r.Form.Get("token_type_hint")

	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	result, err := h.TokenService.Introspect(ctx, token, tokenTypeHint)
	if err != nil {
		// Infra failure. Claiming the token is inactive here would let a
		// store outage silently kill valid tokens downstream.
		log.Error("introspection failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	if !result.Active {
		writeInactiveResponse(w)
		return
	}

	response := authsdk.IntrospectionResponse{
		Active:    true,
		Scope:     result.Scope,
		ClientID:  result.ClientID,
		TokenType: result.TokenType,
		Exp:       result.ExpiresAt,
		Iat:       result.IssuedAt,
		Sub:       result.Subject,
		Aud:       result.Audience,
		Iss:       result.Issuer,
		Jti:       result.JTI,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}

// writeInactiveResponse returns the minimal RFC 7662 response for inactive
// tokens.
func writeInactiveResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"active":false}`))
}
