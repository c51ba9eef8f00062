package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// TokenHandler serves POST /oauth2/token.
// Accepts application/x-www-form-urlencoded per the RFC 6749 framework.
// Client credentials come from the form body or HTTP Basic auth.
type TokenHandler struct {
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	switch r.Form.Get("grant_type") {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, r.Form)
	case "client_credentials":
		h.handleClientCredentialsGrant(w, r, r.Form)
	default:
		authsdk.ErrUnsupportedGrantType.WriteError(w)
	}
}

func (h *TokenHandler) handleAuthorizationCodeGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret := clientCredentials(r, form)
	code := strings.TrimSpace(form.Get("code"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	codeVerifier := strings.TrimSpace(form.Get("code_verifier"))

	if code == "" || redirectURI == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeAuthorizationCode(ctx, clientID, clientSecret, code, redirectURI, codeVerifier)
	if err != nil {
		writeGrantError(w, log, "authorization_code", err)
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, form url.Values) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret := clientCredentials(r, form)
	refresh := form.Get("refresh_token")
	requested := httpx.ParseSpaceDelimitedFields(strings.TrimSpace(form.Get("scope")))

	if refresh == "" || clientID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(ctx, clientID, clientSecret, refresh, requested)
	if err != nil {
		writeGrantError(w, log, "refresh_token", err)
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handleClientCredentialsGrant(
	w http.ResponseWriter,
	r *http.Request,
	form url.Values,
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret := clientCredentials(r, form)
	requested := httpx.ParseSpaceDelimitedFields(strings.TrimSpace(form.Get("scope")))

	if clientID == "" || clientSecret == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeClientCredentials(ctx, clientID, clientSecret, requested)
	if err != nil {
		writeGrantError(w, log, "client_credentials", err)
		return
	}

	writeTokenResponse(w, pair)
}

// clientCredentials pulls client_id and client_secret from the form body,
// falling back to HTTP Basic auth per RFC 6749 section 2.3.1.
func clientCredentials(r *http.Request, form url.Values) (string, string) {
	clientID := strings.TrimSpace(form.Get("client_id"))
	clientSecret := form.Get("client_secret")
	if clientID == "" && clientSecret == "" {
		if id, secret, ok := r.BasicAuth(); ok {
			return strings.TrimSpace(id), secret
		}
	}
	return clientID, clientSecret
}

func writeGrantError(w http.ResponseWriter, log *slog.Logger, grant string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidClient):
		authsdk.ErrInvalidClient.WriteError(w)
	case errors.Is(err, service.ErrInvalidGrant):
		authsdk.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		authsdk.ErrInvalidScope.WriteError(w)
	case errors.Is(err, service.ErrUnauthorizedClient):
		authsdk.ErrUnauthorizedClient.WriteError(w)
	default:
		log.Error("grant exchange failed", "grant_type", grant, "err", err)
		authsdk.ErrServerError.WriteError(w)
	}
}

func writeTokenResponse(w http.ResponseWriter, pair *domain.TokenPair) {
	response := authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		IDToken:      pair.IDToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
		Scope:        strings.TrimSpace(pair.Scope),
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
