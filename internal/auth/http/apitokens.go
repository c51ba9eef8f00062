package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// APITokensHandler serves POST /api/tokens. The plaintext token appears in
// the 201 response and is not recoverable afterwards.
type APITokensHandler struct {
	APITokenService *service.APITokenService
}

func (h *APITokensHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.MintAPITokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token, plaintext, err := h.APITokenService.Mint(ctx, service.MintAPITokenRequest{
		Name:           req.Name,
		LimitPerMinute: req.LimitPerMinute,
		LimitPerHour:   req.LimitPerHour,
		LimitPerDay:    req.LimitPerDay,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("api token mint failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.MintAPITokenResponse{
		ID:             token.ID,
		Name:           token.Name,
		Token:          plaintext,
		LimitPerMinute: token.LimitPerMinute,
		LimitPerHour:   token.LimitPerHour,
		LimitPerDay:    token.LimitPerDay,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, response)
}
