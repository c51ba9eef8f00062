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

// RegisterHandler serves POST /oauth2/register. The generated secret
// appears in the 201 response and nowhere else afterwards.
type RegisterHandler struct {
	ClientService *service.ClientService
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	client, secret, err := h.ClientService.RegisterClient(ctx, service.RegisterClientRequest{
		Name:          req.Name,
		RedirectURIs:  req.RedirectURIs,
		GrantTypes:    req.GrantTypes,
		ResponseTypes: req.ResponseTypes,
		Scopes:        req.Scopes,
		TenantID:      req.TenantID,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		log.Error("client registration failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	response := authsdk.RegisterClientResponse{
		ClientID:      client.ID,
		ClientSecret:  secret,
		Name:          client.Name,
		RedirectURIs:  client.RedirectURIs,
		GrantTypes:    client.GrantTypes,
		ResponseTypes: client.ResponseTypes,
		Scopes:        client.Scopes,
		CreatedAt:     client.CreatedAt,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, response)
}
