package http

import (
	"net/http"
	"strings"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// RevokeHandler serves POST /oauth2/revoke following RFC 7009. Refresh
// tokens are deleted; access tokens get a revocation marker for their
// remaining lifetime. Unknown or invalid tokens still return 200 OK to
// prevent token scanning.
type RevokeHandler struct {
	TokenService *service.TokenService
}

func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	if token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.TokenService.Revoke(ctx, token); err != nil {
		// The response stays 200 regardless; revocation is best effort from
		// the caller's point of view.
		log.Warn("revocation failed", "err", err)
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevocationResponse{Status: "revoked"})
}
