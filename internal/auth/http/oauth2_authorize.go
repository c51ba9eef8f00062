package http

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// AuthorizeHandler serves GET /oauth2/authorize.
//
// The resource owner authenticates with a Bearer token upstream of this
// handler; their subject comes from the request context. On success the
// handler redirects to the validated redirect_uri with code and state in the
// query. Callers that accept application/json get the same values as a JSON
// body instead, which is what the SDK uses.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	q := r.URL.Query()
	req := service.AuthorizeRequest{
		ResponseType:        q.Get("response_type"),
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		Scope:               httpx.ParseSpaceDelimitedFields(strings.TrimSpace(q.Get("scope"))),
		State:               q.Get("state"),
		Nonce:               q.Get("nonce"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		UserID:              userID,
	}

	res, err := h.AuthorizeService.IssueAuthorizationCode(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedResponseType):
			authsdk.ErrUnsupportedResponseType.WriteError(w)
		case errors.Is(err, service.ErrInvalidRequest):
			authsdk.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidClient):
			authsdk.ErrInvalidClient.WriteError(w)
		default:
			log.Error("authorization code issuance failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		httpx.NoCache(w)
		httpx.WriteJSON(w, http.StatusOK, authsdk.AuthorizeResponse{
			Code:        res.Code,
			State:       res.State,
			RedirectURI: res.RedirectURI,
		})
		return
	}

	// The redirect URI was validated against the client registration, so
	// appending to its query is safe.
	location, err := url.Parse(res.RedirectURI)
	if err != nil {
		log.Error("stored redirect uri failed to parse", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}
	params := location.Query()
	params.Set("code", res.Code)
	if res.State != "" {
		params.Set("state", res.State)
	}
	location.RawQuery = params.Encode()

	httpx.NoCache(w)
	http.Redirect(w, r, location.String(), http.StatusFound)
}
