package http

import (
	"net/http"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
)

// UserInfoHandler serves GET /oauth2/userinfo. The subject comes from the
// verified access token in the request context; unknown subjects still get a
// response carrying just the sub claim.
type UserInfoHandler struct {
	UserService *service.UserService
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := ctx.Value(httpx.CtxKeyUserID).(string)
	if !ok || userID == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user := h.UserService.GetProfile(ctx, userID)

	response := authsdk.UserInfoResponse{
		Sub:           user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Name:          user.Name,
		Role:          user.Role,
		TenantID:      user.TenantID,
		Department:    user.Department,
		Organization:  user.Organization,
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, response)
}
