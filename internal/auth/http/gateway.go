package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/keyfold/keyfold/internal/auth/domain"
	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/pkg/authsdk"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

type gatewayCtxKey struct{}

// GatewayTokenFromContext returns the API token record the gateway
// middleware authenticated for this request.
func GatewayTokenFromContext(ctx context.Context) (domain.APIToken, bool) {
	t, ok := ctx.Value(gatewayCtxKey{}).(domain.APIToken)
	return t, ok
}

// GatewayMiddleware authenticates the opaque bearer token and enforces its
// fixed-window limits. Unknown tokens get 401; exhausted windows get 429
// with Retry-After set to the window's remaining seconds.
func GatewayMiddleware(tokens *service.APITokenService, limiter *service.RateLimitService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerToken(r)
			if raw == "" {
				authsdk.ErrInvalidToken.WriteError(w)
				return
			}

			token, err := tokens.Authenticate(ctx, raw)
			if err != nil {
				if errors.Is(err, service.ErrInvalidAPIToken) {
					authsdk.ErrInvalidToken.WriteError(w)
					return
				}
				log.Error("gateway token lookup failed", "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			decision, err := limiter.Check(ctx, token)
			if err != nil {
				log.Error("rate limit check failed", "token_id", token.ID, "err", err)
				authsdk.ErrServerError.WriteError(w)
				return
			}

			// Quota headers go on every limited response, allowed or not.
			if decision.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
				w.Header().Set("X-RateLimit-Window", decision.Window)
			}

			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				authsdk.NewOAuth2Error(
					http.StatusTooManyRequests,
					"rate_limited",
					"request rate limit exceeded for the "+decision.Window+" window",
				).WriteError(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, gatewayCtxKey{}, token)))
		})
	}
}

// PingHandler is the sample gateway-protected resource.
func PingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "pong"}
		if token, ok := GatewayTokenFromContext(r.Context()); ok {
			body["token_name"] = token.Name
		}
		httpx.WriteJSON(w, http.StatusOK, body)
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
