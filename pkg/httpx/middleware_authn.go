package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/keyfold/keyfold/pkg/cryptox"
	"github.com/keyfold/keyfold/pkg/jwtx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// RevocationChecker reports whether a token fingerprint has a revocation
// marker. Every bearer verification path must consult it so revoked access
// tokens stop working before they expire.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, fingerprint string) (bool, error)
}

// AuthnMiddleware verifies the bearer access token on the request. Signature
// and claim checks come first, then the revocation marker lookup. A nil
// checker skips the revocation step.
func AuthnMiddleware(v jwtx.Verifier, revocations RevocationChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.Verify(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			if err := claims.ValidateExpiry(); err != nil {
				writeBearerError(w, "token expired")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, cryptox.FingerprintToken(raw))
				if err != nil {
					log.Error("revocation lookup failed", "err", err)
					writeBearerError(w, "token verification failed")
					return
				}
				if revoked {
					writeBearerError(w, "token revoked")
					return
				}
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyScopes, c.Scopes)
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// RFC 6750-compliant error response for bearer auth. The JSON body carries
// the same error code as the challenge header so API clients do not have to
// parse WWW-Authenticate.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	NoCache(w)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
