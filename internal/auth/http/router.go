package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/keyfold/keyfold/internal/auth/service"
	"github.com/keyfold/keyfold/internal/auth/store"
	"github.com/keyfold/keyfold/pkg/httpx"
	"github.com/keyfold/keyfold/pkg/jwtx"
	"github.com/keyfold/keyfold/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store *store.Store

	TokenService     *service.TokenService
	AuthorizeService *service.AuthorizeService
	ClientService    *service.ClientService
	UserService      *service.UserService
	APITokenService  *service.APITokenService
	RateLimitService *service.RateLimitService
	DiscoveryService *service.DiscoveryService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st *store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerWellKnown()
	r.registerGateway()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn builds the Bearer verification middleware. Access tokens are checked
// against revocation markers so a revoked token dies before its natural
// expiry.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, r.store.Revocations())
}

func (r *Router) registerOAuth2() {
	// POST /oauth2/register - strict rate limit by IP (open registration)
	registerHandler := &RegisterHandler{ClientService: r.ClientService}
	r.Mux.Handle("POST /oauth2/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// GET /oauth2/authorize - the resource owner proves their identity with
	// a Bearer token; lenient limit keyed by user
	authorizeHandler := &AuthorizeHandler{AuthorizeService: r.AuthorizeService}
	r.Mux.Handle("GET /oauth2/authorize",
		httpx.Chain(authorizeHandler,
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /oauth2/token - strict rate limit by IP (covers all grant types)
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /oauth2/introspect - moderate rate limit
	introspectHandler := &IntrospectHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth2/introspect",
		httpx.Chain(introspectHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /oauth2/revoke - moderate rate limit
	revokeHandler := &RevokeHandler{TokenService: r.TokenService}
	r.Mux.Handle("POST /oauth2/revoke",
		httpx.Chain(revokeHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /oauth2/userinfo - authenticated, lenient limit by user
	userinfoHandler := &UserInfoHandler{UserService: r.UserService}
	r.Mux.Handle("GET /oauth2/userinfo",
		httpx.Chain(userinfoHandler,
			r.authn(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerWellKnown() {
	discoveryHandler := DiscoveryHandler(r.DiscoveryService)

	// The same metadata document answers both well-known paths.
	r.Mux.Handle("GET /oauth2/.well-known/oauth-authorization-server",
		httpx.Chain(discoveryHandler,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/openid-configuration",
		httpx.Chain(discoveryHandler,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /.well-known/jwks.json",
		httpx.Chain(JWKSHandler(r.keys),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerGateway() {
	// POST /api/tokens - minting requires an admin-scoped access token
	mintHandler := &APITokensHandler{APITokenService: r.APITokenService}
	r.Mux.Handle("POST /api/tokens",
		httpx.Chain(mintHandler,
			r.authn(),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /api/ping - sample resource behind the gateway limiter
	r.Mux.Handle("GET /api/ping",
		httpx.Chain(PingHandler(),
			GatewayMiddleware(r.APITokenService, r.RateLimitService),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
