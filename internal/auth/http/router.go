package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/wrenauth/wren/internal/auth/service"
	"github.com/wrenauth/wren/internal/auth/store"
	"github.com/wrenauth/wren/pkg/httpx"
	"github.com/wrenauth/wren/pkg/slogx"

	_ "github.com/wrenauth/wren/api/wren" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router wires the token endpoint and operational routes onto a ServeMux with
// the shared middleware chain.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	TokenService *service.TokenService
}

func NewRouter(buildVersion string, st store.Store, ts *service.TokenService, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		TokenService: ts,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
//
//	@title			Wren Authorization Server API
//	@version		0.1.0
//	@description	OAuth2/OpenID Connect token endpoint built on the wren request-processing pipeline.
//
//	@contact.name	Wren Auth
//	@contact.url	https://github.com/wrenauth/wren
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerOAuth2()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

func (r *Router) registerOAuth2() {
	// The token handler owns the POST-only check: non-POST requests must get
	// the protocol error, not a mux 405, so the route is method-agnostic.
	tokenHandler := &TokenHandler{TokenService: r.TokenService}
	r.Mux.Handle("/v1/oauth2/token",
		httpx.Chain(tokenHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
