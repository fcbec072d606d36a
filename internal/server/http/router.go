package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hellomouse/pinboard-server/internal/server/service"
	"github.com/hellomouse/pinboard-server/internal/server/session"
	"github.com/hellomouse/pinboard-server/internal/server/store"
	"github.com/hellomouse/pinboard-server/pkg/httpx"
	"github.com/hellomouse/pinboard-server/pkg/slogx"
)

// CookieConfig describes the session cookie the login endpoint sets.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Router holds shared dependencies for HTTP handlers and applies the
// access-control sequencing: the rate limiter runs globally before any
// handler, login endpoints go through the attempt tracker inside
// AuthService, and protected endpoints sit behind the session
// middleware.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *session.Manager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	cookie       CookieConfig

	store       store.Store
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewRouter(
	limiter *httpx.RateLimiter,
	sessions *session.Manager,
	cookie CookieConfig,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		cookie:       cookie,
	}

	// Global chain: request logging wraps the rate limiter, which runs
	// before anything else looks at the request.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.RateLimitMiddleware(limiter, httpx.IPKeyExtractor),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerSystem()

	// Everything unmatched is a 404 with the uniform body.
	r.Mux.Handle("/", http.HandlerFunc(NotFoundHandler))
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	loginHandler := &LoginHandler{
		AuthService: r.AuthService,
		Cookie:      r.cookie,
	}
	r.Mux.Handle("POST /v1/login", loginHandler)

	logoutHandler := &LogoutHandler{Cookie: r.cookie}
	r.Mux.Handle("POST /v1/logout", logoutHandler)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}
	settings := &SettingsHandler{UserService: r.UserService}

	// Protected endpoints: session validation resolves the identity
	// before the handler runs.
	guard := httpx.SessionMiddleware(r.sessions, r.cookie.Name)

	r.Mux.Handle("GET /v1/users", httpx.Chain(http.HandlerFunc(h.HandleGet), guard))
	r.Mux.Handle("GET /v1/users/search", httpx.Chain(http.HandlerFunc(h.HandleSearch), guard))
	r.Mux.Handle("GET /v1/user_settings", httpx.Chain(http.HandlerFunc(settings.HandleGet), guard))
	r.Mux.Handle("PUT /v1/user_settings", httpx.Chain(http.HandlerFunc(settings.HandlePut), guard))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
