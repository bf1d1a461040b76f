package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/castward/castlink/internal/access"
	"github.com/castward/castlink/internal/session"
)

// Controllers agrupa los controladores que el router monta.
type Controllers struct {
	Start    http.HandlerFunc
	Callback http.HandlerFunc
	Unlink   http.HandlerFunc

	Session http.HandlerFunc
	Logout  http.HandlerFunc

	Role     http.HandlerFunc
	Features http.HandlerFunc

	StreamerPanel http.HandlerFunc
	AdminPanel    http.HandlerFunc

	AdminSetRole http.HandlerFunc

	Healthz http.HandlerFunc
	Readyz  http.HandlerFunc
}

// RouterDeps contiene las dependencias del router.
type RouterDeps struct {
	Controllers Controllers
	Sessions    *session.Manager
	Evaluator   *access.Evaluator
	Registry    *prometheus.Registry
	CORSOrigins []string
}

// NewRouter arma el router chi con el middleware chain completo.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	metricsHandler := RegisterMetrics(deps.Registry)

	r.Get("/healthz", deps.Controllers.Healthz)
	r.Get("/readyz", deps.Controllers.Readyz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/auth/{provider}/start", deps.Controllers.Start)
		r.Get("/auth/{provider}/callback", deps.Controllers.Callback)

		r.With(RequireSession).Delete("/links/{kind}", deps.Controllers.Unlink)

		r.Get("/session", deps.Controllers.Session)
		r.Post("/session/logout", deps.Controllers.Logout)

		r.Get("/access/role", deps.Controllers.Role)
		r.Get("/access/features", deps.Controllers.Features)

		r.With(func(next http.Handler) http.Handler {
			return RequireRole(next, deps.Evaluator, access.RoleStreamer)
		}).Get("/panels/streamer", deps.Controllers.StreamerPanel)

		r.With(func(next http.Handler) http.Handler {
			return RequireAdmin(next, deps.Evaluator)
		}).Get("/panels/admin", deps.Controllers.AdminPanel)

		r.With(func(next http.Handler) http.Handler {
			return RequireAdmin(next, deps.Evaluator)
		}).Post("/admin/accounts/{id}/role", deps.Controllers.AdminSetRole)
	})

	// Chain exterior: request-id primero para que todo lo demás loguee con él.
	var h http.Handler = r
	h = WithSession(h, deps.Sessions)
	h = WithMetrics(h)
	h = WithLogging(h)
	h = WithRecover(h)
	h = WithSecurityHeaders(h)
	h = WithCORS(h, deps.CORSOrigins)
	h = WithRequestID(h)
	return h
}

// routePattern reduce la cardinalidad de métricas usando el patrón chi en
// lugar del path literal.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
