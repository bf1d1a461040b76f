package health

import (
	"context"
	"net/http"
	"time"

	httpx "github.com/castward/castlink/internal/http"
)

// Pinger is anything whose liveness gates readiness (DB pool, cache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Controller serves liveness and readiness probes.
type Controller struct {
	deps map[string]Pinger
}

// NewController creates a health Controller. deps may be empty.
func NewController(deps map[string]Pinger) *Controller {
	return &Controller{deps: deps}
}

// Healthz handles GET /healthz: process liveness only.
func (c *Controller) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz handles GET /readyz: every dependency must answer.
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(c.deps))
	for name, p := range c.deps {
		if err := p.Ping(ctx); err != nil {
			checks[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	httpx.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}
