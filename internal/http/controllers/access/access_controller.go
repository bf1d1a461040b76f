package access

import (
	"net/http"

	"github.com/castward/castlink/internal/access"
	httpx "github.com/castward/castlink/internal/http"
	"github.com/castward/castlink/internal/identity"
	sess "github.com/castward/castlink/internal/session"
)

// Controller exposes the access evaluator over HTTP.
type Controller struct {
	eval *access.Evaluator
}

// NewController creates a new access Controller.
func NewController(eval *access.Evaluator) *Controller {
	return &Controller{eval: eval}
}

// resolvedIdentity resolves the hybrid identity from the request. The empty
// string means anonymous.
func resolvedIdentity(r *http.Request) string {
	primary := ""
	if info, ok := httpx.SessionFrom(r.Context()); ok {
		primary = info.AccountID
	}
	rawSecondary := ""
	if cookie, err := r.Cookie(sess.ClientStateCookie); err == nil {
		rawSecondary = cookie.Value
	}
	if id, ok := identity.Resolve(primary, rawSecondary); ok {
		return id.ID
	}
	return ""
}

// Role handles GET /v1/access/role. Anonymous callers read as the lowest
// role, same as any failed lookup.
func (c *Controller) Role(w http.ResponseWriter, r *http.Request) {
	id := resolvedIdentity(r)
	role := access.RoleUnverified
	if id != "" {
		role = c.eval.Role(r.Context(), id)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"role":           role.String(),
		"streamer_panel": access.CanAccessStreamerPanel(role),
		"admin_panel":    access.CanAccessAdminPanel(role),
	})
}

// Features handles GET /v1/access/features: the full feature map for the
// resolved identity. Absent or failed features read as false.
func (c *Controller) Features(w http.ResponseWriter, r *http.Request) {
	id := resolvedIdentity(r)
	features := access.FeatureMap{}
	if id != "" {
		features = c.eval.FeatureAccess(r.Context(), id)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"features": features})
}

// StreamerPanel handles GET /v1/panels/streamer behind the threshold gate.
func (c *Controller) StreamerPanel(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"panel": "streamer"})
}

// AdminPanel handles GET /v1/panels/admin behind the exact-match gate.
func (c *Controller) AdminPanel(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"panel": "admin"})
}
