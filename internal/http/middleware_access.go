package http

import (
	"context"
	"net/http"

	"github.com/castward/castlink/internal/access"
	"github.com/castward/castlink/internal/session"
)

type sessionCtxKey struct{}

// SessionInfo is the parsed primary session attached to the request context.
type SessionInfo struct {
	AccountID string
	Role      string
}

// SessionFrom returns the primary session, if the request carries one.
func SessionFrom(ctx context.Context) (*SessionInfo, bool) {
	v, ok := ctx.Value(sessionCtxKey{}).(*SessionInfo)
	return v, ok
}

// WithSession parses the session cookie when present. Invalid or expired
// tokens leave the request anonymous; gates downstream decide what that means.
func WithSession(next http.Handler, mgr *session.Manager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(session.SessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := mgr.Parse(c.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		info := &SessionInfo{AccountID: claims.Subject, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, info)))
	})
}

// RequireSession rejects anonymous requests.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFrom(r.Context()); !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "session required", 1401)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates on a live role read: the threshold compares against the
// current stored role, not the one frozen into the session token.
func RequireRole(next http.Handler, eval *access.Evaluator, min access.Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := SessionFrom(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "session required", 1401)
			return
		}
		role := eval.Role(r.Context(), info.AccountID)
		if !role.AtLeast(min) {
			WriteError(w, http.StatusForbidden, "forbidden", "insufficient role", 1403)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates on the admin role exactly. A role above the streamer
// threshold is not enough here.
func RequireAdmin(next http.Handler, eval *access.Evaluator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, ok := SessionFrom(r.Context())
		if !ok {
			WriteError(w, http.StatusUnauthorized, "unauthorized", "session required", 1401)
			return
		}
		role := eval.Role(r.Context(), info.AccountID)
		if !access.CanAccessAdminPanel(role) {
			WriteError(w, http.StatusForbidden, "forbidden", "admin only", 1403)
			return
		}
		next.ServeHTTP(w, r)
	})
}
