package authflow

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/castward/castlink/internal/domain/repository"
	httpx "github.com/castward/castlink/internal/http"
	svc "github.com/castward/castlink/internal/http/services/authflow"
	"github.com/castward/castlink/internal/identity"
	"github.com/castward/castlink/internal/oauth"
	"github.com/castward/castlink/internal/observability/logger"
	"github.com/castward/castlink/internal/session"
)

// CallbackController finishes the authorization flow. All failures redirect
// to the configured failure page; a user landing here never sees raw JSON.
type CallbackController struct {
	service    svc.CallbackService
	sessions   *session.Manager
	baseURL    string
	successURL string
	failureURL string
	secure     bool
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(service svc.CallbackService, sessions *session.Manager, baseURL, successURL, failureURL string, secure bool) *CallbackController {
	return &CallbackController{
		service:    service,
		sessions:   sessions,
		baseURL:    baseURL,
		successURL: successURL,
		failureURL: failureURL,
		secure:     secure,
	}
}

// Callback handles GET /v1/auth/{provider}/callback
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	provider := chi.URLParam(r, "provider")
	q := r.URL.Query()

	attemptID := ""
	if cookie, err := r.Cookie(session.AttemptCookie); err == nil {
		attemptID = cookie.Value
	}

	result, err := c.service.Callback(ctx, svc.CallbackRequest{
		Provider:      provider,
		AttemptID:     attemptID,
		Code:          strings.TrimSpace(q.Get("code")),
		State:         strings.TrimSpace(q.Get("state")),
		ProviderError: strings.TrimSpace(q.Get("error")),
		BaseURL:       c.baseURL,
		ClientIP:      httpx.ClientIP(r),
		UserAgent:     r.UserAgent(),
	})

	// The attempt is single-use either way.
	session.ClearAttempt(w, c.secure)

	if err != nil {
		code := mapCallbackError(err)
		log.Warn("callback failed",
			logger.Provider(provider),
			logger.String("error_code", code),
			logger.Err(err),
		)
		c.redirectFailure(w, r, provider, code)
		return
	}

	if result.Mode == svc.ModeLogin {
		token, err := c.sessions.Issue(result.Account.ID, result.Account.Role)
		if err != nil {
			log.Error("session issue failed", logger.Err(err))
			c.redirectFailure(w, r, provider, "session_error")
			return
		}
		session.SetSession(w, token, c.sessions.TTL(), c.secure)
	}

	// A chat identity (login or link) refreshes the browser-readable half
	// session that feeds hybrid resolution.
	if result.Account.Chat != nil && repository.ProviderKind(provider) == repository.KindChat {
		cs := identity.EncodeClientState(identity.ClientState{
			ID:            result.Account.Chat.ID,
			Username:      result.Account.Chat.Username,
			Authenticated: true,
		})
		session.SetClientState(w, cs, 30*24*time.Hour, c.secure)
	}

	http.Redirect(w, r, c.successURL, http.StatusFound)
}

func (c *CallbackController) redirectFailure(w http.ResponseWriter, r *http.Request, provider, code string) {
	u, err := url.Parse(c.failureURL)
	if err != nil {
		httpx.WriteError(w, http.StatusBadGateway, code, "authorization failed", 1502)
		return
	}
	qs := u.Query()
	qs.Set("provider", provider)
	qs.Set("error", code)
	u.RawQuery = qs.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// mapCallbackError flattens the service error surface to the short codes the
// failure page understands.
func mapCallbackError(err error) string {
	if ee, ok := oauth.AsExchangeError(err); ok {
		switch ee.Reason {
		case oauth.ReasonCodeAlreadyUsed:
			return "code_already_used"
		case oauth.ReasonPkceMismatch:
			return "pkce_mismatch"
		default:
			return "upstream_rejected"
		}
	}
	switch {
	case errors.Is(err, svc.ErrStateMismatch):
		return "state_mismatch"
	case errors.Is(err, svc.ErrAttemptExpired):
		return "attempt_expired"
	case errors.Is(err, svc.ErrMissingCode):
		return "missing_code"
	case errors.Is(err, svc.ErrProviderDenied):
		return "provider_denied"
	case errors.Is(err, svc.ErrProviderMismatch):
		return "provider_mismatch"
	case errors.Is(err, svc.ErrNotAuthenticated):
		return "not_authenticated"
	case errors.Is(err, svc.ErrStartProviderUnknown):
		return "unknown_provider"
	default:
		return "internal_error"
	}
}
