package authflow

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpx "github.com/castward/castlink/internal/http"
	svc "github.com/castward/castlink/internal/http/services/authflow"
	"github.com/castward/castlink/internal/observability/logger"
	"github.com/castward/castlink/internal/session"
)

// StartController handles the start endpoint of the authorization flow.
type StartController struct {
	service svc.StartService
	baseURL string
	secure  bool
}

// NewStartController creates a new StartController.
func NewStartController(service svc.StartService, baseURL string, secure bool) *StartController {
	return &StartController{service: service, baseURL: baseURL, secure: secure}
}

// Start handles GET /v1/auth/{provider}/start?mode=login|link
func (c *StartController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("StartController.Start"))

	provider := chi.URLParam(r, "provider")
	mode := svc.Mode(strings.TrimSpace(r.URL.Query().Get("mode")))
	if mode == "" {
		mode = svc.ModeLogin
	}

	accountID := ""
	if info, ok := httpx.SessionFrom(ctx); ok {
		accountID = info.AccountID
	}
	if mode == svc.ModeLink && accountID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "link requires login", 1401)
		return
	}

	result, err := c.service.Start(ctx, svc.StartRequest{
		Provider:  provider,
		Mode:      mode,
		AccountID: accountID,
		BaseURL:   c.baseURL,
	})
	if err != nil {
		switch err {
		case svc.ErrStartProviderUnknown:
			httpx.WriteError(w, http.StatusNotFound, "unknown_provider", "unknown provider", 1404)
		case svc.ErrStartInvalidMode:
			httpx.WriteError(w, http.StatusBadRequest, "invalid_mode", "mode must be login or link", 1102)
		case svc.ErrStartNotAuthenticated:
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "link requires login", 1401)
		default:
			log.Error("start failed", logger.Provider(provider), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not start flow", 1500)
		}
		return
	}

	session.SetAttempt(w, result.AttemptID, svc.AttemptTTL, c.secure)
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
