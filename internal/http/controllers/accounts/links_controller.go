package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/castward/castlink/internal/domain/repository"
	httpx "github.com/castward/castlink/internal/http"
	svc "github.com/castward/castlink/internal/http/services/accounts"
	"github.com/castward/castlink/internal/observability/logger"
	"github.com/castward/castlink/internal/session"
)

// LinksController exposes unlink over HTTP. Linking always goes through the
// authorization flow; there is no direct link endpoint.
type LinksController struct {
	service svc.LinkService
	secure  bool
}

// NewLinksController creates a new LinksController.
func NewLinksController(service svc.LinkService, secure bool) *LinksController {
	return &LinksController{service: service, secure: secure}
}

// Unlink handles DELETE /v1/links/{kind}
func (c *LinksController) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LinksController.Unlink"))

	info, ok := httpx.SessionFrom(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "session required", 1401)
		return
	}

	kind := repository.ProviderKind(chi.URLParam(r, "kind"))
	if err := c.service.Unlink(ctx, info.AccountID, kind); err != nil {
		switch err {
		case svc.ErrLinkUnknownKind:
			httpx.WriteError(w, http.StatusNotFound, "unknown_kind", "unknown identity kind", 1404)
		default:
			log.Error("unlink failed", logger.String("kind", string(kind)), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not unlink", 1500)
		}
		return
	}

	// Dropping the chat link also invalidates the browser half session.
	if kind == repository.KindChat {
		session.ClearClientState(w, c.secure)
	}

	w.WriteHeader(http.StatusNoContent)
}
