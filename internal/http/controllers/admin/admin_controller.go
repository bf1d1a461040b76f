package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpx "github.com/castward/castlink/internal/http"
	svc "github.com/castward/castlink/internal/http/services/accounts"
	"github.com/castward/castlink/internal/observability/logger"
)

// Controller exposes administrative account operations. The admin gate lives
// in middleware; handlers assume the caller already passed it.
type Controller struct {
	roles svc.RoleService
}

// NewController creates a new admin Controller.
func NewController(roles svc.RoleService) *Controller {
	return &Controller{roles: roles}
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRole handles POST /v1/admin/accounts/{id}/role
func (c *Controller) SetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.SetRole"))

	accountID := chi.URLParam(r, "id")
	var req setRoleRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}

	if err := c.roles.SetRole(ctx, accountID, req.Role); err != nil {
		switch err {
		case svc.ErrRoleUnknown:
			httpx.WriteError(w, http.StatusBadRequest, "unknown_role", "unknown role", 1102)
		case svc.ErrRoleAccountMissing:
			httpx.WriteError(w, http.StatusNotFound, "not_found", "account not found", 1404)
		default:
			log.Error("set role failed", logger.AccountID(accountID), logger.Err(err))
			httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "could not set role", 1500)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"id": accountID, "role": req.Role})
}
