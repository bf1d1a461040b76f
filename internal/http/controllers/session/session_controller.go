package session

import (
	"net/http"

	"github.com/castward/castlink/internal/domain/repository"
	httpx "github.com/castward/castlink/internal/http"
	"github.com/castward/castlink/internal/identity"
	"github.com/castward/castlink/internal/observability/logger"
	sess "github.com/castward/castlink/internal/session"
)

// Controller exposes the resolved session identity and logout.
type Controller struct {
	accounts repository.AccountRepository
	secure   bool
}

// NewController creates a new session Controller.
func NewController(accounts repository.AccountRepository, secure bool) *Controller {
	return &Controller{accounts: accounts, secure: secure}
}

type sessionResponse struct {
	Authenticated bool                      `json:"authenticated"`
	Identity      *identity.SessionIdentity `json:"identity,omitempty"`
	Account       *accountView              `json:"account,omitempty"`
	ChatUsername  string                    `json:"chat_username,omitempty"`
}

type accountView struct {
	ID      string        `json:"id"`
	Role    string        `json:"role"`
	Chat    *identityView `json:"chat,omitempty"`
	Twitter *identityView `json:"twitter,omitempty"`
	Discord *identityView `json:"discord,omitempty"`
}

type identityView struct {
	ID          string `json:"id"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func viewOf(li *repository.LinkedIdentity) *identityView {
	if li == nil {
		return nil
	}
	return &identityView{
		ID:          li.ID,
		Username:    li.Username,
		DisplayName: li.DisplayName,
		AvatarURL:   li.AvatarURL,
	}
}

// Get handles GET /v1/session: the hybrid identity view. Anonymous is a
// normal answer here, not an error.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Get"))

	primary := ""
	if info, ok := httpx.SessionFrom(ctx); ok {
		primary = info.AccountID
	}
	rawSecondary := ""
	if cookie, err := r.Cookie(sess.ClientStateCookie); err == nil {
		rawSecondary = cookie.Value
	}

	id, ok := identity.Resolve(primary, rawSecondary)
	if !ok {
		httpx.WriteJSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}

	resp := sessionResponse{Authenticated: true, Identity: &id}

	if id.Kind == identity.KindPrimary {
		account, err := c.accounts.GetByID(ctx, id.ID)
		if err != nil {
			if !repository.IsNotFound(err) {
				log.Warn("account load failed", logger.Err(err))
			}
		} else {
			resp.Account = &accountView{
				ID:      account.ID,
				Role:    account.Role,
				Chat:    viewOf(account.Chat),
				Twitter: viewOf(account.Twitter),
				Discord: viewOf(account.Discord),
			}
		}
	} else if cs, ok := identity.DecodeClientState(rawSecondary); ok {
		resp.ChatUsername = cs.Username
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}

// Logout handles POST /v1/session/logout. Clears both halves.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	sess.ClearSession(w, c.secure)
	sess.ClearClientState(w, c.secure)
	w.WriteHeader(http.StatusNoContent)
}
