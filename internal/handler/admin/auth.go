package admin

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/handler"
	"github.com/attaboy/bonusvalue/internal/service"
)

// AccountService authenticates and registers admins.
type AccountService interface {
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	CreateAdmin(ctx context.Context, in service.CreateAdminInput) (*domain.AdminUser, error)
}

// TokenIssuer mints scoped ingest tokens.
type TokenIssuer interface {
	Generate(client string, scopes []string) (string, time.Time, error)
}

// AuthAdminHandler handles admin login, account creation and ingest tokens.
type AuthAdminHandler struct {
	accounts AccountService
	tokens   TokenIssuer
	logger   *slog.Logger
}

// NewAuthAdminHandler creates a new AuthAdminHandler. tokens may be nil when
// ingest tokens are not configured.
func NewAuthAdminHandler(accounts AccountService, tokens TokenIssuer, logger *slog.Logger) *AuthAdminHandler {
	return &AuthAdminHandler{accounts: accounts, tokens: tokens, logger: logger}
}

// Login handles POST /admin/login.
func (h *AuthAdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := handler.DecodeAndValidate(r, &in); err != nil {
		handler.RespondError(w, err)
		return
	}
	in.IP = handler.ClientIP(r)

	res, err := h.accounts.Login(r.Context(), in)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, res)
}

// CreateAdmin handles POST /admin/users.
func (h *AuthAdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var in service.CreateAdminInput
	if err := handler.DecodeAndValidate(r, &in); err != nil {
		handler.RespondError(w, err)
		return
	}

	user, err := h.accounts.CreateAdmin(r.Context(), in)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	h.logger.Info("admin account created", "by", auth.SubjectFromContext(r.Context()), "admin_id", user.ID)
	handler.RespondJSON(w, http.StatusCreated, user)
}

type ingestTokenRequest struct {
	Client string   `json:"client" validate:"required,max=64"`
	Scopes []string `json:"scopes,omitempty" validate:"omitempty,dive,oneof=offers:ingest"`
}

// IssueIngestToken handles POST /admin/ingest-tokens.
func (h *AuthAdminHandler) IssueIngestToken(w http.ResponseWriter, r *http.Request) {
	if h.tokens == nil {
		handler.RespondError(w, domain.ErrForbidden("ingest tokens are not configured"))
		return
	}
	var in ingestTokenRequest
	if err := handler.DecodeAndValidate(r, &in); err != nil {
		handler.RespondError(w, err)
		return
	}
	if len(in.Scopes) == 0 {
		in.Scopes = []string{auth.ScopeIngestOffers}
	}

	token, exp, err := h.tokens.Generate(in.Client, in.Scopes)
	if err != nil {
		handler.RespondError(w, domain.ErrInternal("generate ingest token", err))
		return
	}
	h.logger.Info("ingest token issued", "by", auth.SubjectFromContext(r.Context()), "client", in.Client, "expires_at", exp)
	handler.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"token":      token,
		"client":     in.Client,
		"scopes":     in.Scopes,
		"expires_at": exp,
	})
}
