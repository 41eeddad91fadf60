package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/attaboy/bonusvalue/internal/auth"
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LoginGuard tracks failed logins and locks accounts that exceed the limit.
type LoginGuard interface {
	CheckLocked(ctx context.Context, email string) error
	RecordAttempt(ctx context.Context, email, ip string, success bool)
}

// AdminAuthService handles back-office accounts and login.
type AdminAuthService struct {
	db      repository.DBTX
	users   repository.AdminUserRepository
	jwtMgr  *auth.JWTManager
	lockout LoginGuard
	logger  *slog.Logger
}

// NewAdminAuthService creates an AdminAuthService.
func NewAdminAuthService(db repository.DBTX, users repository.AdminUserRepository, jwtMgr *auth.JWTManager, logger *slog.Logger) *AdminAuthService {
	return &AdminAuthService{db: db, users: users, jwtMgr: jwtMgr, logger: logger}
}

// WithLockout enables failed-login lockout.
func (s *AdminAuthService) WithLockout(g LoginGuard) *AdminAuthService {
	s.lockout = g
	return s
}

// LoginInput holds the login request fields.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	IP       string `json:"-"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token   string    `json:"token"`
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
}

// Login authenticates an admin and returns a JWT.
func (s *AdminAuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if s.lockout != nil {
		if err := s.lockout.CheckLocked(ctx, email); err != nil {
			return nil, err
		}
	}

	user, err := s.users.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, domain.ErrInternal("find admin", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.recordAttempt(ctx, email, in.IP, false)
		s.logger.Warn("admin login failed", "email", email, "ip", in.IP)
		return nil, domain.ErrUnauthorized("invalid credentials")
	}
	s.recordAttempt(ctx, email, in.IP, true)

	token, err := s.jwtMgr.GenerateToken(auth.RealmAdmin, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, domain.ErrInternal("generate token", err)
	}
	return &LoginResult{Token: token, AdminID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *AdminAuthService) recordAttempt(ctx context.Context, email, ip string, success bool) {
	if s.lockout != nil {
		s.lockout.RecordAttempt(ctx, email, ip, success)
	}
}

// CreateAdminInput holds new admin account fields.
type CreateAdminInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=12"`
	Role     string `json:"role" validate:"required,oneof=viewer admin superadmin"`
}

// CreateAdmin registers a back-office account.
func (s *AdminAuthService) CreateAdmin(ctx context.Context, in CreateAdminInput) (*domain.AdminUser, error) {
	if !auth.IsAdminRole(in.Role) {
		return nil, domain.ErrValidation("unknown role " + in.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.ErrInternal("hash password", err)
	}

	user := &domain.AdminUser{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.users.Create(ctx, s.db, user); err != nil {
		return nil, asAppError(err)
	}

	s.logger.Info("admin created", "admin_id", user.ID, "role", user.Role)
	return user, nil
}

// EnsureBootstrapAdmin creates a superadmin with the given credentials unless
// the email is already registered.
func (s *AdminAuthService) EnsureBootstrapAdmin(ctx context.Context, email, password string) error {
	existing, err := s.users.FindByEmail(ctx, s.db, email)
	if err != nil {
		return domain.ErrInternal("find admin", err)
	}
	if existing != nil {
		return nil
	}
	_, err = s.CreateAdmin(ctx, CreateAdminInput{Email: email, Password: password, Role: auth.RoleSuperAdmin})
	return err
}
