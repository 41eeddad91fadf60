package guard

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
)

const (
	MaxAttempts   = 5
	LockoutWindow = 15 * time.Minute
)

// LoginLockout blocks admin logins after repeated failures, backed by the
// admin_login_attempts table.
type LoginLockout struct {
	db     repository.DBTX
	logger *slog.Logger
	now    func() time.Time
}

// NewLoginLockout creates a LoginLockout.
func NewLoginLockout(db repository.DBTX, logger *slog.Logger) *LoginLockout {
	return &LoginLockout{db: db, logger: logger, now: time.Now}
}

// RecordAttempt inserts a login attempt row. Failures are logged, not returned.
func (l *LoginLockout) RecordAttempt(ctx context.Context, email, ip string, success bool) {
	_, err := l.db.Exec(ctx, `
		INSERT INTO admin_login_attempts (email, ip_address, success)
		VALUES ($1, $2, $3)`,
		strings.ToLower(email), ip, success)
	if err != nil {
		l.logger.Warn("record login attempt", "error", err)
	}
}

// CheckLocked returns ErrAccountLocked if the account has >= MaxAttempts failed
// logins within the lockout window.
func (l *LoginLockout) CheckLocked(ctx context.Context, email string) error {
	var count int
	err := l.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE email = $1 AND success = false
		  AND created_at > $2`,
		strings.ToLower(email), l.now().Add(-LockoutWindow)).Scan(&count)
	if err != nil {
		// fail open on DB error
		l.logger.Warn("check login lockout", "error", err)
		return nil
	}
	if count >= MaxAttempts {
		return domain.ErrAccountLocked("too many failed login attempts, try again later")
	}
	return nil
}
