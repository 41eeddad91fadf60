package service

import (
	"context"
	"errors"

	"github.com/attaboy/bonusvalue/internal/domain"
)

// asAppError leaves domain errors and cancellations intact and wraps the rest.
func asAppError(err error) error {
	if appErr, ok := domain.AsAppError(err); ok {
		return appErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.ErrInternal("database error", err)
}
