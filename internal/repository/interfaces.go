package repository

import (
	"context"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// OperatorRepository provides access to operators.
type OperatorRepository interface {
	// Create inserts a new operator. Returns a conflict error if the name is taken.
	Create(ctx context.Context, db DBTX, op *domain.Operator) error

	// FindByID returns nil, nil when the operator does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Operator, error)

	// FindByName matches case-insensitively. Returns nil, nil when absent.
	FindByName(ctx context.Context, db DBTX, name string) (*domain.Operator, error)

	// List returns all operators ordered by name.
	List(ctx context.Context, db DBTX) ([]domain.Operator, error)
}

// OfferFilter narrows an offer listing. Zero values mean no constraint.
type OfferFilter struct {
	Status     domain.OfferStatus
	OperatorID uuid.UUID
}

// OfferRepository provides access to offers. Reads join the issuing operator.
type OfferRepository interface {
	// Create inserts a new offer including its persisted score.
	Create(ctx context.Context, db DBTX, offer *domain.Offer) error

	// Upsert inserts or replaces the offer keyed by (operator_id, title).
	// On replace, offer.ID and CreatedAt are set from the existing row.
	Upsert(ctx context.Context, db DBTX, offer *domain.Offer) (inserted bool, err error)

	// Update replaces title, product, eligibility, terms and score.
	Update(ctx context.Context, db DBTX, offer *domain.Offer) error

	// UpdateScore replaces only the persisted score and expected value.
	UpdateScore(ctx context.Context, db DBTX, id uuid.UUID, score, expectedValue float64) error

	// UpdateStatus sets the lifecycle status. Returns false if no row matched.
	UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.OfferStatus) (bool, error)

	// FindByID returns nil, nil when the offer does not exist.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Offer, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) and returns the offer.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error)

	// List returns offers in catalog insertion order (created_at, id).
	List(ctx context.Context, db DBTX, filter OfferFilter) ([]domain.Offer, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the offer write).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns pending events in insertion order.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]domain.OutboxDraft, error)

	// MarkPublished stamps publishedAt on the event.
	MarkPublished(ctx context.Context, db DBTX, eventID uuid.UUID) error
}

// AdminUserRepository provides access to admin_users.
type AdminUserRepository interface {
	// FindByEmail returns nil, nil when no account matches.
	FindByEmail(ctx context.Context, db DBTX, email string) (*domain.AdminUser, error)

	// Create inserts a new admin account.
	Create(ctx context.Context, db DBTX, user *domain.AdminUser) error

	// UpdatePasswordHash replaces the stored bcrypt hash.
	UpdatePasswordHash(ctx context.Context, db DBTX, email, hash string) error
}
