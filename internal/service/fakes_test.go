package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx records commit/rollback; repositories below ignore the handle.
type fakeTx struct {
	pgx.Tx
	db *fakeDB
}

func (t *fakeTx) Commit(context.Context) error {
	t.db.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error { return nil }

type fakeDB struct {
	commits int
}

func (d *fakeDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (d *fakeDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) { return nil, nil }
func (d *fakeDB) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }
func (d *fakeDB) Begin(context.Context) (pgx.Tx, error) { return &fakeTx{db: d}, nil }

type fakeOperators struct {
	mu  sync.Mutex
	ops []domain.Operator
}

func (f *fakeOperators) Create(_ context.Context, _ repository.DBTX, op *domain.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.ops {
		if strings.EqualFold(o.Name, op.Name) {
			return domain.ErrConflict("operator exists")
		}
	}
	op.CreatedAt = time.Now()
	f.ops = append(f.ops, *op)
	return nil
}

func (f *fakeOperators) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Operator, error) {
	for _, o := range f.ops {
		if o.ID == id {
			op := o
			return &op, nil
		}
	}
	return nil, nil
}

func (f *fakeOperators) FindByName(_ context.Context, _ repository.DBTX, name string) (*domain.Operator, error) {
	for _, o := range f.ops {
		if strings.EqualFold(o.Name, name) {
			op := o
			return &op, nil
		}
	}
	return nil, nil
}

func (f *fakeOperators) List(context.Context, repository.DBTX) ([]domain.Operator, error) {
	return f.ops, nil
}

type fakeOffers struct {
	offers  []domain.Offer
	listErr error
}

func (f *fakeOffers) index(id uuid.UUID) int {
	for i, o := range f.offers {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeOffers) Create(_ context.Context, _ repository.DBTX, o *domain.Offer) error {
	for _, existing := range f.offers {
		if existing.OperatorID == o.OperatorID && existing.Title == o.Title {
			return domain.ErrConflict("offer exists")
		}
	}
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	f.offers = append(f.offers, *o)
	return nil
}

func (f *fakeOffers) Upsert(_ context.Context, _ repository.DBTX, o *domain.Offer) (bool, error) {
	for i, existing := range f.offers {
		if existing.OperatorID == o.OperatorID && existing.Title == o.Title {
			o.ID, o.Status, o.CreatedAt = existing.ID, existing.Status, existing.CreatedAt
			f.offers[i] = *o
			return false, nil
		}
	}
	f.offers = append(f.offers, *o)
	return true, nil
}

func (f *fakeOffers) Update(_ context.Context, _ repository.DBTX, o *domain.Offer) error {
	i := f.index(o.ID)
	if i < 0 {
		return domain.ErrNotFound("offer", o.ID.String())
	}
	f.offers[i] = *o
	return nil
}

func (f *fakeOffers) UpdateScore(_ context.Context, _ repository.DBTX, id uuid.UUID, score, ev float64) error {
	i := f.index(id)
	f.offers[i].ValueScore, f.offers[i].ExpectedValue = &score, &ev
	return nil
}

func (f *fakeOffers) UpdateStatus(_ context.Context, _ repository.DBTX, id uuid.UUID, status domain.OfferStatus) (bool, error) {
	i := f.index(id)
	if i < 0 {
		return false, nil
	}
	f.offers[i].Status = status
	return true, nil
}

func (f *fakeOffers) FindByID(_ context.Context, _ repository.DBTX, id uuid.UUID) (*domain.Offer, error) {
	i := f.index(id)
	if i < 0 {
		return nil, nil
	}
	o := f.offers[i]
	return &o, nil
}

func (f *fakeOffers) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error) {
	return f.FindByID(ctx, tx, id)
}

func (f *fakeOffers) List(_ context.Context, _ repository.DBTX, filter repository.OfferFilter) ([]domain.Offer, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Offer
	for _, o := range f.offers {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.OperatorID != uuid.Nil && o.OperatorID != filter.OperatorID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

type fakeOutbox struct {
	events []domain.OutboxDraft
}

func (f *fakeOutbox) Insert(_ context.Context, _ repository.DBTX, d domain.OutboxDraft) error {
	f.events = append(f.events, d)
	return nil
}

func (f *fakeOutbox) FetchUnpublished(context.Context, repository.DBTX, int) ([]domain.OutboxDraft, error) {
	return f.events, nil
}

func (f *fakeOutbox) MarkPublished(context.Context, repository.DBTX, uuid.UUID) error { return nil }

type fakeAdmins struct {
	users []domain.AdminUser
}

func (f *fakeAdmins) FindByEmail(_ context.Context, _ repository.DBTX, email string) (*domain.AdminUser, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (f *fakeAdmins) Create(_ context.Context, _ repository.DBTX, u *domain.AdminUser) error {
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrConflict("email already registered")
		}
	}
	f.users = append(f.users, *u)
	return nil
}

func (f *fakeAdmins) UpdatePasswordHash(context.Context, repository.DBTX, string, string) error {
	return nil
}
