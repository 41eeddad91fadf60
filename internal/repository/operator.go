package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const operatorColumns = `id, name, website, licenses, created_at`

type operatorRepo struct{}

// NewOperatorRepository returns a pgx-backed OperatorRepository.
func NewOperatorRepository() OperatorRepository {
	return &operatorRepo{}
}

func (r *operatorRepo) Create(ctx context.Context, db DBTX, op *domain.Operator) error {
	err := db.QueryRow(ctx, `
		INSERT INTO operators (id, name, website, licenses)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		op.ID, op.Name, op.Website, nonNil(op.Licenses),
	).Scan(&op.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict(fmt.Sprintf("operator %q already exists", op.Name))
		}
		return fmt.Errorf("insert operator: %w", err)
	}
	return nil
}

func (r *operatorRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Operator, error) {
	row := db.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE id = $1`, id)
	return scanOperator(row)
}

func (r *operatorRepo) FindByName(ctx context.Context, db DBTX, name string) (*domain.Operator, error) {
	row := db.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE lower(name) = lower($1)`, name)
	return scanOperator(row)
}

func (r *operatorRepo) List(ctx context.Context, db DBTX) ([]domain.Operator, error) {
	rows, err := db.Query(ctx, `SELECT `+operatorColumns+` FROM operators ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list operators: %w", err)
	}
	defer rows.Close()

	var out []domain.Operator
	for rows.Next() {
		op, err := scanOperator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *op)
	}
	return out, rows.Err()
}

func scanOperator(row pgx.Row) (*domain.Operator, error) {
	var op domain.Operator
	err := row.Scan(&op.ID, &op.Name, &op.Website, &op.Licenses, &op.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan operator: %w", err)
	}
	return &op, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
