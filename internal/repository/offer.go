package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/infra"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const offerSelect = `
	SELECT o.id, o.operator_id, o.title, o.product_type, o.status, o.existing_user_eligible,
	       o.match_percent, o.min_deposit, o.max_bonus, o.wagering_requirement, o.wagering_basis,
	       o.eligible_games, o.game_weightings, o.max_cashout, o.expiry_days, o.payment_method_exclusions,
	       o.value_score, o.expected_value, o.created_at, o.updated_at,
	       op.id, op.name, op.website, op.licenses, op.created_at
	FROM offers o
	JOIN operators op ON op.id = o.operator_id`

// Numeric scales of the offers table.
const (
	percentPlaces    = 4
	multiplierPlaces = 2
	scorePlaces      = 1
)

type offerRepo struct{}

// NewOfferRepository returns a pgx-backed OfferRepository.
func NewOfferRepository() OfferRepository {
	return &offerRepo{}
}

// termArgs returns the term columns in table order, from match_percent to payment_method_exclusions.
func termArgs(t domain.OfferTerms) []interface{} {
	weightings := t.GameWeightings
	if weightings == nil {
		weightings = map[string]float64{}
	}
	basis := t.WageringBasis
	if basis == "" {
		basis = domain.BasisBonusOnly
	}
	return []interface{}{
		infra.Float64ToNumeric(t.MatchPercent, percentPlaces),
		infra.MoneyToNumeric(t.MinDeposit),
		infra.MoneyToNumeric(t.MaxBonus),
		infra.Float64ToNumeric(t.WageringRequirement, multiplierPlaces),
		string(basis),
		nonNil(t.EligibleGames),
		weightings,
		infra.OptionalToNumeric(t.MaxCashout, 2),
		t.ExpiryDays,
		nonNil(t.PaymentMethodExclusions),
	}
}

func (r *offerRepo) Create(ctx context.Context, db DBTX, offer *domain.Offer) error {
	args := []interface{}{offer.ID, offer.OperatorID, offer.Title, offer.ProductType, string(offer.Status), offer.ExistingUserEligible}
	args = append(args, termArgs(offer.Terms)...)
	args = append(args,
		infra.OptionalToNumeric(offer.ValueScore, scorePlaces),
		infra.OptionalToNumeric(offer.ExpectedValue, 2),
	)

	err := db.QueryRow(ctx, `
		INSERT INTO offers (id, operator_id, title, product_type, status, existing_user_eligible,
		                    match_percent, min_deposit, max_bonus, wagering_requirement, wagering_basis,
		                    eligible_games, game_weightings, max_cashout, expiry_days, payment_method_exclusions,
		                    value_score, expected_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`, args...,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict(fmt.Sprintf("offer %q already exists for this operator", offer.Title))
		}
		return fmt.Errorf("insert offer: %w", err)
	}
	return nil
}

// Upsert leaves status untouched on replace so a paused offer stays paused.
func (r *offerRepo) Upsert(ctx context.Context, db DBTX, offer *domain.Offer) (bool, error) {
	args := []interface{}{offer.ID, offer.OperatorID, offer.Title, offer.ProductType, string(offer.Status), offer.ExistingUserEligible}
	args = append(args, termArgs(offer.Terms)...)
	args = append(args,
		infra.OptionalToNumeric(offer.ValueScore, scorePlaces),
		infra.OptionalToNumeric(offer.ExpectedValue, 2),
	)

	var inserted bool
	var status string
	err := db.QueryRow(ctx, `
		INSERT INTO offers (id, operator_id, title, product_type, status, existing_user_eligible,
		                    match_percent, min_deposit, max_bonus, wagering_requirement, wagering_basis,
		                    eligible_games, game_weightings, max_cashout, expiry_days, payment_method_exclusions,
		                    value_score, expected_value)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (operator_id, title) DO UPDATE SET
		    product_type = EXCLUDED.product_type,
		    existing_user_eligible = EXCLUDED.existing_user_eligible,
		    match_percent = EXCLUDED.match_percent,
		    min_deposit = EXCLUDED.min_deposit,
		    max_bonus = EXCLUDED.max_bonus,
		    wagering_requirement = EXCLUDED.wagering_requirement,
		    wagering_basis = EXCLUDED.wagering_basis,
		    eligible_games = EXCLUDED.eligible_games,
		    game_weightings = EXCLUDED.game_weightings,
		    max_cashout = EXCLUDED.max_cashout,
		    expiry_days = EXCLUDED.expiry_days,
		    payment_method_exclusions = EXCLUDED.payment_method_exclusions,
		    value_score = EXCLUDED.value_score,
		    expected_value = EXCLUDED.expected_value,
		    updated_at = now()
		RETURNING id, status, created_at, updated_at, (xmax = 0)`, args...,
	).Scan(&offer.ID, &status, &offer.CreatedAt, &offer.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert offer: %w", err)
	}
	offer.Status = domain.OfferStatus(status)
	return inserted, nil
}

func (r *offerRepo) Update(ctx context.Context, db DBTX, offer *domain.Offer) error {
	args := []interface{}{offer.ID, offer.Title, offer.ProductType, offer.ExistingUserEligible}
	args = append(args, termArgs(offer.Terms)...)
	args = append(args,
		infra.OptionalToNumeric(offer.ValueScore, scorePlaces),
		infra.OptionalToNumeric(offer.ExpectedValue, 2),
	)

	err := db.QueryRow(ctx, `
		UPDATE offers SET
		    title = $2, product_type = $3, existing_user_eligible = $4,
		    match_percent = $5, min_deposit = $6, max_bonus = $7, wagering_requirement = $8,
		    wagering_basis = $9, eligible_games = $10, game_weightings = $11, max_cashout = $12,
		    expiry_days = $13, payment_method_exclusions = $14,
		    value_score = $15, expected_value = $16, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`, args...,
	).Scan(&offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound("offer", offer.ID.String())
		}
		if isUniqueViolation(err) {
			return domain.ErrConflict(fmt.Sprintf("offer %q already exists for this operator", offer.Title))
		}
		return fmt.Errorf("update offer: %w", err)
	}
	return nil
}

func (r *offerRepo) UpdateScore(ctx context.Context, db DBTX, id uuid.UUID, score, expectedValue float64) error {
	_, err := db.Exec(ctx, `
		UPDATE offers SET value_score = $2, expected_value = $3, updated_at = now()
		WHERE id = $1`,
		id, infra.Float64ToNumeric(score, scorePlaces), infra.MoneyToNumeric(expectedValue))
	if err != nil {
		return fmt.Errorf("update offer score: %w", err)
	}
	return nil
}

func (r *offerRepo) UpdateStatus(ctx context.Context, db DBTX, id uuid.UUID, status domain.OfferStatus) (bool, error) {
	tag, err := db.Exec(ctx, `UPDATE offers SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return false, fmt.Errorf("update offer status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *offerRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Offer, error) {
	return scanOffer(db.QueryRow(ctx, offerSelect+` WHERE o.id = $1`, id))
}

func (r *offerRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Offer, error) {
	return scanOffer(tx.QueryRow(ctx, offerSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id))
}

func (r *offerRepo) List(ctx context.Context, db DBTX, filter OfferFilter) ([]domain.Offer, error) {
	query := offerSelect + `
	WHERE ($1 = '' OR o.status = $1)
	  AND ($2::uuid IS NULL OR o.operator_id = $2)
	ORDER BY o.created_at, o.id`

	var operatorID *uuid.UUID
	if filter.OperatorID != uuid.Nil {
		operatorID = &filter.OperatorID
	}

	rows, err := db.Query(ctx, query, string(filter.Status), operatorID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var out []domain.Offer
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		o                                 domain.Offer
		op                                domain.Operator
		status, basis                     string
		match, minDep, maxBonus, wagering pgtype.Numeric
		cashout, score, ev                pgtype.Numeric
	)
	err := row.Scan(
		&o.ID, &o.OperatorID, &o.Title, &o.ProductType, &status, &o.ExistingUserEligible,
		&match, &minDep, &maxBonus, &wagering, &basis,
		&o.Terms.EligibleGames, &o.Terms.GameWeightings, &cashout, &o.Terms.ExpiryDays, &o.Terms.PaymentMethodExclusions,
		&score, &ev, &o.CreatedAt, &o.UpdatedAt,
		&op.ID, &op.Name, &op.Website, &op.Licenses, &op.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan offer: %w", err)
	}

	o.Status = domain.OfferStatus(status)
	o.Terms.WageringBasis = domain.WageringBasis(basis)
	o.Operator = &op

	for _, f := range []struct {
		name string
		src  pgtype.Numeric
		dst  *float64
	}{
		{"match_percent", match, &o.Terms.MatchPercent},
		{"min_deposit", minDep, &o.Terms.MinDeposit},
		{"max_bonus", maxBonus, &o.Terms.MaxBonus},
		{"wagering_requirement", wagering, &o.Terms.WageringRequirement},
	} {
		v, err := infra.NumericToFloat64(f.src)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", f.name, err)
		}
		*f.dst = v
	}

	if o.Terms.MaxCashout, err = infra.NullableNumeric(cashout); err != nil {
		return nil, fmt.Errorf("convert max_cashout: %w", err)
	}
	if o.ValueScore, err = infra.NullableNumeric(score); err != nil {
		return nil, fmt.Errorf("convert value_score: %w", err)
	}
	if o.ExpectedValue, err = infra.NullableNumeric(ev); err != nil {
		return nil, fmt.Errorf("convert expected_value: %w", err)
	}

	if len(o.Terms.GameWeightings) == 0 {
		o.Terms.GameWeightings = nil
	}
	if len(o.Terms.EligibleGames) == 0 {
		o.Terms.EligibleGames = nil
	}
	if len(o.Terms.PaymentMethodExclusions) == 0 {
		o.Terms.PaymentMethodExclusions = nil
	}
	return &o, nil
}
