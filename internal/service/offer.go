package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/repository"
	"github.com/attaboy/bonusvalue/internal/valuation"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxBeginner is a DBTX that can open transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	repository.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OfferService manages the offer catalog. Every write recomputes the value
// score, persists it and records an offer.scored outbox event in one transaction.
type OfferService struct {
	db        TxBeginner
	offers    repository.OfferRepository
	operators repository.OperatorRepository
	outbox    repository.OutboxRepository
	budget    float64
	logger    *slog.Logger
}

// NewOfferService creates an OfferService scoring against defaultBudget.
func NewOfferService(
	db TxBeginner,
	offers repository.OfferRepository,
	operators repository.OperatorRepository,
	outbox repository.OutboxRepository,
	defaultBudget float64,
	logger *slog.Logger,
) *OfferService {
	return &OfferService{
		db:        db,
		offers:    offers,
		operators: operators,
		outbox:    outbox,
		budget:    defaultBudget,
		logger:    logger,
	}
}

// OfferInput holds the editable fields of an offer. Terms may be given typed
// or as raw form strings.
type OfferInput struct {
	OperatorID           uuid.UUID           `json:"operator_id" validate:"required"`
	Title                string              `json:"title" validate:"required,max=200"`
	ProductType          string              `json:"product_type" validate:"required,oneof=casino sportsbook poker bingo lottery"`
	Status               domain.OfferStatus  `json:"status,omitempty" validate:"omitempty,oneof=active paused expired"`
	ExistingUserEligible bool                `json:"existing_user_eligible"`
	Terms                *domain.OfferTerms  `json:"terms,omitempty"`
	RawTerms             *valuation.RawTerms `json:"raw_terms,omitempty"`
}

// Create adds a scored offer to the catalog.
func (s *OfferService) Create(ctx context.Context, in OfferInput) (*ScoredOffer, error) {
	terms, err := resolveTerms(in.Terms, in.RawTerms)
	if err != nil {
		return nil, err
	}
	op, err := s.operators.FindByID(ctx, s.db, in.OperatorID)
	if err != nil {
		return nil, domain.ErrInternal("find operator", err)
	}
	if op == nil {
		return nil, domain.ErrNotFound("operator", in.OperatorID.String())
	}

	status := in.Status
	if status == "" {
		status = domain.OfferStatusActive
	}
	offer := &domain.Offer{
		ID:                   uuid.New(),
		OperatorID:           op.ID,
		Operator:             op,
		Title:                strings.TrimSpace(in.Title),
		ProductType:          domain.NormalizeProduct(in.ProductType),
		Status:               status,
		ExistingUserEligible: in.ExistingUserEligible,
		Terms:                terms,
	}
	scored := applyScore(offer, s.budget, TriggerCreate)

	err = s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.offers.Create(ctx, tx, offer); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewOfferScoredEvent(offer, scored.Rating))
	})
	if err != nil {
		return nil, err
	}

	scored.Offer = *offer
	s.logger.Info("offer created", "offer_id", offer.ID, "operator_id", op.ID, "value_score", *offer.ValueScore)
	return &scored, nil
}

// Update replaces an offer's editable fields and rescores it. The stored
// calculation is fully replaced.
func (s *OfferService) Update(ctx context.Context, id uuid.UUID, in OfferInput) (*ScoredOffer, error) {
	terms, err := resolveTerms(in.Terms, in.RawTerms)
	if err != nil {
		return nil, err
	}

	var scored ScoredOffer
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		offer, err := s.offers.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrNotFound("offer", id.String())
		}
		if in.OperatorID != uuid.Nil && in.OperatorID != offer.OperatorID {
			return domain.ErrValidation("an offer cannot move to another operator")
		}

		offer.Title = strings.TrimSpace(in.Title)
		offer.ProductType = domain.NormalizeProduct(in.ProductType)
		offer.ExistingUserEligible = in.ExistingUserEligible
		offer.Terms = terms
		scored = applyScore(offer, s.budget, TriggerUpdate)

		if err := s.offers.Update(ctx, tx, offer); err != nil {
			return err
		}
		if in.Status != "" && in.Status != offer.Status {
			if _, err := s.offers.UpdateStatus(ctx, tx, id, in.Status); err != nil {
				return err
			}
			offer.Status = in.Status
			if err := s.outbox.Insert(ctx, tx, domain.NewOfferStatusEvent(id, offer.OperatorID, in.Status)); err != nil {
				return err
			}
		}
		scored.Offer = *offer
		return s.outbox.Insert(ctx, tx, domain.NewOfferScoredEvent(offer, scored.Rating))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer updated", "offer_id", id, "value_score", scored.Calculation.ValueScore)
	return &scored, nil
}

// SetStatus moves an offer through its lifecycle.
func (s *OfferService) SetStatus(ctx context.Context, id uuid.UUID, status domain.OfferStatus) (*domain.Offer, error) {
	if err := domain.ValidateOfferStatus(status); err != nil {
		return nil, domain.ErrValidation(err.Error())
	}

	var out *domain.Offer
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		offer, err := s.offers.LockForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if offer == nil {
			return domain.ErrNotFound("offer", id.String())
		}
		if offer.Status == status {
			out = offer
			return nil
		}
		if _, err := s.offers.UpdateStatus(ctx, tx, id, status); err != nil {
			return err
		}
		offer.Status = status
		out = offer
		return s.outbox.Insert(ctx, tx, domain.NewOfferStatusEvent(id, offer.OperatorID, status))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("offer status changed", "offer_id", id, "status", status)
	return out, nil
}

// Get returns an offer with a fresh breakdown at the default budget. The
// rating reflects the persisted score.
func (s *OfferService) Get(ctx context.Context, id uuid.UUID) (*ScoredOffer, error) {
	offer, err := s.offers.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, domain.ErrInternal("find offer", err)
	}
	if offer == nil {
		return nil, domain.ErrNotFound("offer", id.String())
	}

	calc := valuation.Calculate(offer.Terms, s.budget)
	score := calc.ValueScore
	if offer.ValueScore != nil {
		score = *offer.ValueScore
	}
	return &ScoredOffer{Offer: *offer, Rating: valuation.Classify(score), Calculation: calc}, nil
}

// List returns offers in catalog order.
func (s *OfferService) List(ctx context.Context, filter repository.OfferFilter) ([]domain.Offer, error) {
	offers, err := s.offers.List(ctx, s.db, filter)
	if err != nil {
		return nil, domain.ErrInternal("list offers", err)
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	return offers, nil
}

// RescoreAll recomputes and persists the score of every offer, one
// transaction per offer. Returns how many offers were rescored.
func (s *OfferService) RescoreAll(ctx context.Context) (int, error) {
	offers, err := s.offers.List(ctx, s.db, repository.OfferFilter{})
	if err != nil {
		return 0, domain.ErrInternal("list offers", err)
	}

	n := 0
	for i := range offers {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		offer := &offers[i]
		scored := applyScore(offer, s.budget, TriggerRescore)

		err := s.inTx(ctx, func(tx pgx.Tx) error {
			if err := s.offers.UpdateScore(ctx, tx, offer.ID, *offer.ValueScore, *offer.ExpectedValue); err != nil {
				return err
			}
			return s.outbox.Insert(ctx, tx, domain.NewOfferScoredEvent(offer, scored.Rating))
		})
		if err != nil {
			return n, fmt.Errorf("rescore offer %s: %w", offer.ID, err)
		}
		n++
	}

	s.logger.Info("offers rescored", "count", n, "budget", s.budget)
	return n, nil
}

// IngestInput is one scraped offer. The operator is matched by name and
// created when unknown.
type IngestInput struct {
	Operator             string             `json:"operator" validate:"required,max=200"`
	OperatorWebsite      string             `json:"operator_website,omitempty" validate:"omitempty,url"`
	Title                string             `json:"title" validate:"required,max=200"`
	ProductType          string             `json:"product_type" validate:"required,oneof=casino sportsbook poker bingo lottery"`
	ExistingUserEligible bool               `json:"existing_user_eligible"`
	Terms                valuation.RawTerms `json:"terms"`
}

// Ingest upserts a scraped offer keyed by operator and title. A re-scraped
// offer keeps its lifecycle status. Reports whether a new offer was created.
func (s *OfferService) Ingest(ctx context.Context, in IngestInput) (*ScoredOffer, bool, error) {
	terms := valuation.ParseTerms(in.Terms)

	var scored ScoredOffer
	var inserted bool
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		op, err := s.findOrCreateOperator(ctx, tx, in.Operator, in.OperatorWebsite)
		if err != nil {
			return err
		}

		offer := &domain.Offer{
			ID:                   uuid.New(),
			OperatorID:           op.ID,
			Operator:             op,
			Title:                strings.TrimSpace(in.Title),
			ProductType:          domain.NormalizeProduct(in.ProductType),
			Status:               domain.OfferStatusActive,
			ExistingUserEligible: in.ExistingUserEligible,
			Terms:                terms,
		}
		scored = applyScore(offer, s.budget, TriggerIngest)

		if inserted, err = s.offers.Upsert(ctx, tx, offer); err != nil {
			return err
		}
		scored.Offer = *offer
		return s.outbox.Insert(ctx, tx, domain.NewOfferScoredEvent(offer, scored.Rating))
	})
	if err != nil {
		return nil, false, err
	}

	s.logger.Info("offer ingested",
		"offer_id", scored.Offer.ID,
		"operator", in.Operator,
		"inserted", inserted,
		"value_score", scored.Calculation.ValueScore,
	)
	return &scored, inserted, nil
}

func (s *OfferService) findOrCreateOperator(ctx context.Context, tx pgx.Tx, name, website string) (*domain.Operator, error) {
	name = strings.TrimSpace(name)
	op, err := s.operators.FindByName(ctx, tx, name)
	if err != nil || op != nil {
		return op, err
	}
	op = &domain.Operator{ID: uuid.New(), Name: name, Website: website}
	if err := s.operators.Create(ctx, tx, op); err != nil {
		return nil, err
	}
	s.logger.Info("operator created from ingest", "operator_id", op.ID, "name", name)
	return op, nil
}

// inTx runs fn in a transaction. AppErrors pass through; anything else is
// wrapped as an internal error.
func (s *OfferService) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.ErrInternal("begin tx", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return asAppError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ErrInternal("commit tx", err)
	}
	return nil
}
