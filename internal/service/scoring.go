package service

import (
	"math"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/metrics"
	"github.com/attaboy/bonusvalue/internal/valuation"
)

// Valuation triggers, used as the metrics label.
const (
	TriggerCreate  = "create"
	TriggerUpdate  = "update"
	TriggerRescore = "rescore"
	TriggerPreview = "preview"
	TriggerIngest  = "ingest"
)

// ScoredOffer is an offer together with its current valuation.
type ScoredOffer struct {
	Offer       domain.Offer               `json:"offer"`
	Rating      domain.Rating              `json:"rating"`
	Calculation valuation.ValueCalculation `json:"calculation"`
}

// applyScore calculates the offer against budget and stores the result on the
// offer, replacing any previous score. The stored expected value is clamped to
// what the offers table can hold.
func applyScore(offer *domain.Offer, budget float64, trigger string) ScoredOffer {
	calc := valuation.Calculate(offer.Terms, budget)
	score, ev := calc.ValueScore, valuation.StorableAmount(calc.ExpectedValue)
	offer.ValueScore = &score
	offer.ExpectedValue = &ev

	rating := valuation.Classify(score)
	metrics.ObserveValuation(trigger, rating.Label, score)
	return ScoredOffer{Offer: *offer, Rating: rating, Calculation: calc}
}

// resolveTerms picks typed or raw terms and canonicalizes them for storage.
// Exactly one of the two must be supplied.
func resolveTerms(terms *domain.OfferTerms, raw *valuation.RawTerms) (domain.OfferTerms, error) {
	switch {
	case terms != nil && raw != nil:
		return domain.OfferTerms{}, domain.ErrValidation("provide either terms or raw_terms, not both")
	case raw != nil:
		return valuation.ParseTerms(*raw), nil
	case terms != nil:
		if err := validateTerms(*terms); err != nil {
			return domain.OfferTerms{}, err
		}
		return valuation.Canonicalize(*terms), nil
	default:
		return domain.OfferTerms{}, domain.ErrValidation("terms or raw_terms is required")
	}
}

// validateTerms rejects typed terms that are structurally wrong. Numeric
// oddities are not errors; Canonicalize replaces them with defaults.
func validateTerms(t domain.OfferTerms) error {
	if err := domain.ValidateWageringBasis(t.WageringBasis); err != nil {
		return domain.ErrValidation(err.Error())
	}
	return nil
}

// budgetOr returns b when set and finite, otherwise fallback.
func budgetOr(b *float64, fallback float64) float64 {
	if b == nil || math.IsNaN(*b) || math.IsInf(*b, 0) {
		return fallback
	}
	return *b
}
