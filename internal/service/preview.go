package service

import (
	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/valuation"
)

// PreviewInput is a live-preview request from the admin offer form.
type PreviewInput struct {
	Terms    *domain.OfferTerms  `json:"terms,omitempty"`
	RawTerms *valuation.RawTerms `json:"raw_terms,omitempty"`
	Budget   *float64            `json:"budget,omitempty"`
}

// PreviewResult is the full valuation of unsaved terms.
type PreviewResult struct {
	Terms       domain.OfferTerms          `json:"terms"`
	Budget      float64                    `json:"budget"`
	Calculation valuation.ValueCalculation `json:"calculation"`
	Rating      domain.Rating              `json:"rating"`
}

// Preview computes a complete valuation without persisting anything. Each call
// recomputes from scratch so no partial state carries between edits.
func Preview(in PreviewInput, defaultBudget float64) (*PreviewResult, error) {
	terms, err := resolveTerms(in.Terms, in.RawTerms)
	if err != nil {
		return nil, err
	}

	budget := budgetOr(in.Budget, defaultBudget)
	offer := domain.Offer{Terms: terms}
	scored := applyScore(&offer, budget, TriggerPreview)

	return &PreviewResult{
		Terms:       terms,
		Budget:      budget,
		Calculation: scored.Calculation,
		Rating:      scored.Rating,
	}, nil
}
