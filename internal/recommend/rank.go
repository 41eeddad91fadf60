package recommend

import (
	"sort"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/attaboy/bonusvalue/internal/valuation"
)

// Rationale tiers. A score must exceed the floor to reach the tier.
var rationaleTiers = []struct {
	above float64
	text  string
}{
	{90, "excellent value, low wagering/restrictions"},
	{75, "good value, reasonable terms"},
	{50, "fair value"},
}

const lowValueRationale = "lower value due to high wagering or restrictions"

// Rationale returns the human-readable explanation for a value score.
func Rationale(score float64) string {
	for _, t := range rationaleTiers {
		if score > t.above {
			return t.text
		}
	}
	return lowValueRationale
}

// Rank orders offers by value score, highest first. The persisted score is
// used when present; offers that were never scored are calculated on the fly
// against the intent's budget. Offers with equal scores keep catalog order.
func Rank(offers []domain.Offer, intent domain.Intent) []domain.RankedOffer {
	budget := valuation.DefaultBudget
	if intent.Budget != nil {
		budget = *intent.Budget
	}

	ranked := make([]domain.RankedOffer, len(offers))
	for i, o := range offers {
		score := scoreOf(o, budget)
		ranked[i] = domain.RankedOffer{
			Offer:      o,
			ValueScore: score,
			Rationale:  Rationale(score),
			Rating:     valuation.Classify(score),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ValueScore > ranked[j].ValueScore
	})
	return ranked
}

func scoreOf(o domain.Offer, budget float64) float64 {
	if o.ValueScore != nil {
		return *o.ValueScore
	}
	return valuation.Calculate(o.Terms, budget).ValueScore
}

// Top returns at most n leading entries. n <= 0 returns everything.
func Top(ranked []domain.RankedOffer, n int) []domain.RankedOffer {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
