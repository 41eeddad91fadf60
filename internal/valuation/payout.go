package valuation

import "github.com/attaboy/bonusvalue/internal/domain"

// GamePayout is a game category with its long-run payout rate (RTP).
type GamePayout struct {
	Game string  `json:"game"`
	Rate float64 `json:"rate"`
}

// DefaultPayout applies when no higher-paying table game is eligible.
var DefaultPayout = GamePayout{Game: "slots", Rate: 0.965}

// payoutPriority is scanned in order; the first eligible game wins regardless
// of where it appears in the offer's game list.
var payoutPriority = []GamePayout{
	{Game: "blackjack", Rate: 0.995},
	{Game: "video_poker", Rate: 0.992},
	{Game: "baccarat", Rate: 0.988},
	{Game: "roulette", Rate: 0.973},
}

// minWeightingFactor floors the mean game weighting.
const minWeightingFactor = 0.5

// BasePayout selects the payout rate for a set of eligible games.
func BasePayout(eligibleGames []string) GamePayout {
	if len(eligibleGames) == 0 {
		return DefaultPayout
	}
	eligible := make(map[string]bool, len(eligibleGames))
	for _, g := range eligibleGames {
		eligible[domain.NormalizeGame(g)] = true
	}
	for _, p := range payoutPriority {
		if eligible[p.Game] {
			return p
		}
	}
	return DefaultPayout
}

// WeightingFactor is the arithmetic mean of all weighting values, floored at
// 0.5. An empty map has factor 1.
func WeightingFactor(weightings map[string]float64) float64 {
	if len(weightings) == 0 {
		return 1
	}
	var sum float64
	values := sortedWeights(weightings)
	for _, w := range values {
		sum += w
	}
	mean := sum / float64(len(values))
	if mean < minWeightingFactor {
		return minWeightingFactor
	}
	return mean
}

// EffectivePayoutRate combines the base payout for the eligible games with the
// weighting factor.
func EffectivePayoutRate(eligibleGames []string, weightings map[string]float64) (GamePayout, float64) {
	base := BasePayout(eligibleGames)
	return base, base.Rate * WeightingFactor(weightings)
}
