package valuation

import (
	"math"
	"testing"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestCalculate_FixedAmountIgnoresBudget(t *testing.T) {
	terms := domain.OfferTerms{MatchPercent: 0, MaxBonus: 500, MinDeposit: 20}

	for _, budget := range []float64{5, 20, 100, 5000} {
		calc := Calculate(terms, budget)
		assert.Equal(t, ModeFixedAmount, calc.Breakdown.Mode)
		assert.Equal(t, 500.0, calc.Breakdown.BonusAmount, "budget %v", budget)
		assert.Equal(t, 20.0, calc.Breakdown.DepositAmount, "budget %v", budget)
		assert.Equal(t, 100.0, calc.ValueScore)
	}

	for _, budget := range []float64{0, -5} {
		calc := Calculate(terms, budget)
		assert.Equal(t, ModeFixedAmount, calc.Breakdown.Mode)
		assert.Equal(t, 500.0, calc.Breakdown.BonusAmount, "budget %v", budget)
		assert.Equal(t, 20.0, calc.Breakdown.DepositAmount, "budget %v", budget)
		assert.Equal(t, 0.0, calc.ValueScore, "budget %v", budget)
		assert.Equal(t, 0.0, calc.ExpectedValue, "budget %v", budget)
	}
}

func TestCalculate_PercentageCappedByMaxBonus(t *testing.T) {
	terms := domain.OfferTerms{MatchPercent: 1.0, MaxBonus: 1000, MinDeposit: 10}

	calc := Calculate(terms, 2000)
	assert.Equal(t, ModePercentageMatch, calc.Breakdown.Mode)
	assert.Equal(t, 1000.0, calc.Breakdown.DepositAmount)
	assert.Equal(t, 1000.0, calc.Breakdown.BonusAmount)
}

func TestCalculate_PercentageMinDepositFloor(t *testing.T) {
	terms := domain.OfferTerms{MatchPercent: 1.0, MaxBonus: 200, MinDeposit: 50}

	calc := Calculate(terms, 20)
	assert.Equal(t, 50.0, calc.Breakdown.DepositAmount)
	assert.Equal(t, 50.0, calc.Breakdown.BonusAmount)
}

func TestCalculate_ZeroMaxBonusIsUncappedInPercentageMode(t *testing.T) {
	terms := domain.OfferTerms{MatchPercent: 0.5, MaxBonus: 0}

	calc := Calculate(terms, 400)
	assert.Equal(t, ModePercentageMatch, calc.Breakdown.Mode)
	assert.Equal(t, 400.0, calc.Breakdown.DepositAmount)
	assert.Equal(t, 200.0, calc.Breakdown.BonusAmount)
}

func TestCalculate_WageringCost(t *testing.T) {
	t.Run("bonus only", func(t *testing.T) {
		terms := domain.OfferTerms{
			MatchPercent:        1.0,
			MaxBonus:            200,
			MinDeposit:          10,
			WageringRequirement: 10,
			WageringBasis:       domain.BasisBonusOnly,
			EligibleGames:       []string{"slots"},
		}
		calc := Calculate(terms, 100)
		assert.Equal(t, 100.0, calc.Breakdown.WageringBasisAmount)
		assert.Equal(t, 1000.0, calc.Breakdown.TotalWagering)
		assert.InDelta(t, 35.0, calc.Breakdown.WageringCost, 0.001)
		assert.Equal(t, 0.965, calc.Breakdown.EffectivePayoutRate)
		assert.InDelta(t, 65.0, calc.ExpectedValue, 0.001)
		assert.InDelta(t, 65.0, calc.ValueScore, 0.001)
	})

	t.Run("deposit plus bonus", func(t *testing.T) {
		terms := domain.OfferTerms{
			MatchPercent:        1.0,
			MaxBonus:            200,
			MinDeposit:          10,
			WageringRequirement: 10,
			WageringBasis:       domain.BasisDepositPlusBonus,
		}
		calc := Calculate(terms, 100)
		assert.Equal(t, 200.0, calc.Breakdown.WageringBasisAmount)
		assert.Equal(t, 2000.0, calc.Breakdown.TotalWagering)
		assert.InDelta(t, 70.0, calc.Breakdown.WageringCost, 0.001)
		assert.InDelta(t, 30.0, calc.ExpectedValue, 0.001)
		assert.InDelta(t, 30.0, calc.ValueScore, 0.001)
	})

	t.Run("heavy wagering floors expected value at zero", func(t *testing.T) {
		terms := domain.OfferTerms{MatchPercent: 1.0, MaxBonus: 200, WageringRequirement: 60}
		calc := Calculate(terms, 100)
		assert.Equal(t, 0.0, calc.ExpectedValue)
		assert.Equal(t, 0.0, calc.ValueScore)
	})
}

func TestCalculate_PayoutPriorityNotListOrder(t *testing.T) {
	terms := domain.OfferTerms{
		MatchPercent:  1.0,
		MaxBonus:      100,
		EligibleGames: []string{"roulette", "blackjack"},
	}
	calc := Calculate(terms, 100)
	assert.Equal(t, "blackjack", calc.Breakdown.PayoutGame)
	assert.Equal(t, 0.995, calc.Breakdown.EffectivePayoutRate)
}

func TestCalculate_PenaltiesStack(t *testing.T) {
	terms := domain.OfferTerms{
		MatchPercent: 1.0,
		MaxBonus:     100,
		MinDeposit:   10,
		ExpiryDays:   5,
		MaxCashout:   ptr(200), // bonus * 2
	}

	calc := Calculate(terms, 100)
	require.Len(t, calc.Breakdown.PenaltyItems, 2)
	assert.Equal(t, PenaltyCashoutCap, calc.Breakdown.PenaltyItems[0].Kind)
	assert.Equal(t, PenaltyExpiryUnder7Days, calc.Breakdown.PenaltyItems[1].Kind)
	assert.InDelta(t, 35.0, calc.Breakdown.Penalties, 0.001)
	assert.InDelta(t, 65.0, calc.ExpectedValue, 0.001)
}

func TestCalculate_PenaltyThresholds(t *testing.T) {
	base := domain.OfferTerms{MatchPercent: 1.0, MaxBonus: 100}

	tests := []struct {
		name  string
		edit  func(*domain.OfferTerms)
		kinds []PenaltyKind
	}{
		{"no restrictions", func(*domain.OfferTerms) {}, nil},
		{"expiry 10 days", func(t *domain.OfferTerms) { t.ExpiryDays = 10 }, []PenaltyKind{PenaltyExpiryUnder14Days}},
		{"expiry 14 days", func(t *domain.OfferTerms) { t.ExpiryDays = 14 }, nil},
		{"expiry 6 days takes stricter only", func(t *domain.OfferTerms) { t.ExpiryDays = 6 }, []PenaltyKind{PenaltyExpiryUnder7Days}},
		{"cashout exactly 3x bonus", func(t *domain.OfferTerms) { t.MaxCashout = ptr(300) }, nil},
		{"cashout below 3x bonus", func(t *domain.OfferTerms) { t.MaxCashout = ptr(299.99) }, []PenaltyKind{PenaltyCashoutCap}},
		{"three exclusions", func(t *domain.OfferTerms) {
			t.PaymentMethodExclusions = []string{"skrill", "neteller", "paypal"}
		}, nil},
		{"four exclusions", func(t *domain.OfferTerms) {
			t.PaymentMethodExclusions = []string{"skrill", "neteller", "paypal", "ecopayz"}
		}, []PenaltyKind{PenaltyPaymentExclusions}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := base
			tt.edit(&terms)
			calc := Calculate(terms, 100)

			var kinds []PenaltyKind
			for _, p := range calc.Breakdown.PenaltyItems {
				kinds = append(kinds, p.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestCalculate_NonPositiveBudgetScoresZero(t *testing.T) {
	offers := []domain.OfferTerms{
		{MatchPercent: 0, MaxBonus: 500, MinDeposit: 20},
		{MatchPercent: 1.0, MaxBonus: 1000, MinDeposit: 10},
		{MatchPercent: 2.0},
	}
	for _, terms := range offers {
		for _, budget := range []float64{0, -1, -1000} {
			calc := Calculate(terms, budget)
			assert.Equal(t, 0.0, calc.ValueScore, "budget %v", budget)
			assert.GreaterOrEqual(t, calc.ExpectedValue, 0.0)
		}
	}
}

func TestCalculate_ZeroDepositDoesNotDivide(t *testing.T) {
	terms := domain.OfferTerms{MatchPercent: 0, MaxBonus: 10, MinDeposit: 0}

	calc := Calculate(terms, 100)
	assert.Equal(t, 0.0, calc.Breakdown.DepositAmount)
	assert.Equal(t, 10.0, calc.ExpectedValue)
	assert.Equal(t, 0.0, calc.ValueScore)
}

func TestCalculate_ScoreStaysInRange(t *testing.T) {
	inputs := []domain.OfferTerms{
		{MatchPercent: 1e9, MaxBonus: 1e300, MinDeposit: 1e300, WageringRequirement: 1e300},
		{MatchPercent: math.NaN(), MaxBonus: math.Inf(1), WageringRequirement: math.NaN()},
		{MatchPercent: -3, MaxBonus: -10, MinDeposit: -5, WageringRequirement: -1, ExpiryDays: -4},
		{MatchPercent: 5, MaxBonus: 0, WageringRequirement: 0},
		{MatchPercent: 1, MaxBonus: 100, GameWeightings: map[string]float64{"slots": math.Inf(1), "roulette": -2}},
		{MatchPercent: 0, MaxBonus: 1e12, MinDeposit: 0.01},
	}
	budgets := []float64{0.01, 1, 100, 1e9, math.NaN(), math.Inf(1)}

	for i, terms := range inputs {
		for _, budget := range budgets {
			var calc ValueCalculation
			require.NotPanics(t, func() { calc = Calculate(terms, budget) }, "input %d budget %v", i, budget)
			assert.GreaterOrEqual(t, calc.ValueScore, 0.0)
			assert.LessOrEqual(t, calc.ValueScore, 100.0)
			assert.GreaterOrEqual(t, calc.ExpectedValue, 0.0)
			assert.False(t, math.IsNaN(calc.ExpectedValue))
		}
	}
}

func TestCalculate_RoundsOnceAtOutput(t *testing.T) {
	terms := domain.OfferTerms{
		MatchPercent:        0.333,
		MaxBonus:            1000,
		WageringRequirement: 7,
		EligibleGames:       []string{"baccarat"},
		GameWeightings:      map[string]float64{"baccarat": 0.9, "slots": 1},
	}
	calc := Calculate(terms, 77.77)

	assert.Equal(t, calc.ExpectedValue, round(calc.ExpectedValue, 2))
	assert.Equal(t, calc.ValueScore, round(calc.ValueScore, 1))
	assert.Equal(t, calc.Breakdown.EffectivePayoutRate, round(calc.Breakdown.EffectivePayoutRate, 3))
	assert.Equal(t, 0.939, calc.Breakdown.EffectivePayoutRate) // 0.988 * 0.95
}

func TestCalculate_DoesNotMutateInput(t *testing.T) {
	weights := map[string]float64{"Video Poker": 2}
	games := []string{" Blackjack "}
	terms := domain.OfferTerms{MatchPercent: 1, MaxBonus: 50, EligibleGames: games, GameWeightings: weights}

	Calculate(terms, 100)
	assert.Equal(t, " Blackjack ", games[0])
	assert.Equal(t, 2.0, weights["Video Poker"])
}

func TestCalculate_Deterministic(t *testing.T) {
	terms := domain.OfferTerms{
		MatchPercent:        1.5,
		MaxBonus:            750,
		MinDeposit:          20,
		WageringRequirement: 25,
		WageringBasis:       domain.BasisDepositPlusBonus,
		EligibleGames:       []string{"slots", "roulette", "baccarat"},
		GameWeightings:      map[string]float64{"slots": 1, "roulette": 0.2, "baccarat": 0.1, "keno": 0.7, "bingo": 0.33},
		MaxCashout:          ptr(2000),
		ExpiryDays:          12,
	}

	first := Calculate(terms, 250)
	rating := Classify(first.ValueScore)
	for i := 0; i < 50; i++ {
		again := Calculate(terms, 250)
		assert.Equal(t, first, again)
		assert.Equal(t, rating, Classify(again.ValueScore))
	}
}

func TestCalculate_RawAndTypedAgree(t *testing.T) {
	raw := RawTerms{
		MatchPercent:        "100%",
		MinDeposit:          "$20",
		MaxBonus:            "500",
		WageringRequirement: "30x",
		WageringBasis:       "deposit-plus-bonus",
		EligibleGames:       "slots, blackjack",
		ExpiryDays:          "10",
	}
	typed := domain.OfferTerms{
		MatchPercent:        1,
		MinDeposit:          20,
		MaxBonus:            500,
		WageringRequirement: 30,
		WageringBasis:       domain.BasisDepositPlusBonus,
		EligibleGames:       []string{"slots", "blackjack"},
		ExpiryDays:          10,
	}

	assert.Equal(t, Calculate(typed, 150), Calculate(ParseTerms(raw), 150))
}
