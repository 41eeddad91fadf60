package valuation

import (
	"math"

	"github.com/attaboy/bonusvalue/internal/domain"
	"github.com/shopspring/decimal"
)

// Mode distinguishes fixed-amount offers from percentage deposit matches.
type Mode string

const (
	ModeFixedAmount     Mode = "fixed-amount"
	ModePercentageMatch Mode = "percentage-match"
)

// PenaltyKind names a restriction that reduces expected value.
type PenaltyKind string

const (
	PenaltyCashoutCap        PenaltyKind = "cashout_cap"
	PenaltyExpiryUnder7Days  PenaltyKind = "expiry_under_7_days"
	PenaltyExpiryUnder14Days PenaltyKind = "expiry_under_14_days"
	PenaltyPaymentExclusions PenaltyKind = "payment_exclusions"
)

// Penalty rates, as fractions of the bonus amount.
const (
	cashoutCapRate        = 0.15
	expiryUnder7Rate      = 0.20
	expiryUnder14Rate     = 0.10
	paymentExclusionsRate = 0.05

	cashoutCapMultiple   = 3
	maxPaymentExclusions = 3
)

// Penalty is one applied deduction.
type Penalty struct {
	Kind   PenaltyKind `json:"kind"`
	Rate   float64     `json:"rate"`
	Amount float64     `json:"amount"`
}

// Breakdown explains how a ValueCalculation was reached.
type Breakdown struct {
	Mode                Mode      `json:"mode"`
	DepositAmount       float64   `json:"deposit_amount"`
	BonusAmount         float64   `json:"bonus_amount"`
	WageringBasisAmount float64   `json:"wagering_basis_amount"`
	TotalWagering       float64   `json:"total_wagering"`
	WageringCost        float64   `json:"wagering_cost"`
	PayoutGame          string    `json:"payout_game"`
	EffectivePayoutRate float64   `json:"effective_payout_rate"`
	Penalties           float64   `json:"penalties"`
	PenaltyItems        []Penalty `json:"penalty_items,omitempty"`
}

// ValueCalculation is the expected value of an offer for a given budget.
type ValueCalculation struct {
	ExpectedValue float64   `json:"expected_value"`
	ValueScore    float64   `json:"value_score"`
	Breakdown     Breakdown `json:"breakdown"`
}

// Calculate scores an offer for a player depositing up to budget. It never
// fails: terms are normalized first and a non-finite budget falls back to
// DefaultBudget. A budget of zero or less scores 0 with an expected value of 0,
// though a fixed-amount breakdown still reports its deposit and bonus. Currency
// outputs are rounded to 2 places, the payout rate to 3 and the score to 1,
// once, at the end.
func Calculate(terms domain.OfferTerms, budget float64) ValueCalculation {
	t := Normalize(terms)
	if math.IsNaN(budget) || math.IsInf(budget, 0) {
		budget = DefaultBudget
	}

	payout, rate := EffectivePayoutRate(t.EligibleGames, t.GameWeightings)
	b := Breakdown{
		Mode:                ModePercentageMatch,
		PayoutGame:          payout.Game,
		EffectivePayoutRate: rate,
	}

	// 1. Deposit and bonus. Fixed amounts do not depend on the budget.
	if t.IsFixedAmount() {
		b.Mode = ModeFixedAmount
		b.BonusAmount = t.MaxBonus
		b.DepositAmount = t.MinDeposit
	}
	if budget <= 0 {
		return finish(b, 0)
	}
	if b.Mode == ModePercentageMatch {
		maxEligible := budget
		if t.MaxBonus > 0 && t.MatchPercent > 0 {
			maxEligible = t.MaxBonus / t.MatchPercent
		}
		b.DepositAmount = math.Max(math.Min(budget, maxEligible), t.MinDeposit)
		b.BonusAmount = b.DepositAmount * t.MatchPercent
		if t.MaxBonus > 0 {
			b.BonusAmount = math.Min(b.BonusAmount, t.MaxBonus)
		}
	}

	// 2. Wagering.
	b.WageringBasisAmount = b.BonusAmount
	if t.WageringBasis == domain.BasisDepositPlusBonus {
		b.WageringBasisAmount += b.DepositAmount
	}
	b.TotalWagering = b.WageringBasisAmount * t.WageringRequirement

	// 3-4. Expected loss while clearing the requirement.
	b.WageringCost = b.TotalWagering * (1 - rate)

	// 5. Penalties stack additively.
	b.PenaltyItems = penalties(t, b.BonusAmount)
	for _, p := range b.PenaltyItems {
		b.Penalties += p.Amount
	}

	// 6. Expected value.
	ev := math.Max(0, b.BonusAmount-b.WageringCost-b.Penalties)
	return finish(b, ev)
}

func penalties(t domain.OfferTerms, bonus float64) []Penalty {
	var out []Penalty
	add := func(kind PenaltyKind, rate float64) {
		out = append(out, Penalty{Kind: kind, Rate: rate, Amount: bonus * rate})
	}

	if t.MaxCashout != nil && *t.MaxCashout < bonus*cashoutCapMultiple {
		add(PenaltyCashoutCap, cashoutCapRate)
	}
	switch {
	case t.ExpiryDays < 7:
		add(PenaltyExpiryUnder7Days, expiryUnder7Rate)
	case t.ExpiryDays < 14:
		add(PenaltyExpiryUnder14Days, expiryUnder14Rate)
	}
	if len(t.PaymentMethodExclusions) > maxPaymentExclusions {
		add(PenaltyPaymentExclusions, paymentExclusionsRate)
	}
	return out
}

// finish derives the score from unrounded figures, then rounds for output.
func finish(b Breakdown, ev float64) ValueCalculation {
	var score float64
	if b.DepositAmount > 0 {
		score = math.Max(0, math.Min(100, ev/b.DepositAmount*100))
	}

	b.DepositAmount = round(b.DepositAmount, 2)
	b.BonusAmount = round(b.BonusAmount, 2)
	b.WageringBasisAmount = round(b.WageringBasisAmount, 2)
	b.TotalWagering = round(b.TotalWagering, 2)
	b.WageringCost = round(b.WageringCost, 2)
	b.EffectivePayoutRate = round(b.EffectivePayoutRate, 3)
	b.Penalties = round(b.Penalties, 2)
	for i := range b.PenaltyItems {
		b.PenaltyItems[i].Amount = round(b.PenaltyItems[i].Amount, 2)
	}

	return ValueCalculation{
		ExpectedValue: round(ev, 2),
		ValueScore:    round(score, 1),
		Breakdown:     b,
	}
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
