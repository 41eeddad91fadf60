package domain

import (
	"time"

	"github.com/google/uuid"
)

// WageringBasis selects the amount the wagering multiplier applies to.
type WageringBasis string

const (
	BasisBonusOnly        WageringBasis = "bonus-only"
	BasisDepositPlusBonus WageringBasis = "deposit-plus-bonus"
)

// OfferStatus tracks the catalog lifecycle of an offer.
type OfferStatus string

const (
	OfferStatusActive  OfferStatus = "active"
	OfferStatusPaused  OfferStatus = "paused"
	OfferStatusExpired OfferStatus = "expired"
)

// Product types an offer can target.
const (
	ProductCasino     = "casino"
	ProductSportsbook = "sportsbook"
	ProductPoker      = "poker"
	ProductBingo      = "bingo"
	ProductLottery    = "lottery"
)

// AllGames is the eligible-games wildcard meaning "any game".
const AllGames = "all"

// OfferTerms is the normalized contractual terms of one bonus offer.
// Currency amounts are in major units (e.g. 25.50).
type OfferTerms struct {
	MatchPercent            float64            `json:"match_percent"` // ratio, 1.0 = 100%
	MinDeposit              float64            `json:"min_deposit"`
	MaxBonus                float64            `json:"max_bonus"`
	WageringRequirement     float64            `json:"wagering_requirement"`
	WageringBasis           WageringBasis      `json:"wagering_basis"`
	EligibleGames           []string           `json:"eligible_games,omitempty"`
	GameWeightings          map[string]float64 `json:"game_weightings,omitempty"`
	MaxCashout              *float64           `json:"max_cashout,omitempty"` // nil = unlimited
	ExpiryDays              int                `json:"expiry_days"`           // 0 = not stated
	PaymentMethodExclusions []string           `json:"payment_method_exclusions,omitempty"`
}

// IsFixedAmount reports whether the offer grants a set bonus rather than a
// percentage deposit match.
func (t OfferTerms) IsFixedAmount() bool {
	return t.MatchPercent == 0 && t.MaxBonus > 0
}

// Operator is the gambling operator issuing offers.
type Operator struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	Licenses  []string  `json:"licenses,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Offer is a catalog record: terms joined with the issuing operator plus the
// score persisted at write time.
type Offer struct {
	ID                   uuid.UUID   `json:"id"`
	OperatorID           uuid.UUID   `json:"operator_id"`
	Operator             *Operator   `json:"operator,omitempty"`
	Title                string      `json:"title"`
	ProductType          string      `json:"product_type"`
	Status               OfferStatus `json:"status"`
	ExistingUserEligible bool        `json:"existing_user_eligible"`
	Terms                OfferTerms  `json:"terms"`
	ValueScore           *float64    `json:"value_score,omitempty"`
	ExpectedValue        *float64    `json:"expected_value,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// RankedOffer is an offer annotated for presentation by a ranking pass.
type RankedOffer struct {
	Offer      Offer   `json:"offer"`
	ValueScore float64 `json:"value_score"`
	Rationale  string  `json:"rationale"`
	Rating     Rating  `json:"rating"`
}

// Severity is the presentation tier of a rating (badge colour).
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityCaution Severity = "caution"
	SeverityDanger  Severity = "danger"
)

// Rating is the qualitative label for a value score.
type Rating struct {
	Label       string   `json:"label"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
}
