package valuation

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/attaboy/bonusvalue/internal/domain"
)

// Defaults applied when a term is missing or unusable.
const (
	DefaultBudget     = 100.0
	DefaultCap        = 1000.0
	DefaultExpiryDays = 30

	// MaxAmount caps every money term so stored terms fit numeric(14,2).
	MaxAmount = 1e9

	// MaxStoredAmount is the largest value a numeric(14,2) column holds.
	MaxStoredAmount = 999_999_999_999.99

	maxMatchPercent = 100.0
	maxMultiplier   = 10_000.0
)

// StorableAmount clamps a computed amount into [0, MaxStoredAmount].
func StorableAmount(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, MaxStoredAmount)
}

// Normalize returns the copy of t that Calculate works on: Canonicalize plus
// a DefaultExpiryDays expiry when none is stated. t is not modified.
func Normalize(t domain.OfferTerms) domain.OfferTerms {
	out := Canonicalize(t)
	if out.ExpiryDays <= 0 {
		out.ExpiryDays = DefaultExpiryDays
	}
	return out
}

// Canonicalize returns a sanitized copy of t suitable for storage. Unusable
// numbers are replaced with safe defaults rather than rejected: percentages and
// multipliers become 0 and caps become DefaultCap. An unstated expiry stays 0.
// Game and payment names are canonicalized and de-duplicated.
func Canonicalize(t domain.OfferTerms) domain.OfferTerms {
	out := domain.OfferTerms{
		MatchPercent:        bounded(t.MatchPercent, 0, maxMatchPercent),
		MinDeposit:          bounded(t.MinDeposit, 0, MaxAmount),
		MaxBonus:            boundedCap(t.MaxBonus),
		WageringRequirement: bounded(t.WageringRequirement, 0, maxMultiplier),
		WageringBasis:       t.WageringBasis,
		ExpiryDays:          t.ExpiryDays,
	}

	if out.WageringBasis != domain.BasisDepositPlusBonus {
		out.WageringBasis = domain.BasisBonusOnly
	}
	if out.ExpiryDays < 0 {
		out.ExpiryDays = 0
	}
	if t.MaxCashout != nil {
		c := boundedCap(*t.MaxCashout)
		out.MaxCashout = &c
	}

	out.EligibleGames = uniqueNames(t.EligibleGames, domain.NormalizeGame)
	out.PaymentMethodExclusions = uniqueNames(t.PaymentMethodExclusions, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})

	if len(t.GameWeightings) > 0 {
		out.GameWeightings = make(map[string]float64, len(t.GameWeightings))
		for game, w := range t.GameWeightings {
			name := domain.NormalizeGame(game)
			if name == "" || math.IsNaN(w) {
				continue
			}
			out.GameWeightings[name] = math.Max(0, math.Min(1, w))
		}
		if len(out.GameWeightings) == 0 {
			out.GameWeightings = nil
		}
	}

	return out
}

// bounded maps NaN, infinities and negatives to 0 and caps v at hi.
func bounded(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < lo {
		return 0
	}
	return math.Min(v, hi)
}

// boundedCap is bounded for cap fields, whose unusable values fall back to DefaultCap.
func boundedCap(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return DefaultCap
	}
	return math.Min(v, MaxAmount)
}

func uniqueNames(in []string, canon func(string) string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		c := canon(s)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// RawTerms is the string form of offer terms as typed into the admin form or
// extracted by the scraper. Percent fields are percentages ("100" or "100%").
type RawTerms struct {
	MatchPercent            string `json:"match_percent"`
	MinDeposit              string `json:"min_deposit"`
	MaxBonus                string `json:"max_bonus"`
	WageringRequirement     string `json:"wagering_requirement"`
	WageringBasis           string `json:"wagering_basis"`
	EligibleGames           string `json:"eligible_games"`   // comma separated
	GameWeightings          string `json:"game_weightings"`  // "slots:100%, blackjack:0.1"
	MaxCashout              string `json:"max_cashout"`      // blank = unlimited
	ExpiryDays              string `json:"expiry_days"`
	PaymentMethodExclusions string `json:"payment_method_exclusions"` // comma separated
}

// ParseTerms converts raw form fields into canonical OfferTerms. Blank fields
// are treated as absent and unparseable ones as invalid; both then receive the
// same defaults Canonicalize applies to typed input.
func ParseTerms(raw RawTerms) domain.OfferTerms {
	t := domain.OfferTerms{
		MatchPercent:            parsePercent(raw.MatchPercent),
		MinDeposit:              parseAmount(raw.MinDeposit),
		MaxBonus:                parseAmount(raw.MaxBonus),
		WageringRequirement:     parseMultiplier(raw.WageringRequirement),
		WageringBasis:           domain.WageringBasis(strings.ToLower(strings.TrimSpace(raw.WageringBasis))),
		EligibleGames:           splitList(raw.EligibleGames),
		GameWeightings:          parseWeightings(raw.GameWeightings),
		PaymentMethodExclusions: splitList(raw.PaymentMethodExclusions),
	}

	if strings.TrimSpace(raw.MaxCashout) != "" {
		c := parseAmount(raw.MaxCashout)
		t.MaxCashout = &c
	}
	if days, err := strconv.Atoi(strings.TrimSpace(raw.ExpiryDays)); err == nil {
		t.ExpiryDays = days
	}

	return Canonicalize(t)
}

var amountCleaner = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", " ", "")

// parseAmount returns 0 for a blank field and NaN for an unparseable one.
func parseAmount(s string) float64 {
	s = amountCleaner.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parsePercent(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v := parseAmount(s)
	return v / 100
}

func parseMultiplier(s string) float64 {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(strings.TrimPrefix(s, "x"), "x")
	return parseAmount(s)
}

// parseWeightings reads "game:weight" pairs. A weight written with "%" or
// greater than 1 is a percentage.
func parseWeightings(s string) map[string]float64 {
	pairs := splitList(s)
	if len(pairs) == 0 {
		return nil
	}
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		game, weight, ok := strings.Cut(pair, ":")
		if !ok {
			game, weight, ok = strings.Cut(pair, "=")
		}
		if !ok {
			continue
		}
		weight = strings.TrimSpace(weight)
		var w float64
		if strings.HasSuffix(weight, "%") {
			w = parsePercent(weight)
		} else {
			w = parseAmount(weight)
			if w > 1 {
				w /= 100
			}
		}
		out[strings.TrimSpace(game)] = w
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sortedWeights returns the weighting values in key order so summation is
// reproducible across calls.
func sortedWeights(m map[string]float64) []float64 {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
