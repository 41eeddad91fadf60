package recommend

import "github.com/attaboy/bonusvalue/internal/domain"

// Thresholds for the preference tags understood by Filter.
const (
	LowWageringMax     = 15.0
	FastCashoutMaxDays = 14
)

// Filter returns the offers that satisfy every constraint present in intent,
// preserving catalog order. Only active offers pass. No offer is scored here.
func Filter(offers []domain.Offer, intent domain.Intent) []domain.Offer {
	out := make([]domain.Offer, 0, len(offers))
	m := newMatcher(intent)
	for _, o := range offers {
		if m.matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// Reason explains why Filter would drop an offer; it is empty when the offer passes.
func Reason(offer domain.Offer, intent domain.Intent) string {
	return newMatcher(intent).reason(offer)
}

// matcher holds the intent constraints pre-normalized once per Filter call.
type matcher struct {
	product     string
	budget      *float64
	games       map[string]bool
	existing    bool
	lowWagering bool
	fastCashout bool
}

func newMatcher(intent domain.Intent) matcher {
	m := matcher{
		product:     domain.NormalizeProduct(intent.ProductType),
		budget:      intent.Budget,
		existing:    intent.UserStatus == domain.UserStatusExisting,
		lowWagering: intent.HasPreference(domain.PreferenceLowWagering),
		fastCashout: intent.HasPreference(domain.PreferenceFastCashout),
	}
	for _, g := range intent.Games {
		if name := domain.NormalizeGame(g); name != "" {
			if m.games == nil {
				m.games = make(map[string]bool, len(intent.Games))
			}
			m.games[name] = true
		}
	}
	return m
}

func (m matcher) matches(o domain.Offer) bool {
	return m.reason(o) == ""
}

func (m matcher) reason(o domain.Offer) string {
	if o.Status != domain.OfferStatusActive {
		return "offer is not active"
	}
	if m.product != "" && domain.NormalizeProduct(o.ProductType) != m.product {
		return "product type does not match"
	}
	if m.budget != nil && *m.budget < o.Terms.MinDeposit {
		return "budget below minimum deposit"
	}
	if m.games != nil && !m.gamesOverlap(o.Terms.EligibleGames) {
		return "no requested game is eligible"
	}
	if m.existing && !o.ExistingUserEligible {
		return "offer is for new customers only"
	}
	if m.lowWagering && o.Terms.WageringRequirement > LowWageringMax {
		return "wagering requirement too high"
	}
	if m.fastCashout && o.Terms.ExpiryDays > FastCashoutMaxDays {
		return "expiry window too long"
	}
	return ""
}

func (m matcher) gamesOverlap(eligible []string) bool {
	for _, g := range eligible {
		name := domain.NormalizeGame(g)
		if name == domain.AllGames || m.games[name] {
			return true
		}
	}
	return false
}
