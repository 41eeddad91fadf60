package domain

// UserStatus distinguishes new sign-ups from existing customers.
type UserStatus string

const (
	UserStatusNew      UserStatus = "new"
	UserStatusExisting UserStatus = "existing"
)

// Preference tags understood by the catalog filter.
const (
	PreferenceLowWagering = "low wagering"
	PreferenceFastCashout = "fast cashout"
)

// Intent is a user's structured preferences, produced upstream by the
// natural-language step. Every field is optional; an absent field places no
// constraint on the catalog.
type Intent struct {
	Budget        *float64   `json:"budget,omitempty" validate:"omitempty,gte=0"`
	Currency      string     `json:"currency,omitempty" validate:"omitempty,currency"`
	Location      string     `json:"location,omitempty" validate:"omitempty,max=64"`
	ProductType   string     `json:"product_type,omitempty" validate:"omitempty,max=32"`
	Games         []string   `json:"games,omitempty" validate:"omitempty,max=32,dive,max=64"`
	UserStatus    UserStatus `json:"user_status,omitempty" validate:"omitempty,oneof=new existing"`
	Preferences   []string   `json:"preferences,omitempty" validate:"omitempty,max=16,dive,max=64"`
	RiskTolerance string     `json:"risk_tolerance,omitempty" validate:"omitempty,oneof=low medium high"`
}

// HasPreference reports whether the intent carries the given preference tag.
func (i Intent) HasPreference(tag string) bool {
	for _, p := range i.Preferences {
		if normalizeTag(p) == tag {
			return true
		}
	}
	return false
}
