package valuation

import (
	"math"

	"github.com/attaboy/bonusvalue/internal/domain"
)

type band struct {
	floor  float64
	rating domain.Rating
}

// bands are ordered by descending floor; each includes its lower bound.
var bands = []band{
	{80, domain.Rating{Label: "Excellent", Severity: domain.SeveritySuccess, Description: "Strong expected value with player-friendly terms"}},
	{60, domain.Rating{Label: "Good", Severity: domain.SeverityInfo, Description: "Solid value once wagering is accounted for"}},
	{40, domain.Rating{Label: "Fair", Severity: domain.SeverityWarning, Description: "Some value, but the terms eat into it"}},
	{20, domain.Rating{Label: "Poor", Severity: domain.SeverityCaution, Description: "Wagering and restrictions remove most of the value"}},
	{math.Inf(-1), domain.Rating{Label: "Avoid", Severity: domain.SeverityDanger, Description: "Little or no realistic value for the deposit required"}},
}

// Classify maps a 0-100 value score to its rating band.
func Classify(score float64) domain.Rating {
	if math.IsNaN(score) {
		return bands[len(bands)-1].rating
	}
	for _, b := range bands {
		if score >= b.floor {
			return b.rating
		}
	}
	return bands[len(bands)-1].rating
}
