package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
	tagSeparators = strings.NewReplacer("_", " ", "-", " ")
)

// ValidateCurrency checks if a currency code is ISO 4217.
func ValidateCurrency(currency string) error {
	if !currencyRegex.MatchString(currency) {
		return fmt.Errorf("invalid currency code: %s", currency)
	}
	return nil
}

// ValidateOfferStatus checks the status is a known lifecycle state.
func ValidateOfferStatus(status OfferStatus) error {
	switch status {
	case OfferStatusActive, OfferStatusPaused, OfferStatusExpired:
		return nil
	}
	return fmt.Errorf("invalid offer status: %s", status)
}

// ValidateWageringBasis checks the basis is one of the two supported values.
// An empty basis is accepted and treated as bonus-only.
func ValidateWageringBasis(basis WageringBasis) error {
	switch basis {
	case "", BasisBonusOnly, BasisDepositPlusBonus:
		return nil
	}
	return fmt.Errorf("invalid wagering basis: %s", basis)
}

// NormalizeGame canonicalizes a game category name ("Video Poker" -> "video_poker").
func NormalizeGame(game string) string {
	g := strings.ToLower(strings.TrimSpace(game))
	g = strings.Join(strings.Fields(strings.ReplaceAll(g, "-", " ")), "_")
	return g
}

// NormalizeProduct canonicalizes a product type.
func NormalizeProduct(product string) string {
	return strings.ToLower(strings.TrimSpace(product))
}

func normalizeTag(tag string) string {
	t := strings.ToLower(tagSeparators.Replace(tag))
	return strings.Join(strings.Fields(t), " ")
}
