package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a monetary form value into a decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// requires a strictly positive value. Returns ErrInvalidAmount for anything
// else, including empty or signed input.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseNonNegativeAmount is ParseAmount but admits zero, used for the
// saved-so-far field of a goal.
func ParseNonNegativeAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrNegativeSaved
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNegativeSaved
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeSaved
	}
	return d, nil
}
