package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the fixed display and storage precision of every amount
const AmountPlaces = 2

// Amount bounds. Input amounts are limited to MaxAmountDigits integer digits.
// Stored values get a wider limit so any sum of valid inputs reloads.
const (
	MaxAmountDigits = 15
	maxStoredDigits = 30
	maxAmountScale  = 18
)

// CheckAmount rejects amounts outside the input bounds, before any arithmetic
// is done on them
func CheckAmount(amount decimal.Decimal) error {
	return checkMagnitude(amount, MaxAmountDigits)
}

// CheckStoredAmount rejects persisted amounts outside the stored bounds
func CheckStoredAmount(amount decimal.Decimal) error {
	return checkMagnitude(amount, maxStoredDigits)
}

func checkMagnitude(amount decimal.Decimal, maxDigits int) error {
	exp := int(amount.Exponent())
	if exp < -maxAmountScale {
		return fmt.Errorf("amount has more than %d decimal places", maxAmountScale)
	}
	if exp > maxDigits || amount.NumDigits()+exp > maxDigits {
		return fmt.Errorf("amount exceeds %d integer digits", maxDigits)
	}
	return nil
}

// NormalizeAmount rounds an amount to AmountPlaces (half away from zero)
func NormalizeAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountPlaces)
}

// hasStoragePrecision reports whether amount carries no more than AmountPlaces decimals.
// Callers check the bounds first.
func hasStoragePrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(AmountPlaces))
}

// ParseAmount parses an amount typed by a user.
// Accepts "1356.00", "1356,00", "1.356,00" and an optional "R$" prefix.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "R$"))
	if raw == "" {
		return decimal.Zero, errors.New("amount is empty")
	}

	if strings.Contains(raw, ",") {
		// pt-BR: '.' groups thousands, ',' separates decimals
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if err := CheckAmount(amount); err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return amount, nil
}

// FormatBRL renders an amount the way the app displays it, e.g. "R$ 1.356,00"
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(AmountPlaces)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if amount.Round(AmountPlaces).IsNegative() {
		sign = "-"
	}

	return sign + "R$ " + grouped.String() + "," + fracPart
}
