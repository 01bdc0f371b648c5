// Package money parses and renders basket prices.
package money

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoAmount means the text carries no numeric token at all.
	ErrNoAmount = errors.New("no numeric amount in text")
	// ErrOutOfRange means the amount is not within (0, ceiling].
	ErrOutOfRange = errors.New("amount out of range")
)

// amountPattern matches an integer part with an optional one- or two-digit fraction after "." or ",".
var amountPattern = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)

// Extract returns the first numeric token found in text.
func Extract(text string) (decimal.Decimal, error) {
	token := amountPattern.FindString(text)
	if token == "" {
		return decimal.Zero, ErrNoAmount
	}

	amount, err := decimal.NewFromString(strings.Replace(token, ",", ".", 1))
	if err != nil {
		return decimal.Zero, ErrNoAmount
	}

	return amount, nil
}

// ParsePrice extracts the first amount from text and checks it lies in (0, ceiling].
func ParsePrice(text string, ceiling decimal.Decimal) (decimal.Decimal, error) {
	amount, err := Extract(text)
	if err != nil {
		return decimal.Zero, err
	}

	if !amount.IsPositive() || amount.GreaterThan(ceiling) {
		return decimal.Zero, ErrOutOfRange
	}

	return amount, nil
}

// Format renders amount rounded to whole currency units, e.g. "1500 ₽".
func Format(amount decimal.Decimal, currency string) string {
	rendered := amount.Round(0).String()
	if currency == "" {
		return rendered
	}
	return rendered + " " + currency
}
