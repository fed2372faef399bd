// Package types provides the value types shared by the ledger packages.
package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the ledger currency used when none is configured.
const DefaultCurrency = "eur"

// Money is a monetary value held in the currency's minor unit.
// Arithmetic on Money is integer-only; fractional inputs go through
// MoneyFromDecimal, which rounds half away from zero.
//
//	EUR(2550) = €25.50
type Money struct {
	Amount   int64  `json:"amount"`   // minor units (cents)
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// EUR creates a Money value in euro cents.
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// USD creates a Money value in US cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns a zero Money value in the given currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// Fits reports whether d, in major units, is representable as Money.
func Fits(d decimal.Decimal, currency string) bool {
	places := int32(MinorDigits(currency))
	minor := d.Round(places).Shift(places)
	return minor.LessThanOrEqual(maxMinor) && minor.GreaterThanOrEqual(minMinor)
}

// MoneyFromDecimal converts a major-unit decimal (e.g. 25.505) into Money,
// rounding to the currency's minor unit half away from zero. Panics if the
// amount does not fit; check with Fits first when d is caller input.
func MoneyFromDecimal(d decimal.Decimal, currency string) Money {
	currency = strings.ToLower(currency)
	if !Fits(d, currency) {
		panic(fmt.Sprintf("money: %s %s overflows minor units", d, currency))
	}
	places := int32(MinorDigits(currency))
	return Money{
		Amount:   d.Round(places).Shift(places).IntPart(),
		Currency: currency,
	}
}

// Decimal returns the value in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(MinorDigits(m.Currency)))
}

// Add adds two Money values. Panics if currencies don't match or the sum
// overflows.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	sum := m.Amount + other.Amount
	if (other.Amount > 0 && sum < m.Amount) || (other.Amount < 0 && sum > m.Amount) {
		panic(fmt.Sprintf("money: %d + %d overflows", m.Amount, other.Amount))
	}
	return Money{Amount: sum, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match
// or the difference overflows.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	diff := m.Amount - other.Amount
	if (other.Amount < 0 && diff < m.Amount) || (other.Amount > 0 && diff > m.Amount) {
		panic(fmt.Sprintf("money: %d - %d overflows", m.Amount, other.Amount))
	}
	return Money{Amount: diff, Currency: m.Currency}
}

// MulDecimal multiplies by a decimal factor and rounds back to minor units.
func (m Money) MulDecimal(f decimal.Decimal) Money {
	return MoneyFromDecimal(m.Decimal().Mul(f), m.Currency)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor returns the amount in major units without a symbol,
// e.g. "25.50".
func (m Money) FormatMajor() string {
	return m.Decimal().StringFixed(int32(MinorDigits(m.Currency)))
}

// String returns the amount with its currency symbol, e.g. "€25.50".
func (m Money) String() string {
	return m.Symbol() + m.FormatMajor()
}

// Symbol returns the display glyph for the currency.
func (m Money) Symbol() string { return currencySymbol(m.Currency) }

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = strings.ToLower(raw.Currency)
	return nil
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

var symbols = map[string]string{
	"eur": "€",
	"usd": "$",
	"gbp": "£",
	"chf": "CHF ",
}

func currencySymbol(currency string) string {
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

// MinorDigits is the number of decimal places of the currency's minor unit.
func MinorDigits(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "clp":
		return 0
	default:
		return 2
	}
}

// Sum adds up Money values in the given currency.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
