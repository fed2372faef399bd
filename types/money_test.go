package types

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyDisplay(t *testing.T) {
	tests := []struct {
		name    string
		money   Money
		display string
		major   string
	}{
		{"EUR", EUR(2550), "€25.50", "25.50"},
		{"EUR zero", Zero("EUR"), "€0.00", "0.00"},
		{"USD", USD(100005), "$1000.05", "1000.05"},
		{"unknown currency", Money{Amount: 1999, Currency: "sek"}, "SEK 19.99", "19.99"},
		{"zero decimal currency", Money{Amount: 100, Currency: "jpy"}, "JPY 100", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.String(); got != tt.display {
				t.Errorf("String: got %s, want %s", got, tt.display)
			}
			if got := tt.money.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.major)
			}
		})
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"25.50", 2550},
		{"0.005", 1},
		{"0.004", 0},
		{"2.675", 268},
		{"-0.005", -1},
		{"10", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MoneyFromDecimal(decimal.RequireFromString(tt.in), "EUR")
			if got.Amount != tt.want {
				t.Errorf("got %d, want %d", got.Amount, tt.want)
			}
			if got.Currency != "eur" {
				t.Errorf("currency: got %s, want eur", got.Currency)
			}
		})
	}
}

func TestMoneyDecimalRoundTrip(t *testing.T) {
	m := EUR(2805)
	if got := m.Decimal().String(); got != "28.05" {
		t.Errorf("Decimal: got %s, want 28.05", got)
	}
	if back := MoneyFromDecimal(m.Decimal(), m.Currency); !back.Equal(m) {
		t.Errorf("round trip: got %v, want %v", back, m)
	}
}

func TestMoneyMulDecimal(t *testing.T) {
	// 25.50 * 10% = 2.55
	got := EUR(2550).MulDecimal(decimal.RequireFromString("0.10"))
	if !got.Equal(EUR(255)) {
		t.Errorf("got %v, want €2.55", got)
	}
	// 0.05 * 0.5 = 0.025 rounds away from zero
	got = EUR(5).MulDecimal(decimal.RequireFromString("0.5"))
	if !got.Equal(EUR(3)) {
		t.Errorf("got %v, want €0.03", got)
	}
}

func TestMoneyArithmetic(t *testing.T) {
	if got := EUR(2550).Add(EUR(255)); !got.Equal(EUR(2805)) {
		t.Errorf("Add: got %v", got)
	}
	if got := EUR(2805).Subtract(EUR(2550)); !got.Equal(EUR(255)) {
		t.Errorf("Subtract: got %v", got)
	}
	if got := Sum("eur", EUR(2805), EUR(1000)); !got.Equal(EUR(3805)) {
		t.Errorf("Sum: got %v", got)
	}
	if got := Sum("eur"); !got.Equal(EUR(0)) {
		t.Errorf("empty Sum: got %v", got)
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for currency mismatch")
		}
	}()
	_ = EUR(100).Add(USD(100))
}

func TestMoneyOverflowPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"add", func() { _ = EUR(math.MaxInt64).Add(EUR(1)) }},
		{"subtract", func() { _ = EUR(math.MinInt64).Subtract(EUR(1)) }},
		{"sum", func() { _ = Sum("eur", EUR(math.MaxInt64/2+1), EUR(math.MaxInt64/2+1)) }},
		{"from decimal", func() { _ = MoneyFromDecimal(decimal.RequireFromString("1e20"), "eur") }},
		{"mul", func() { _ = EUR(100000).MulDecimal(decimal.RequireFromString("1e17")) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Error("expected overflow panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestFits(t *testing.T) {
	if !Fits(decimal.RequireFromString("92233720368547758.07"), "eur") {
		t.Error("max int64 cents should fit")
	}
	if Fits(decimal.RequireFromString("92233720368547758.08"), "eur") {
		t.Error("one cent past max int64 should not fit")
	}
	if !Fits(decimal.RequireFromString("9223372036854775807"), "jpy") {
		t.Error("max int64 yen should fit")
	}
}

func TestMinorDigits(t *testing.T) {
	for code, want := range map[string]int{"eur": 2, "USD": 2, "jpy": 0, "KRW": 0} {
		if got := MinorDigits(code); got != want {
			t.Errorf("MinorDigits(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(EUR(2550))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"amount":2550,"currency":"eur","display":"€25.50"}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back Money
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(EUR(2550)) {
		t.Errorf("got %v, want €25.50", back)
	}
}
