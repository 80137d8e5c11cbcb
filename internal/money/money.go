// Package money holds the pure helpers used for prices and quantities.
package money

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultCurrency = "MXN"

	MinQuantity = 1
	MaxQuantity = 99
)

var printer = message.NewPrinter(language.MustParse("es-MX"))

// Format renders amount in the given ISO currency for the es-MX locale.
// Unknown codes and non-finite amounts fall back to a plain "$0.00" form.
func Format(amount float64, currencyCode string) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fallback(0)
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return fallback(amount)
	}

	// x/text always puts a space after the symbol. es-MX writes "$123.45",
	// so the gap is kept only after letter symbols such as "USD".
	out := printer.Sprint(currency.Symbol(unit.Amount(amount)))
	if sym, num, ok := strings.Cut(out, " "); ok {
		if r, _ := utf8.DecodeLastRuneInString(sym); !unicode.IsLetter(r) {
			return sym + num
		}
	}
	return out
}

func FormatDecimal(amount decimal.Decimal, currencyCode string) string {
	return Format(amount.InexactFloat64(), currencyCode)
}

func fallback(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// ClampQuantity pulls n into [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	return max(MinQuantity, min(MaxQuantity, n))
}

// RoundCents rounds half-up (away from zero) to two decimal places.
func RoundCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// FixedAmount is the wire form of an amount: cents-rounded, always two decimals.
func FixedAmount(amount decimal.Decimal) string {
	return RoundCents(amount).StringFixed(2)
}

// ParseAmount reads a wire amount back. Empty or malformed values are zero.
func ParseAmount(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}
