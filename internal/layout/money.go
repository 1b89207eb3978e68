package layout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goover/docudesk/internal/shared"
	"github.com/goover/docudesk/internal/totals"
)

// Core PDF fonts cannot draw the naira sign, so every currency maps to a
// plain symbol or its code.
var currencySymbols = map[shared.Currency]string{
	shared.CurrencyNGN: "N",
	shared.CurrencyUSD: "$",
	shared.CurrencyEUR: "EUR",
	shared.CurrencyGBP: "GBP",
}

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// CurrencySymbol returns the printable prefix for c.
func CurrencySymbol(c shared.Currency) string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// FormatAmount renders d as "<symbol> 1,234.50": en-US grouping and exactly
// two fraction digits, independent of the host locale.
func FormatAmount(d decimal.Decimal, c shared.Currency) string {
	return CurrencySymbol(c) + " " + FormatNumber(d)
}

// FormatNumber renders d with thousands grouping and two fraction digits.
func FormatNumber(d decimal.Decimal) string {
	r := totals.Round2(d)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}
	whole := r.Truncate(0)
	frac := r.Sub(whole).StringFixed(totals.MinorUnits)
	if !whole.BigInt().IsInt64() {
		return sign + groupDigits(whole.String()) + frac[1:]
	}
	return sign + amountPrinter.Sprintf("%d", whole.IntPart()) + frac[1:]
}

// groupDigits inserts commas every three digits of an unsigned integer
// string, for amounts too large for int64.
func groupDigits(digits string) string {
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatDate renders t as "2 January 2006".
func FormatDate(t time.Time) string {
	return t.Format("2 January 2006")
}
