// Package format renders amounts, totals and percentages for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/split-proj/atmsplit/internal/amount"
)

const (
	// DefaultLocale is the locale used when none is configured.
	DefaultLocale = "en-PH"
	// DefaultSymbol is the Philippine peso sign.
	DefaultSymbol = "₱"
)

// Formatter turns numbers into locale-grouped display strings.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// New returns a Formatter for locale and currency symbol. An unparseable
// locale falls back to DefaultLocale.
func New(locale, symbol string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: symbol}
}

// Default is the en-PH peso formatter.
var Default = New(DefaultLocale, DefaultSymbol)

// Number groups the integer digits of d and keeps places decimals.
func (f *Formatter) Number(d decimal.Decimal, places int32) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(places)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if n, err := decimal.NewFromString(whole); err == nil && n.LessThan(maxGrouped) {
		b.WriteString(f.printer.Sprintf("%d", n.IntPart()))
	} else {
		b.WriteString(whole)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// maxGrouped keeps IntPart within int64.
var maxGrouped = decimal.New(1, 18)

// Currency renders a source amount with the precision it was read with:
// one decimal stays one, two stay two, three or more are shown in full.
// A nil amount renders as zero.
func (f *Formatter) Currency(a *amount.Amount) string {
	if a == nil {
		return f.symbol + f.Number(decimal.Zero, amount.Places)
	}
	switch {
	case a.Decimals == 1:
		return f.symbol + f.Number(a.Raw, 1)
	case a.Decimals >= 3:
		return f.symbol + f.Number(a.Raw, a.Decimals)
	default:
		return f.symbol + f.Number(a.Value, amount.Places)
	}
}

// Total renders a computed total with two decimals.
func (f *Formatter) Total(d decimal.Decimal) string {
	return f.symbol + f.Number(d, amount.Places)
}

// Percentage renders d with two decimals and a percent sign.
func (f *Formatter) Percentage(d decimal.Decimal) string {
	return f.Number(d, 2) + "%"
}

// GrandTotalPercentage is the share shown on the grand-total row.
func (f *Formatter) GrandTotalPercentage() string {
	return "100%"
}

// Count renders an integer with locale grouping.
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Currency renders a with the default formatter.
func Currency(a *amount.Amount) string { return Default.Currency(a) }

// Total renders d with the default formatter.
func Total(d decimal.Decimal) string { return Default.Total(d) }

// Percentage renders d with the default formatter.
func Percentage(d decimal.Decimal) string { return Default.Percentage(d) }
