// Package amount finds, validates and rounds monetary values in transaction text.
package amount

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the precision every stored amount is rounded to.
const Places = 2

var (
	// Max is the exclusive upper bound for a single transaction amount.
	Max = decimal.NewFromInt(1_000_000)

	tokenPattern  = regexp.MustCompile(`^\d+\.\d{1,4}$`)
	valuePattern  = regexp.MustCompile(`^\d+\.\d+$`)
	centsPattern  = regexp.MustCompile(`^\d+$`)
	currencyMarks = strings.NewReplacer("₱", "", "PHP", "", "Php", "", "php", "", "$", "", ",", "")
)

// Amount is a positive money value as read from a source line.
type Amount struct {
	// Value is rounded to two places and is what totals are built from.
	Value decimal.Decimal
	// Raw is the unrounded value found in the text.
	Raw decimal.Decimal
	// Decimals is how many fractional digits the source text carried.
	Decimals int32
}

// New builds an Amount from a decimal value with the given source precision.
func New(raw decimal.Decimal, decimals int32) Amount {
	return Amount{
		Value:    raw.Round(Places),
		Raw:      raw,
		Decimals: decimals,
	}
}

// FromDecimal wraps a computed value (a total, a sum) as a two-place Amount.
func FromDecimal(d decimal.Decimal) Amount {
	return New(d.Round(Places), Places)
}

// String returns the rounded value with two decimals.
func (a Amount) String() string {
	return a.Value.StringFixed(Places)
}

// InRange reports whether d is inside the accepted (0, 1,000,000) window.
func InRange(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(Max)
}

// Extract scans free text for decimal tokens and returns the valid ones in order.
// A token is a maximal run of digits and dots that is exactly digits, a point,
// and one to four digits. Tokens outside (0, 1,000,000) are dropped.
func Extract(text string) []Amount {
	var out []Amount
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		tok := text[start:end]
		start = -1
		if !tokenPattern.MatchString(tok) {
			return
		}
		if a, ok := parseToken(tok); ok {
			out = append(out, a)
		}
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c >= '0' && c <= '9') || c == '.' {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))
	return out
}

// Sum adds the extracted amounts of text. Each token is rounded before it is
// added and the sum is rounded once more at the end.
func Sum(text string) Amount {
	total := decimal.Zero
	for _, a := range Extract(text) {
		total = total.Add(a.Value)
	}
	return FromDecimal(total)
}

// LooksLike reports whether a single field holds an amount: after removing
// currency markers, commas and spaces the whole value must be digits.digits.
func LooksLike(value string) bool {
	return valuePattern.MatchString(strip(value))
}

// Parse converts a delimited field into an Amount. The field must pass
// LooksLike and fall inside the accepted range.
func Parse(value string) (Amount, bool) {
	s := strip(value)
	if !valuePattern.MatchString(s) {
		return Amount{}, false
	}
	return parseToken(s)
}

// FromCents parses an implied-decimal digit string such as "000000123456"
// (1234.56), used by fixed-width bank exports.
func FromCents(digits string) (Amount, bool) {
	digits = strings.TrimSpace(digits)
	if !centsPattern.MatchString(digits) {
		return Amount{}, false
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return Amount{}, false
	}
	d = d.Shift(-Places)
	if !InRange(d) {
		return Amount{}, false
	}
	return New(d, Places), true
}

func parseToken(tok string) (Amount, bool) {
	d, err := decimal.NewFromString(tok)
	if err != nil || !InRange(d) {
		return Amount{}, false
	}
	decimals := int32(0)
	if i := strings.IndexByte(tok, '.'); i >= 0 {
		decimals = int32(len(tok) - i - 1)
	}
	return New(d, decimals), true
}

func strip(value string) string {
	s := currencyMarks.Replace(strings.TrimSpace(value))
	s = strings.Join(strings.Fields(s), "")
	// A bare "P" prefix is the peso sign on terminals without ₱.
	if strings.HasPrefix(s, "P") || strings.HasPrefix(s, "p") {
		s = s[1:]
	}
	return s
}
