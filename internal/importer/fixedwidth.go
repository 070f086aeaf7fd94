package importer

import (
	"regexp"
	"strings"

	"github.com/split-proj/atmsplit/internal/amount"
	"github.com/split-proj/atmsplit/internal/model"
)

var (
	metroAmount = regexp.MustCompile(`(\d{11,12})[A-Z]`)
	metroDate   = regexp.MustCompile(`(\d{6})\d*$`)

	ubRef14    = regexp.MustCompile(`\s{10,}(\d{14})\s+`)
	ubRefAny   = regexp.MustCompile(`\s{10,}(\d{4,})\s+`)
	ubAmount   = regexp.MustCompile(`(\d{12})(?:DB|LC)\d*\s*$`)
	ubDate     = regexp.MustCompile(`UB\d+\s+(\d{6})`)
	ubFallback = "0000"
)

// cents converts an implied-decimal digit string into a plain amount field.
func cents(digits string) string {
	a, ok := amount.FromCents(digits)
	if !ok {
		return ""
	}
	return a.Raw.StringFixed(amount.Places)
}

func submatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// MetrobankParser reads Metrobank space-separated exports with implied-cents
// amounts followed by a transaction code letter.
type MetrobankParser struct{}

// Format returns the payment type name.
func (p *MetrobankParser) Format() string { return string(model.Metrobank) }

// Separator returns a space.
func (p *MetrobankParser) Separator() string { return " " }

// Split returns one Fields per line.
func (p *MetrobankParser) Split(lines []string) []model.Fields {
	rows := make([]model.Fields, 0, len(lines))
	for _, line := range lines {
		f := model.Fields{
			model.FieldSource: string(model.Metrobank),
			model.FieldLine:   line,
		}
		if parts := strings.Fields(line); len(parts) > 1 {
			ref := parts[1]
			f[model.FieldReference] = ref
			if len(ref) > refDigits {
				ref = ref[:refDigits]
			}
			f[model.FieldATMReference] = ref
		}
		f[model.FieldAmount] = cents(submatch(metroAmount, line))
		f[model.FieldDate] = slashDate(submatch(metroDate, line))
		rows = append(rows, f)
	}
	return rows
}

// UnionbankParser reads Unionbank fixed-width statements. Transaction lines
// are at least 200 characters; shorter lines continue the previous
// transaction.
type UnionbankParser struct{}

// unionbankMinLine is the shortest line that carries a transaction.
const unionbankMinLine = 200

// Format returns the payment type name.
func (p *UnionbankParser) Format() string { return string(model.Unionbank) }

// Separator returns a comma, the report default.
func (p *UnionbankParser) Separator() string { return "," }

// Split returns one Fields per transaction line. Continuation lines are
// appended to the previous transaction's raw line; before any transaction
// they form a record of their own without a reference.
func (p *UnionbankParser) Split(lines []string) []model.Fields {
	var rows []model.Fields
	for _, line := range lines {
		if len(line) < unionbankMinLine {
			if len(rows) > 0 {
				last := rows[len(rows)-1]
				last[model.FieldLine] += "\n" + line
				continue
			}
			rows = append(rows, model.Fields{
				model.FieldSource: string(model.Unionbank),
				model.FieldLine:   line,
			})
			continue
		}
		f := model.Fields{
			model.FieldSource: string(model.Unionbank),
			model.FieldLine:   line,
		}
		ref := unionbankReference(line)
		f[model.FieldReference] = ref
		f[model.FieldATMReference] = ref[:refDigits]
		f[model.FieldAmount] = cents(submatch(ubAmount, line))
		f[model.FieldDate] = slashDate(submatch(ubDate, line))
		rows = append(rows, f)
	}
	return rows
}

func unionbankReference(line string) string {
	if all := ubRef14.FindAllStringSubmatch(line, -1); len(all) > 0 {
		return all[len(all)-1][1]
	}
	if ref := submatch(ubRefAny, line); ref != "" {
		return ref
	}
	if parts := strings.Fields(line); len(parts) > 4 {
		if d := digitsOf(parts[4]); len(d) >= refDigits {
			return d
		}
	}
	return ubFallback
}

// SMParser reads SM store fixed-width exports.
type SMParser struct{}

const (
	smMinLine  = 45
	smRefStart = 18
	smRefEnd   = 31
	smDateFrom = 3
	smDateTo   = 11
	// smAmountWidth is how far back from "CS" the amount digits may reach.
	smAmountWidth = 9
)

// Format returns the payment type name.
func (p *SMParser) Format() string { return string(model.SM) }

// Separator returns a comma, the report default.
func (p *SMParser) Separator() string { return "," }

// Split returns one Fields per line. Lines shorter than the fixed record
// width keep no reference.
func (p *SMParser) Split(lines []string) []model.Fields {
	rows := make([]model.Fields, 0, len(lines))
	for _, line := range lines {
		f := model.Fields{
			model.FieldSource: string(model.SM),
			model.FieldLine:   line,
		}
		if len(line) >= smMinLine {
			ref := strings.TrimSpace(line[smRefStart:smRefEnd])
			f[model.FieldReference] = ref
			if len(ref) >= refDigits {
				f[model.FieldATMReference] = ref[:refDigits]
			} else {
				f[model.FieldATMReference] = ref
			}
			f[model.FieldAmount] = cents(smAmountDigits(line))
			f[model.FieldDate] = slashDate(line[smDateFrom:smDateTo])
		}
		rows = append(rows, f)
	}
	return rows
}

// smAmountDigits returns the digits immediately before the first "CS".
func smAmountDigits(line string) string {
	cs := strings.Index(line, "CS")
	if cs <= 0 {
		return ""
	}
	start := cs
	for start > 0 && cs-start < smAmountWidth && line[start-1] >= '0' && line[start-1] <= '9' {
		start--
	}
	return line[start:cs]
}
