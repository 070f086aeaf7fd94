package importer

import (
	"regexp"
	"strings"

	"github.com/split-proj/atmsplit/internal/amount"
	"github.com/split-proj/atmsplit/internal/classify"
	"github.com/split-proj/atmsplit/internal/model"
)

// FixedWidth is the separator name for column-aligned exports.
const FixedWidth = "fixed-width"

// AutoFormat is the registry key of the generic parser.
const AutoFormat = "auto"

var spaceRun = regexp.MustCompile(`\s{2,}`)

// DetectSeparator picks the most frequent of "|", "^", "," and runs of two
// or more spaces in line. Ties go to the earlier candidate; no hit at all
// means fixed-width.
func DetectSeparator(line string) string {
	counts := []struct {
		sep string
		n   int
	}{
		{"|", strings.Count(line, "|")},
		{"^", strings.Count(line, "^")},
		{",", strings.Count(line, ",")},
		{FixedWidth, len(spaceRun.FindAllStringIndex(line, -1))},
	}
	best, bestN := FixedWidth, 0
	for _, c := range counts {
		if c.n > bestN {
			best, bestN = c.sep, c.n
		}
	}
	return best
}

// AutoParser handles exports of unknown origin. The separator is detected
// from the first line and the payment source is read from each row.
type AutoParser struct{}

// Format returns "auto".
func (p *AutoParser) Format() string { return AutoFormat }

// Separator returns a comma, the report default.
func (p *AutoParser) Separator() string { return "," }

// SeparatorFor returns the separator detected in lines, for reports.
func (p *AutoParser) SeparatorFor(lines []string) string {
	if len(lines) == 0 {
		return p.Separator()
	}
	switch sep := DetectSeparator(lines[0]); sep {
	case FixedWidth:
		return p.Separator()
	default:
		return sep
	}
}

// Split detects the separator and reads source, reference, amount and date
// from the first cell of each kind.
func (p *AutoParser) Split(lines []string) []model.Fields {
	sep := FixedWidth
	if len(lines) > 0 {
		sep = DetectSeparator(lines[0])
	}
	rows := make([]model.Fields, 0, len(lines))
	for _, line := range lines {
		cells := splitCells(line, sep)
		f := model.Fields{
			model.FieldSource: classify.DetectSource(cells),
			model.FieldLine:   line,
		}
		refCol, amountCol, dateCol := noColumn, noColumn, noColumn
		for i, c := range cells {
			switch {
			case dateCol == noColumn && classify.IsDate(c):
				dateCol = i
			case amountCol == noColumn && amount.LooksLike(c):
				amountCol = i
			case refCol == noColumn && len(c) >= refDigits && digitsOf(c) == c:
				refCol = i
			}
		}
		setReference(f, cell(cells, refCol))
		f[model.FieldAmount] = cell(cells, amountCol)
		f[model.FieldDate] = cell(cells, dateCol)
		rows = append(rows, f)
	}
	return rows
}

func splitCells(line, sep string) []string {
	var parts []string
	switch sep {
	case FixedWidth:
		parts = spaceRun.Split(strings.TrimSpace(line), -1)
	default:
		parts = strings.Split(line, sep)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
