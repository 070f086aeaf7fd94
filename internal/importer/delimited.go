package importer

import (
	"strings"

	"github.com/split-proj/atmsplit/internal/model"
)

// noColumn marks a layout without that column.
const noColumn = -1

// DelimitedParser reads exports with one transaction per line and a fixed
// column position for reference, amount and date.
type DelimitedParser struct {
	Type      model.PaymentType
	Sep       string // "" splits on whitespace
	ColRef    int
	ColAmount int
	ColDate   int
	// CompactDate marks an MMDDYYYY date column.
	CompactDate bool
}

func delimitedLayouts() []*DelimitedParser {
	return []*DelimitedParser{
		{Type: model.BDO, Sep: "|", ColRef: 5, ColAmount: 9, ColDate: 2},
		{Type: model.PNB, Sep: "^", ColRef: 4, ColAmount: 6, ColDate: 1},
		{Type: model.CIS, Sep: "^", ColRef: 1, ColAmount: 2, ColDate: 0, CompactDate: true},
		{Type: model.ECPAY, Sep: ",", ColRef: 5, ColAmount: 6, ColDate: 2},
		{Type: model.Cebuana, Sep: ",", ColRef: 4, ColAmount: 6, ColDate: 1},
		{Type: model.PERALINK, Sep: ",", ColRef: 4, ColAmount: 5, ColDate: 1},
		{Type: model.Chinabank, Sep: "", ColRef: 3, ColAmount: 2, ColDate: 0, CompactDate: true},
	}
}

// Format returns the payment type name.
func (p *DelimitedParser) Format() string { return string(p.Type) }

// Separator returns the column separator, a space for whitespace layouts.
func (p *DelimitedParser) Separator() string {
	if p.Sep == "" {
		return " "
	}
	return p.Sep
}

// Split returns one Fields per line.
func (p *DelimitedParser) Split(lines []string) []model.Fields {
	rows := make([]model.Fields, 0, len(lines))
	for _, line := range lines {
		cells := p.cells(line)
		f := model.Fields{
			model.FieldSource: string(p.Type),
			model.FieldLine:   line,
		}
		setReference(f, cell(cells, p.ColRef))
		f[model.FieldAmount] = strings.ReplaceAll(cell(cells, p.ColAmount), ",", "")
		date := cell(cells, p.ColDate)
		if p.CompactDate {
			date = slashDate(date)
		}
		f[model.FieldDate] = date
		rows = append(rows, f)
	}
	return rows
}

func (p *DelimitedParser) cells(line string) []string {
	var parts []string
	if p.Sep == "" {
		parts = strings.Fields(line)
	} else {
		parts = strings.Split(strings.TrimSpace(line), p.Sep)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// refDigits is how many leading reference digits form the ATM reference.
const refDigits = 4

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// setReference stores the digits of raw as the reference and their first
// four as the ATM reference. Shorter references leave the ATM reference empty.
func setReference(f model.Fields, raw string) {
	d := digitsOf(raw)
	if d == "" {
		return
	}
	f[model.FieldReference] = d
	if len(d) >= refDigits {
		f[model.FieldATMReference] = d[:refDigits]
	}
}

// slashDate turns MMDDYYYY or MMDDYY into MM/DD/YYYY or MM/DD/YY.
func slashDate(s string) string {
	if (len(s) != 8 && len(s) != 6) || digitsOf(s) != s {
		return s
	}
	return s[:2] + "/" + s[2:4] + "/" + s[4:]
}
