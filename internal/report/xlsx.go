package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/split-proj/atmsplit/internal/format"
)

const (
	sheetSummary    = "Summary"
	sheetReferences = "ATM References"
	sheetRaw        = "Raw Lines"
)

// summaryXLSX builds the workbook: totals and payment types, the
// per-reference breakdown, and the raw lines split into columns.
func summaryXLSX(in Input, t totals, fm *format.Formatter) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Creator: "atmsplit",
		Title:   "Transactions summary",
	})

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetReferences, sheetRaw} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	numStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	if err := writeSummarySheet(f, t, fm, headerStyle, numStyle); err != nil {
		return nil, err
	}
	if err := writeReferenceSheet(f, in, headerStyle, numStyle); err != nil {
		return nil, err
	}
	if err := writeRawSheet(f, in); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func writeSummarySheet(f *excelize.File, t totals, fm *format.Formatter, headerStyle, numStyle int) error {
	rows := [][]any{
		{"OVERALL SUMMARY REPORT"},
		{"Total Transactions", t.Transactions},
		{"Total Amount", t.Amount.InexactFloat64()},
		{},
		{"Payment Type", "Transactions", "Amount", "Share"},
	}
	for _, r := range t.Types {
		rows = append(rows, []any{guardFormula(r.Type), r.Count, r.Amount.InexactFloat64(), fm.Percentage(r.Share)})
	}
	for i, r := range rows {
		if err := setRow(f, sheetSummary, i+1, r); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetSummary, "A5", "D5", headerStyle); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "B3", "B3", numStyle); err != nil {
		return err
	}
	if len(t.Types) > 0 {
		last := fmt.Sprintf("C%d", len(rows))
		if err := f.SetCellStyle(sheetSummary, "C6", last, numStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetSummary, "A", "A", 24)
}

func writeReferenceSheet(f *excelize.File, in Input, headerStyle, numStyle int) error {
	if err := setRow(f, sheetReferences, 1, []any{"ATM Reference", "Payment Type", "Transactions", "Amount", "Dates"}); err != nil {
		return err
	}
	for i, g := range in.ProcessedData {
		row := []any{
			guardFormula(g.ATMReference),
			guardFormula(g.PaymentType),
			g.TransactionCount,
			g.TotalAmount.InexactFloat64(),
			guardFormula(strings.Join(g.Dates, ", ")),
		}
		if err := setRow(f, sheetReferences, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheetReferences, "A1", "E1", headerStyle); err != nil {
		return err
	}
	if n := len(in.ProcessedData); n > 0 {
		if err := f.SetCellStyle(sheetReferences, "D2", fmt.Sprintf("D%d", n+1), numStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheetReferences, "E", "E", 40); err != nil {
		return err
	}
	return f.SetPanes(sheetReferences, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// writeRawSheet splits each raw line on the upload's separator, one cell
// per field. A blank separator keeps whole lines.
func writeRawSheet(f *excelize.File, in Input) error {
	for i, line := range in.RawContents {
		var cells []string
		switch sep := in.Separator; {
		case sep == "":
			cells = []string{line}
		case strings.TrimSpace(sep) == "":
			cells = strings.Fields(line)
		default:
			cells = strings.Split(line, sep)
		}
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = guardFormula(strings.TrimSpace(c))
		}
		if err := setRow(f, sheetRaw, i+1, row); err != nil {
			return err
		}
	}
	return nil
}
