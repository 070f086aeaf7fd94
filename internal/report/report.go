// Package report packages processed uploads into a downloadable archive.
package report

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/ingest"
	"github.com/split-proj/atmsplit/internal/model"
)

// Archive entry names.
const (
	SummaryCSV  = "transactions_summary.csv"
	SummaryXLSX = "transactions_summary.xlsx"
)

// Input is everything the archive is built from.
type Input struct {
	ProcessedData    []ingest.Group `json:"processed_data"`
	RawContents      []string       `json:"raw_contents"`
	Separator        string         `json:"separator"`
	OriginalFilename string         `json:"original_filename"`
}

// typeRow is a payment-type line of the summary.
type typeRow struct {
	Type   string
	Count  int
	Amount decimal.Decimal
	Share  decimal.Decimal
}

// totals is the computed content shared by the CSV and XLSX summaries.
type totals struct {
	Transactions int
	Amount       decimal.Decimal
	Types        []typeRow
}

func summarize(groups []ingest.Group) totals {
	t := totals{Amount: decimal.Zero}
	index := make(map[string]int)
	for _, g := range groups {
		t.Transactions += g.TransactionCount
		t.Amount = t.Amount.Add(g.TotalAmount)
		i, ok := index[g.PaymentType]
		if !ok {
			i = len(t.Types)
			index[g.PaymentType] = i
			t.Types = append(t.Types, typeRow{Type: g.PaymentType, Amount: decimal.Zero})
		}
		t.Types[i].Count += g.TransactionCount
		t.Types[i].Amount = t.Types[i].Amount.Add(g.TotalAmount)
	}
	for i := range t.Types {
		t.Types[i].Share = aggregate.Percentage(t.Types[i].Amount, t.Amount)
	}
	return t
}

// Build writes the report archive for in to w: the CSV and XLSX summaries
// followed by one ATM_<ref>.txt file of raw lines per group.
func Build(w io.Writer, in Input, f *format.Formatter) error {
	if f == nil {
		f = format.Default
	}
	t := summarize(in.ProcessedData)
	zw := zip.NewWriter(w)

	csvData, err := summaryCSV(in, t, f)
	if err != nil {
		return fmt.Errorf("writing summary CSV: %w", err)
	}
	if err := addFile(zw, SummaryCSV, csvData); err != nil {
		return err
	}

	xlsxData, err := summaryXLSX(in, t, f)
	if err != nil {
		return fmt.Errorf("writing summary workbook: %w", err)
	}
	if err := addFile(zw, SummaryXLSX, xlsxData); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, g := range in.ProcessedData {
		name := referenceFile(g.ATMReference, seen)
		var b strings.Builder
		for _, line := range rawLines(g) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if err := addFile(zw, name, []byte(b.String())); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing archive: %w", err)
	}
	return nil
}

// referenceFile names the text file for ref. References that sanitize to
// nothing use NOREF, and a name already in seen gets a numeric suffix.
func referenceFile(ref string, seen map[string]bool) string {
	base := SafeName(ref)
	if base == "" {
		base = model.NoReference
	}
	name := "ATM_" + base + ".txt"
	for n := 2; seen[name]; n++ {
		name = fmt.Sprintf("ATM_%s_%d.txt", base, n)
	}
	seen[name] = true
	return name
}

// rawLines prefers the group's raw lines and falls back to the original
// line of each transaction.
func rawLines(g ingest.Group) []string {
	if len(g.RawLines) > 0 {
		return g.RawLines
	}
	lines := make([]string, 0, len(g.Transactions))
	for _, tx := range g.Transactions {
		lines = append(lines, tx.OriginalLine)
	}
	return lines
}

func addFile(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func summaryCSV(in Input, t totals, f *format.Formatter) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	cw := csv.NewWriter(&buf)

	rows := [][]string{
		{"OVERALL SUMMARY REPORT"},
		{},
		{"Total Transactions", strconv.Itoa(t.Transactions)},
		{"Total Amount", f.Total(t.Amount)},
		{},
		{"PAYMENT TYPE BREAKDOWN"},
		{"Payment Type", "Transactions", "Amount", "Share"},
	}
	for _, r := range t.Types {
		rows = append(rows, []string{guardFormula(r.Type), strconv.Itoa(r.Count), f.Total(r.Amount), f.Percentage(r.Share)})
	}
	rows = append(rows,
		[]string{},
		[]string{"ATM REFERENCE BREAKDOWN"},
		[]string{"ATM Reference", "Transactions", "Amount", "Dates"},
	)
	for _, g := range in.ProcessedData {
		rows = append(rows, []string{
			guardFormula(g.ATMReference),
			strconv.Itoa(g.TransactionCount),
			f.Total(g.TotalAmount),
			guardFormula(strings.Join(g.Dates, ", ")),
		})
	}

	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}
