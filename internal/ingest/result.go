package ingest

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/cleaner"
	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/importer"
	"github.com/split-proj/atmsplit/internal/model"
)

// Status is the processing state of an upload.
type Status string

const (
	StatusInitialized Status = "initialized"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
)

// Transaction is one record as shown to clients.
type Transaction struct {
	Line        int              `json:"line"`
	PaymentType string           `json:"payment_type"`
	Amount      *decimal.Decimal `json:"amount"`
	// DisplayAmount keeps the precision the amount was read with.
	DisplayAmount string `json:"display_amount"`
	OriginalLine  string `json:"original_line"`
	CleanedLine   string `json:"cleaned_line"`
	DisplayRef    string `json:"display_ref"`
	Date          string `json:"date"`
}

// Group is the transactions sharing an ATM reference.
type Group struct {
	ATMReference     string          `json:"atm_reference"`
	PaymentType      string          `json:"payment_type"`
	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Dates            []string        `json:"dates"`
	RawLines         []string        `json:"raw_lines"`
	CleanedLines     []string        `json:"cleaned_lines"`
	Transactions     []Transaction   `json:"transactions"`
}

// Totals is the headline count and amount of an upload.
type Totals struct {
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TotalTransactions int             `json:"total_transactions"`
}

// Result is the state and outcome of one upload.
type Result struct {
	ID            string   `json:"processing_id"`
	Filename      string   `json:"filename"`
	Status        Status   `json:"status"`
	Progress      int      `json:"progress"`
	Format        string   `json:"format,omitempty"`
	ProcessedData []Group  `json:"processed_data,omitempty"`
	RawContents   []string `json:"raw_contents,omitempty"`
	Separator     string   `json:"separator,omitempty"`
	Summary       *Totals  `json:"summary,omitempty"`
	Error         string   `json:"error,omitempty"`

	// Records backs the summary view and is not sent to clients.
	Records []model.Record `json:"-"`
}

// displayRef is the fullest reference known for r.
func displayRef(r model.Record) string {
	if r.Reference != "" {
		return r.Reference
	}
	return r.ATMReference
}

// Groups builds the per-reference view of records in first-seen order,
// rendering amounts with f (format.Default when nil).
func Groups(records []model.Record, f *format.Formatter) []Group {
	if f == nil {
		f = format.Default
	}
	out := []Group{}
	for _, g := range aggregate.ByReference(records) {
		grp := Group{
			ATMReference: g.Key,
			TotalAmount:  decimal.Zero,
			Dates:        []string{},
			Transactions: make([]Transaction, 0, len(g.Records)),
		}
		seenDates := make(map[string]bool)
		for _, r := range g.Records {
			if grp.PaymentType == "" {
				grp.PaymentType = string(r.PaymentType)
			}
			tx := Transaction{
				Line:         r.Line,
				PaymentType:  string(r.PaymentType),
				OriginalLine:  r.RawLine,
				CleanedLine:   cleaner.Clean(r.RawLine),
				DisplayRef:    displayRef(r),
				Date:          r.Date,
				DisplayAmount: f.Currency(r.Amount),
			}
			if r.HasAmount() {
				v := r.Amount.Value
				tx.Amount = &v
				grp.TotalAmount = grp.TotalAmount.Add(v)
			}
			if r.Date != "" && !seenDates[r.Date] {
				seenDates[r.Date] = true
				grp.Dates = append(grp.Dates, r.Date)
			}
			grp.RawLines = append(grp.RawLines, strings.Split(r.RawLine, "\n")...)
			grp.Transactions = append(grp.Transactions, tx)
		}
		grp.TransactionCount = len(grp.Transactions)
		grp.CleanedLines = cleaner.CleanAll(grp.RawLines)
		sort.Strings(grp.Dates)
		out = append(out, grp)
	}
	return out
}

// completed fills res from an imported batch.
func completed(res Result, b *importer.Batch, f *format.Formatter) Result {
	res.Status = StatusCompleted
	res.Progress = 100
	res.Format = b.Format
	res.Separator = b.Separator
	res.RawContents = b.RawLines
	res.Records = b.Records
	res.ProcessedData = Groups(b.Records, f)

	totals := Totals{TotalAmount: decimal.Zero}
	for _, r := range b.Records {
		totals.TotalTransactions++
		if r.HasAmount() {
			totals.TotalAmount = totals.TotalAmount.Add(r.Amount.Value)
		}
	}
	res.Summary = &totals
	return res
}
