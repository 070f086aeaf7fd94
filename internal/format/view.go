package format

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/split-proj/atmsplit/internal/aggregate"
)

// Row is one formatted bucket.
type Row struct {
	Key        string `json:"key"`
	Count      string `json:"count"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

// View is a summary rendered to display strings.
type View struct {
	Filter               string   `json:"filter"`
	TotalLines           string   `json:"total_lines"`
	ProcessedLines       string   `json:"processed_lines"`
	GrandTotal           string   `json:"grand_total"`
	GrandTotalPercentage string   `json:"grand_total_percentage"`
	PaymentTypes         []Row    `json:"payment_types"`
	ATMReferences        []Row    `json:"atm_references"`
	Prefixes             []Row    `json:"prefixes"`
	Areas                []Row    `json:"areas"`
	UnknownTypes         []string `json:"unknown_types"`
}

func (f *Formatter) rows(bs []aggregate.Bucket) []Row {
	out := make([]Row, 0, len(bs))
	for _, b := range bs {
		out = append(out, Row{
			Key:        b.Key,
			Count:      f.Count(b.Count),
			Amount:     f.Total(b.Amount),
			Percentage: f.Percentage(b.Percentage),
		})
	}
	return out
}

// View renders s.
func (f *Formatter) View(s aggregate.Summary) View {
	unknown := s.UnknownTypes
	if unknown == nil {
		unknown = []string{}
	}
	return View{
		Filter:               s.Filter,
		TotalLines:           f.Count(s.TotalLines),
		ProcessedLines:       f.Count(s.ProcessedLines),
		GrandTotal:           f.Total(s.GrandTotal),
		GrandTotalPercentage: f.GrandTotalPercentage(),
		PaymentTypes:         f.rows(s.ByPaymentType),
		ATMReferences:        f.rows(s.ByATMReference),
		Prefixes:             f.rows(s.ByPrefix),
		Areas:                f.rows(s.ByArea),
		UnknownTypes:         unknown,
	}
}

// Table writes v as aligned text sections.
func Table(w io.Writer, v View) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Filter:\t%s\n", v.Filter)
	fmt.Fprintf(tw, "Lines:\t%s (%s with amounts)\n", v.TotalLines, v.ProcessedLines)
	fmt.Fprintf(tw, "Grand total:\t%s\t%s\n", v.GrandTotal, v.GrandTotalPercentage)

	section := func(title, keyHeader string, rows []Row) {
		fmt.Fprintf(tw, "\n%s\n", title)
		fmt.Fprintf(tw, "%s\tCOUNT\tAMOUNT\tSHARE\n", keyHeader)
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Key, r.Count, r.Amount, r.Percentage)
		}
	}
	section("By payment type", "TYPE", v.PaymentTypes)
	section("By ATM reference", "REFERENCE", v.ATMReferences)
	section("By prefix", "PREFIX", v.Prefixes)
	section("By area", "AREA", v.Areas)

	if len(v.UnknownTypes) > 0 {
		fmt.Fprintf(tw, "\nUnknown payment types:\t%s\n", strings.Join(v.UnknownTypes, ", "))
	}
	return tw.Flush()
}
