// Package aggregate folds classified records into totals and breakdowns.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/split-proj/atmsplit/internal/model"
)

// AllTypes is the filter value meaning no filter.
const AllTypes = "All"

// EmptyLabel stands in for a blank source label in the unknown list.
const EmptyLabel = "(empty)"

var hundred = decimal.NewFromInt(100)

// Options controls aggregation.
type Options struct {
	// Filter keeps only records of one payment type. "" or "All" keeps all.
	Filter       string
	PrefixLength int
	AreaLength   int
}

// DefaultOptions groups prefixes by two characters and areas by one.
func DefaultOptions() Options {
	return Options{PrefixLength: 2, AreaLength: 1}
}

// Bucket is a count and amount total for one key.
type Bucket struct {
	Key        string
	Count      int
	Amount     decimal.Decimal
	Percentage decimal.Decimal // share of the grand total, 0..100
}

// Summary is the aggregate view of a record set.
type Summary struct {
	Filter         string
	TotalLines     int
	ProcessedLines int
	GrandTotal     decimal.Decimal
	ByPaymentType  []Bucket // largest amount first
	ByATMReference []Bucket // first-seen order
	ByPrefix       []Bucket
	ByArea         []Bucket
	UnknownTypes   []string // verbatim labels classified as Unknown
}

// Filtered reports whether the summary covers a single payment type.
func (s Summary) Filtered() bool {
	return !isAll(s.Filter)
}

func isAll(filter string) bool {
	f := strings.TrimSpace(filter)
	return f == "" || strings.EqualFold(f, AllTypes)
}

// buckets accumulates Buckets keyed by string, keeping first-seen order.
type buckets struct {
	index map[string]int
	list  []Bucket
}

func newBuckets() *buckets {
	return &buckets{index: make(map[string]int), list: []Bucket{}}
}

func (b *buckets) add(key string, amt decimal.Decimal) {
	i, ok := b.index[key]
	if !ok {
		i = len(b.list)
		b.index[key] = i
		b.list = append(b.list, Bucket{Key: key})
	}
	b.list[i].Count++
	b.list[i].Amount = b.list[i].Amount.Add(amt)
}

func (b *buckets) finish(grand decimal.Decimal) []Bucket {
	for i := range b.list {
		b.list[i].Percentage = Percentage(b.list[i].Amount, grand)
	}
	return b.list
}

// Percentage returns part as a share of whole in percent, or 0 when whole is 0.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

func head(s string, n int) string {
	if s == model.NoReference || n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

// Aggregate computes the summary of records under opts.
func Aggregate(records []model.Record, opts Options) Summary {
	s := Summary{Filter: AllTypes, GrandTotal: decimal.Zero, UnknownTypes: []string{}}
	if !isAll(opts.Filter) {
		s.Filter = strings.TrimSpace(opts.Filter)
	}

	types := newBuckets()
	refs := newBuckets()
	prefixes := newBuckets()
	areas := newBuckets()
	seenUnknown := make(map[string]bool)

	for _, r := range records {
		if s.Filtered() && !strings.EqualFold(string(r.PaymentType), s.Filter) {
			continue
		}
		s.TotalLines++
		amt := decimal.Zero
		if r.HasAmount() {
			s.ProcessedLines++
			amt = r.Amount.Value
		}
		s.GrandTotal = s.GrandTotal.Add(amt)

		pt := r.PaymentType
		if pt == "" {
			pt = model.Unknown
		}
		types.add(string(pt), amt)

		ref := r.ATMReference
		if ref == "" {
			ref = model.NoReference
		}
		refs.add(ref, amt)
		prefixes.add(head(ref, opts.PrefixLength), amt)
		areas.add(head(ref, opts.AreaLength), amt)

		if pt == model.Unknown {
			label := strings.TrimSpace(r.SourceLabel)
			if label == "" {
				label = EmptyLabel
			}
			if !seenUnknown[label] {
				seenUnknown[label] = true
				s.UnknownTypes = append(s.UnknownTypes, label)
			}
		}
	}

	s.ByPaymentType = types.finish(s.GrandTotal)
	sort.SliceStable(s.ByPaymentType, func(i, j int) bool {
		return s.ByPaymentType[i].Amount.GreaterThan(s.ByPaymentType[j].Amount)
	})
	s.ByATMReference = refs.finish(s.GrandTotal)
	s.ByPrefix = prefixes.finish(s.GrandTotal)
	s.ByArea = areas.finish(s.GrandTotal)
	return s
}

// PaymentTypes lists the filter choices for records: All, then each payment
// type in first-seen order.
func PaymentTypes(records []model.Record) []string {
	out := []string{AllTypes}
	seen := make(map[model.PaymentType]bool)
	for _, r := range records {
		if seen[r.PaymentType] {
			continue
		}
		seen[r.PaymentType] = true
		out = append(out, string(r.PaymentType))
	}
	return out
}
