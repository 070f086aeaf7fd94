package aggregate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/split-proj/atmsplit/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int    `json:"invariant"`
	Key         string `json:"key"`
	Description string `json:"description"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.Key, e.Description)
}

// percentTolerance bounds rounding drift in summed percentages.
var percentTolerance = decimal.RequireFromString("0.01")

// Validate enforces 7 invariants on a summary.
func Validate(s Summary) []ValidationError {
	var errs []ValidationError

	// Invariant 1: payment-type amounts sum to the grand total.
	typeTotal, typeCount, pctTotal := decimal.Zero, 0, decimal.Zero
	for _, b := range s.ByPaymentType {
		typeTotal = typeTotal.Add(b.Amount)
		typeCount += b.Count
		pctTotal = pctTotal.Add(b.Percentage)
	}
	if !typeTotal.Equal(s.GrandTotal) {
		errs = append(errs, ValidationError{
			Invariant:   1,
			Key:         "payment_type",
			Description: fmt.Sprintf("bucket total (%s) != grand total (%s)", typeTotal.StringFixed(2), s.GrandTotal.StringFixed(2)),
		})
	}

	// Invariant 2: payment-type counts sum to the line count.
	if typeCount != s.TotalLines {
		errs = append(errs, ValidationError{
			Invariant:   2,
			Key:         "payment_type",
			Description: fmt.Sprintf("bucket count %d != total lines %d", typeCount, s.TotalLines),
		})
	}

	// Invariant 3: processed lines never exceed total lines.
	if s.ProcessedLines > s.TotalLines || s.ProcessedLines < 0 {
		errs = append(errs, ValidationError{
			Invariant:   3,
			Key:         "lines",
			Description: fmt.Sprintf("processed %d outside 0..%d", s.ProcessedLines, s.TotalLines),
		})
	}

	// Invariant 4: percentages cover 100% of a non-zero total.
	if s.GrandTotal.IsPositive() && pctTotal.Sub(hundred).Abs().GreaterThan(percentTolerance) {
		errs = append(errs, ValidationError{
			Invariant:   4,
			Key:         "payment_type",
			Description: fmt.Sprintf("percentages sum to %s", pctTotal.StringFixed(2)),
		})
	}

	// Invariant 5: an Unknown bucket exists exactly when unknown labels are listed.
	hasUnknown := false
	for _, b := range s.ByPaymentType {
		if b.Key == string(model.Unknown) {
			hasUnknown = true
		}
	}
	if hasUnknown != (len(s.UnknownTypes) > 0) {
		errs = append(errs, ValidationError{
			Invariant:   5,
			Key:         string(model.Unknown),
			Description: fmt.Sprintf("unknown bucket present=%t, labels=%d", hasUnknown, len(s.UnknownTypes)),
		})
	}

	// Invariant 6: ATM reference amounts sum to the grand total.
	refTotal := decimal.Zero
	for _, b := range s.ByATMReference {
		refTotal = refTotal.Add(b.Amount)
	}
	if !refTotal.Equal(s.GrandTotal) {
		errs = append(errs, ValidationError{
			Invariant:   6,
			Key:         "atm_reference",
			Description: fmt.Sprintf("reference total (%s) != grand total (%s)", refTotal.StringFixed(2), s.GrandTotal.StringFixed(2)),
		})
	}

	// Invariant 7: every payment-type bucket is a known type or Unknown.
	for _, b := range s.ByPaymentType {
		pt := model.PaymentType(b.Key)
		if !pt.Known() && pt != model.Unknown {
			errs = append(errs, ValidationError{
				Invariant:   7,
				Key:         b.Key,
				Description: fmt.Sprintf("payment type %q is not in the catalogue", b.Key),
			})
		}
	}

	return errs
}
