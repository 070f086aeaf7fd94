package aggregate

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/split-proj/atmsplit/internal/amount"
	"github.com/split-proj/atmsplit/internal/model"
)

func rec(pt model.PaymentType, ref, amt string) model.Record {
	r := model.Record{PaymentType: pt, SourceLabel: string(pt), ATMReference: ref}
	if amt != "" {
		a, ok := amount.Parse(amt)
		if !ok {
			panic("bad test amount " + amt)
		}
		r.Amount = &a
	}
	return r
}

func sample() []model.Record {
	unknown := rec(model.Unknown, "9999", "5.00")
	unknown.SourceLabel = "Smart Padala"
	blank := rec(model.Unknown, "", "")
	blank.SourceLabel = ""
	return []model.Record{
		rec(model.BDO, "1234", "100.00"),
		rec(model.BDO, "1299", "50.50"),
		rec(model.PNB, "5678", "200.00"),
		rec(model.BDO, "1234", ""),
		unknown,
		blank,
	}
}

func keys(bs []Bucket) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Key)
	}
	return out
}

func TestAggregate(t *testing.T) {
	s := Aggregate(sample(), DefaultOptions())

	assert.Equal(t, AllTypes, s.Filter)
	assert.Equal(t, 6, s.TotalLines)
	assert.Equal(t, 4, s.ProcessedLines)
	assert.Equal(t, "355.50", s.GrandTotal.StringFixed(2))

	assert.Equal(t, []string{"PNB", "BDO", "Unknown"}, keys(s.ByPaymentType))
	assert.Equal(t, 3, s.ByPaymentType[1].Count)
	assert.Equal(t, "150.50", s.ByPaymentType[1].Amount.StringFixed(2))

	assert.Equal(t, []string{"1234", "1299", "5678", "9999", model.NoReference}, keys(s.ByATMReference))
	assert.Equal(t, []string{"12", "56", "99", model.NoReference}, keys(s.ByPrefix))
	assert.Equal(t, []string{"1", "5", "9", model.NoReference}, keys(s.ByArea))
	assert.Equal(t, 3, s.ByPrefix[0].Count)

	assert.Equal(t, []string{"Smart Padala", EmptyLabel}, s.UnknownTypes)
	unknown := s.ByPaymentType[2]
	assert.Equal(t, string(model.Unknown), unknown.Key)
	assert.Equal(t, 2, unknown.Count, "every unknown line is counted, not each label once")
	assert.Equal(t, "5.00", unknown.Amount.StringFixed(2))
	assert.Empty(t, Validate(s))
}

func TestAggregate_UnknownCountKeepsMultiplicity(t *testing.T) {
	padala := rec(model.Unknown, "1111", "1.00")
	padala.SourceLabel = "Smart Padala"
	s := Aggregate([]model.Record{padala, padala, padala, rec(model.SM, "2222", "3.00")}, DefaultOptions())

	assert.Equal(t, []string{"Smart Padala"}, s.UnknownTypes)
	require.Len(t, s.ByPaymentType, 2)
	for _, b := range s.ByPaymentType {
		if b.Key == string(model.Unknown) {
			assert.Equal(t, 3, b.Count)
		}
	}
}

func TestAggregate_BucketsSumToGrandTotal(t *testing.T) {
	s := Aggregate(sample(), DefaultOptions())
	sum := decimal.Zero
	pct := decimal.Zero
	for _, b := range s.ByPaymentType {
		sum = sum.Add(b.Amount)
		pct = pct.Add(b.Percentage)
	}
	assert.True(t, sum.Equal(s.GrandTotal))
	assert.InDelta(t, 100.0, pct.InexactFloat64(), 0.01)
}

func TestAggregate_Filter(t *testing.T) {
	s := Aggregate(sample(), Options{Filter: "bdo", PrefixLength: 2, AreaLength: 1})

	assert.Equal(t, "bdo", s.Filter)
	assert.True(t, s.Filtered())
	assert.Equal(t, 3, s.TotalLines)
	assert.Equal(t, 2, s.ProcessedLines)
	assert.Equal(t, "150.50", s.GrandTotal.StringFixed(2))
	require.Len(t, s.ByPaymentType, 1)
	assert.True(t, s.ByPaymentType[0].Amount.Equal(s.GrandTotal))
	assert.Equal(t, "100.00", s.ByPaymentType[0].Percentage.StringFixed(2))
	assert.Empty(t, s.UnknownTypes)
}

func TestAggregate_AllFilterIsUnfiltered(t *testing.T) {
	a := Aggregate(sample(), Options{Filter: "all"})
	b := Aggregate(sample(), Options{})
	assert.Equal(t, b.TotalLines, a.TotalLines)
	assert.False(t, a.Filtered())
}

func TestAggregate_Empty(t *testing.T) {
	s := Aggregate(nil, DefaultOptions())
	assert.Equal(t, 0, s.TotalLines)
	assert.Equal(t, 0, s.ProcessedLines)
	assert.True(t, s.GrandTotal.IsZero())
	assert.NotNil(t, s.ByPaymentType)
	assert.Empty(t, s.ByPaymentType)
	assert.Empty(t, s.ByATMReference)
	assert.Empty(t, s.ByPrefix)
	assert.Empty(t, s.ByArea)
	assert.Empty(t, s.UnknownTypes)
	assert.Empty(t, Validate(s))
}

func TestAggregate_ZeroTotalPercentages(t *testing.T) {
	s := Aggregate([]model.Record{rec(model.SM, "1111", "")}, DefaultOptions())
	require.Len(t, s.ByPaymentType, 1)
	assert.True(t, s.ByPaymentType[0].Percentage.IsZero())
}

func TestAggregate_StableOrderOnTies(t *testing.T) {
	s := Aggregate([]model.Record{
		rec(model.SM, "1", "10.00"),
		rec(model.CIS, "2", "10.00"),
		rec(model.BDO, "3", "10.00"),
	}, DefaultOptions())
	assert.Equal(t, []string{"SM", "CIS", "BDO"}, keys(s.ByPaymentType))
}

func TestValidate_DetectsBrokenSummary(t *testing.T) {
	s := Aggregate(sample(), DefaultOptions())
	s.GrandTotal = s.GrandTotal.Add(decimal.NewFromInt(1))
	s.ProcessedLines = 99
	s.UnknownTypes = nil

	errs := Validate(s)
	var invariants []int
	for _, e := range errs {
		invariants = append(invariants, e.Invariant)
	}
	assert.Equal(t, []int{1, 3, 5, 6}, invariants)
	assert.Contains(t, errs[0].Error(), "invariant 1 [payment_type]")
}

func TestValidate_RejectsUncataloguedType(t *testing.T) {
	s := Aggregate([]model.Record{rec(model.PaymentType("GCASH"), "1234", "10.00")}, DefaultOptions())
	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, 7, errs[0].Invariant)
	assert.Equal(t, "GCASH", errs[0].Key)
}

func TestValidationError_JSON(t *testing.T) {
	data, err := json.Marshal(ValidationError{Invariant: 1, Key: "payment_type", Description: "off"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"invariant":1,"key":"payment_type","description":"off"}`, string(data))
}

func TestPaymentTypes(t *testing.T) {
	assert.Equal(t, []string{"All", "BDO", "PNB", "Unknown"}, PaymentTypes(sample()))
	assert.Equal(t, []string{"All"}, PaymentTypes(nil))
}

func TestByReference(t *testing.T) {
	groups := ByReference(sample())
	require.Len(t, groups, 5)
	assert.Equal(t, "1234", groups[0].Key)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, model.NoReference, groups[4].Key)
}

func TestSearch(t *testing.T) {
	records := sample()
	records[0].RawLine = "BDO|JUAN|100.00"
	assert.Len(t, Search(records, "juan"), 1)
	assert.Len(t, Search(records, "pnb"), 1)
	assert.Len(t, Search(records, "smart"), 1)
	assert.Len(t, Search(records, ""), len(records))
	assert.Empty(t, Search(records, "nothing matches"))
}
