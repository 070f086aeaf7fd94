package classify

import (
	"maps"

	"github.com/split-proj/atmsplit/internal/amount"
	"github.com/split-proj/atmsplit/internal/model"
)

// Classifier turns tagged fields into Records.
type Classifier struct {
	Catalogue Catalogue
}

// New returns a Classifier over the default catalogue.
func New() *Classifier {
	return &Classifier{Catalogue: DefaultCatalogue}
}

// Classify builds a Record from fields. It never fails: an unmatched source
// becomes Unknown, a missing reference becomes NOREF and an unreadable
// amount stays nil.
func (c *Classifier) Classify(fields model.Fields) model.Record {
	label := fields.Get(model.FieldSource)
	rec := model.Record{
		PaymentType:  c.Catalogue.Match(label),
		SourceLabel:  label,
		ATMReference: fields.Get(model.FieldATMReference),
		Reference:    fields.Get(model.FieldReference),
		Date:         fields.Get(model.FieldDate),
		RawLine:      fields[model.FieldLine],
		Fields:       maps.Clone(fields),
	}
	if rec.ATMReference == "" {
		rec.ATMReference = model.NoReference
	}
	if a, ok := amount.Parse(fields.Get(model.FieldAmount)); ok {
		rec.Amount = &a
	} else if found := amount.Extract(rec.RawLine); len(found) > 0 {
		rec.Amount = &found[0]
	}
	return rec
}

// Classify runs a default Classifier over fields.
func Classify(fields model.Fields) model.Record {
	return New().Classify(fields)
}

// ClassifyAll classifies every row, numbering records from 1.
func (c *Classifier) ClassifyAll(rows []model.Fields) []model.Record {
	out := make([]model.Record, 0, len(rows))
	for i, f := range rows {
		rec := c.Classify(f)
		rec.Line = i + 1
		out = append(out, rec)
	}
	return out
}
