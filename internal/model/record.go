package model

import (
	"strings"

	"github.com/split-proj/atmsplit/internal/amount"
)

// Field names a value carried from a source line into classification.
type Field string

const (
	FieldSource       Field = "source"        // payment-source label
	FieldReference    Field = "reference"     // full reference digits
	FieldATMReference Field = "atm_reference" // grouping key
	FieldAmount       Field = "amount"
	FieldDate         Field = "date"
	FieldLine         Field = "line" // raw line as read
)

// Fields is the tagged-field form of one source line.
type Fields map[Field]string

// Get returns the trimmed value for f, or "".
func (f Fields) Get(name Field) string {
	return strings.TrimSpace(f[name])
}

// NoReference is the group key for lines without an ATM reference.
const NoReference = "NOREF"

// Record is a classified transaction line.
type Record struct {
	Line         int // 1-based position in the source file
	PaymentType  PaymentType
	SourceLabel  string // value the payment type was derived from
	ATMReference string
	Reference    string
	Amount       *amount.Amount // nil when no amount could be read
	Date         string
	RawLine      string
	Fields       Fields // the tagged fields the record was classified from
}

// HasAmount reports whether the record contributes to amount totals.
func (r Record) HasAmount() bool {
	return r.Amount != nil
}
