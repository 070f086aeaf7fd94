package aggregate

import (
	"strings"

	"github.com/split-proj/atmsplit/internal/cleaner"
	"github.com/split-proj/atmsplit/internal/model"
)

// Group is the records sharing a key, in file order.
type Group struct {
	Key     string
	Records []model.Record
}

// GroupBy partitions records by key. Groups are created on first
// occurrence and keep that order.
func GroupBy(records []model.Record, key func(model.Record) string) []Group {
	index := make(map[string]int)
	groups := []Group{}
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}

// ByReference groups records by ATM reference.
func ByReference(records []model.Record) []Group {
	return GroupBy(records, func(r model.Record) string {
		if r.ATMReference == "" {
			return model.NoReference
		}
		return r.ATMReference
	})
}

// Search returns the records whose cleaned line, reference or payment type
// contains query, ignoring case. An empty query returns records unchanged.
func Search(records []model.Record, query string) []model.Record {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	out := []model.Record{}
	for _, r := range records {
		hay := strings.ToLower(strings.Join([]string{
			cleaner.Clean(r.RawLine),
			r.ATMReference,
			r.Reference,
			string(r.PaymentType),
			r.SourceLabel,
		}, " "))
		if strings.Contains(hay, q) {
			out = append(out, r)
		}
	}
	return out
}
