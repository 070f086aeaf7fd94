// Package classify assigns payment types, ATM references and amounts to
// parsed transaction lines.
package classify

import (
	"regexp"
	"strings"

	"github.com/split-proj/atmsplit/internal/model"
)

// Entry lists the spellings a payment source is known by.
type Entry struct {
	Type       model.PaymentType
	Variations []string
}

// Catalogue is an ordered list of known payment sources.
type Catalogue []Entry

// DefaultCatalogue holds the payment sources found in biller exports.
var DefaultCatalogue = Catalogue{
	{model.BayadCenter, []string{"BAYADCENTER", "BAYAD CENTER", "BAYAD", "BYC"}},
	{model.BDO, []string{"BDO", "BANCO DE ORO"}},
	{model.PNB, []string{"PNB", "PHILIPPINE NATIONAL BANK"}},
	{model.Cebuana, []string{"CEBUANA", "CEBUANA LHUILLIER", "CEBUANA LHUILIER"}},
	{model.Chinabank, []string{"CHINABANK", "CHINA BANK", "CHINA SAVINGS BANK"}},
	{model.CIS, []string{"CIS", "CIS BAYAD"}},
	{model.Metrobank, []string{"METROBANK", "METRO BANK", "METRO"}},
	{model.Unionbank, []string{"UNIONBANK", "UNION BANK", "UNION BANK OF THE PHILIPPINES"}},
	{model.ECPAY, []string{"ECPAY", "EC PAY", "G-XCHANGE INC (MYNT)", "G-XCHANGE", "MYNT"}},
	{model.PERALINK, []string{"PERALINK", "PERA LINK"}},
	{model.SM, []string{"SM", "SM STORE", "SM SUPERMARKET"}},
}

var nonWord = regexp.MustCompile(`[^A-Z0-9]+`)

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

func words(s string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToUpper(s), " "))
}

// Match returns the payment type for a source label. An exact match on any
// spelling wins; otherwise the longest spelling found as whole words in the
// label decides. Labels matching nothing are Unknown.
func (c Catalogue) Match(label string) model.PaymentType {
	norm := normalize(label)
	if norm == "" {
		return model.Unknown
	}
	for _, e := range c {
		if norm == strings.ToUpper(string(e.Type)) {
			return e.Type
		}
		for _, v := range e.Variations {
			if norm == v {
				return e.Type
			}
		}
	}

	padded := " " + words(norm) + " "
	best, bestLen := model.Unknown, 0
	for _, e := range c {
		for _, v := range e.Variations {
			w := words(v)
			if w == "" || len(w) <= bestLen {
				continue
			}
			if strings.Contains(padded, " "+w+" ") {
				best, bestLen = e.Type, len(w)
			}
		}
	}
	return best
}

// Match classifies label against DefaultCatalogue.
func Match(label string) model.PaymentType {
	return DefaultCatalogue.Match(label)
}

// FromFilename guesses the payment type of an export from its file name.
// Keywords are checked in a fixed priority order, so "BDO_UB.txt" is BDO.
func FromFilename(name string) model.PaymentType {
	up := strings.ToUpper(name)
	switch {
	case strings.Contains(up, "ECPAY"):
		return model.ECPAY
	case strings.Contains(up, "BDO"):
		return model.BDO
	case strings.Contains(up, "CEBUANA"):
		return model.Cebuana
	case strings.Contains(up, "PERALINK"):
		return model.PERALINK
	case strings.Contains(up, "CHINABANK"), strings.Contains(up, "CHINA BANK"):
		return model.Chinabank
	case strings.Contains(up, "CIS"):
		return model.CIS
	case strings.Contains(up, "METROBANK"), strings.Contains(up, "METRO BANK"):
		return model.Metrobank
	case strings.Contains(up, "PNB"):
		return model.PNB
	case strings.Contains(up, "UB"), strings.Contains(up, "UNIONBANK"):
		return model.Unionbank
	case strings.Contains(up, "SM"):
		return model.SM
	}
	return model.Unknown
}

var (
	referenceCell = regexp.MustCompile(`^\d{14}$`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDate     = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// IsDate reports whether a cell is a YYYY-MM-DD or MM/DD/YYYY date.
func IsDate(cell string) bool {
	cell = strings.TrimSpace(cell)
	return isoDate.MatchString(cell) || slashDate.MatchString(cell)
}

// DetectSource picks the cell of a delimited row that names its payment
// source: the first cell if it matches, else the first other cell that is
// neither a reference nor a date and matches. Without a match the first
// cell is returned verbatim.
func DetectSource(cells []string) string {
	if len(cells) == 0 {
		return ""
	}
	first := strings.TrimSpace(cells[0])
	if Match(first) != model.Unknown {
		return first
	}
	for _, cell := range cells[1:] {
		cell = strings.TrimSpace(cell)
		if referenceCell.MatchString(cell) || IsDate(cell) {
			continue
		}
		if Match(cell) != model.Unknown {
			return cell
		}
	}
	return first
}
