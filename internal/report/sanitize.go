package report

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	unsafeName   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// DefaultBaseName is used when an upload has no usable file name.
const DefaultBaseName = "transactions"

// SafeName reduces s to a file-name fragment: markup stripped, anything
// outside letters, digits, dot, dash and underscore replaced by "_".
func SafeName(s string) string {
	s = strictPolicy.Sanitize(s)
	s = unsafeName.ReplaceAllString(s, "_")
	return strings.Trim(s, "._")
}

// Filename returns the archive name for an uploaded file:
// "BDO_0103.txt" becomes "BDO_0103_report.zip".
func Filename(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = SafeName(base)
	if base == "" {
		base = DefaultBaseName
	}
	return base + "_report.zip"
}

// guardFormula prefixes cells a spreadsheet would evaluate with a quote.
func guardFormula(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	switch trimmed[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
