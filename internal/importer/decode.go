package importer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyFile is returned for uploads with no content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrBinaryContent is returned when the content contains NUL bytes.
	ErrBinaryContent = errors.New("file appears to be binary")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns the text of an export. UTF-8 is tried first, then
// Windows-1252, then ISO-8859-1.
func Decode(content []byte) (string, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return "", ErrEmptyFile
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return "", ErrBinaryContent
	}
	if utf8.Valid(content) {
		return string(bytes.TrimPrefix(content, utf8BOM)), nil
	}

	out, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), content)
	if err == nil && !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), nil
	}
	out, _, err = transform.Bytes(charmap.ISO8859_1.NewDecoder(), content)
	if err != nil {
		return "", fmt.Errorf("decoding content: %w", err)
	}
	return string(out), nil
}

// SplitLines breaks text into lines, dropping line endings and blank lines.
func SplitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}
