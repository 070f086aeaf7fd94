package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/split-proj/atmsplit/internal/classify"
	"github.com/split-proj/atmsplit/internal/model"
)

// Options controls how an export is imported.
type Options struct {
	// Format forces a parser; empty detects it from the file name.
	Format   string
	Registry *Registry
}

// Batch is one imported export.
type Batch struct {
	Filename  string
	Format    string
	Separator string
	RawLines  []string
	Records   []model.Record
}

// ResolveParser picks the parser for filename: the forced format, else the
// payment type named in the file name, else the generic parser.
func ResolveParser(reg *Registry, filename, format string) (Parser, error) {
	if format != "" {
		p := reg.Get(format)
		if p == nil {
			return nil, fmt.Errorf("unknown format %q (known: %s)", format, strings.Join(reg.Formats(), ", "))
		}
		return p, nil
	}
	if pt := classify.FromFilename(filename); pt != model.Unknown {
		if p := reg.Get(string(pt)); p != nil {
			return p, nil
		}
	}
	return reg.Get(AutoFormat), nil
}

// Import reads, decodes, splits and classifies an export.
func Import(r io.Reader, filename string, opts Options) (*Batch, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	return ImportBytes(content, filename, opts)
}

// ImportBytes is Import over content already in memory.
func ImportBytes(content []byte, filename string, opts Options) (*Batch, error) {
	reg := opts.Registry
	if reg == nil {
		reg = DefaultRegistry()
	}
	p, err := ResolveParser(reg, filename, opts.Format)
	if err != nil {
		return nil, err
	}

	text, err := Decode(content)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	lines := SplitLines(text)

	sep := p.Separator()
	if d, ok := p.(interface{ SeparatorFor([]string) string }); ok {
		sep = d.SeparatorFor(lines)
	}

	return &Batch{
		Filename:  filename,
		Format:    p.Format(),
		Separator: sep,
		RawLines:  lines,
		Records:   classify.New().ClassifyAll(p.Split(lines)),
	}, nil
}
