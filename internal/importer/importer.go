// Package importer reads biller and bank transaction exports into
// classified records.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/split-proj/atmsplit/internal/model"
)

// Parser splits the lines of one export layout into tagged fields.
type Parser interface {
	// Format is the registry key, normally the payment type name.
	Format() string
	// Separator is the field separator written back into reports.
	Separator() string
	Split(lines []string) []model.Fields
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
	order   []string
}

// FileInfo describes an export file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
	r.order = append(r.order, key)
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered formats in registration order.
func (r *Registry) Formats() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, p := range delimitedLayouts() {
		r.Register(p)
	}
	r.Register(&MetrobankParser{})
	r.Register(&UnionbankParser{})
	r.Register(&SMParser{})
	r.Register(&AutoParser{})
	return r
}

// DefaultImportDir is the import directory of a new project.
const DefaultImportDir = "import"

// processedSubdir holds exports that have been processed, inside the import
// directory.
const processedSubdir = "processed"

var importExts = map[string]bool{".txt": true, ".csv": true, ".dat": true}

// Scan returns export files in <repoRoot>/<importDir>/. An empty importDir
// means DefaultImportDir.
func Scan(repoRoot, importDir string) ([]FileInfo, error) {
	if importDir == "" {
		importDir = DefaultImportDir
	}
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !importExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// ProcessedDir is where MarkProcessed moves exports from importDir.
func ProcessedDir(importDir string) string {
	if importDir == "" {
		importDir = DefaultImportDir
	}
	return filepath.Join(importDir, processedSubdir)
}

// MarkProcessed moves a file from <importDir>/ to <importDir>/processed/.
func MarkProcessed(repoRoot, importDir, fileName string) error {
	if importDir == "" {
		importDir = DefaultImportDir
	}
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, ProcessedDir(importDir))

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
