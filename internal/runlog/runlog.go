// Package runlog keeps an append-only CSV record of processing runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one processed file.
type Entry struct {
	Timestamp  time.Time
	RunID      string
	Command    string
	Filename   string
	Format     string
	Lines      int
	GrandTotal decimal.Decimal
	Report     string
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,command,filename,format,lines,grand_total,report"

const (
	numFields     = 8
	logDir        = "logs"
	logFile       = "logs/run-log.csv"
	colTimestamp  = 0
	colRunID      = 1
	colCommand    = 2
	colFilename   = 3
	colFormat     = 4
	colLines      = 5
	colGrandTotal = 6
	colReport     = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colCommand] = e.Command
	row[colFilename] = e.Filename
	row[colFormat] = e.Format
	row[colLines] = strconv.Itoa(e.Lines)
	row[colGrandTotal] = e.GrandTotal.StringFixed(2)
	row[colReport] = e.Report
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	lines, err := strconv.Atoi(record[colLines])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing lines %q: %w", record[colLines], err)
	}
	total, err := decimal.NewFromString(record[colGrandTotal])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing grand total %q: %w", record[colGrandTotal], err)
	}

	return Entry{
		Timestamp:  ts,
		RunID:      record[colRunID],
		Command:    record[colCommand],
		Filename:   record[colFilename],
		Format:     record[colFormat],
		Lines:      lines,
		GrandTotal: total,
		Report:     record[colReport],
	}, nil
}

// Append writes entries to <root>/logs/run-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <root>/logs/run-log.csv.
// Returns nil if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
