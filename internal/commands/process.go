package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/config"
	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/importer"
	"github.com/split-proj/atmsplit/internal/ingest"
	"github.com/split-proj/atmsplit/internal/logger"
	"github.com/split-proj/atmsplit/internal/report"
	"github.com/split-proj/atmsplit/internal/runlog"
)

type processOptions struct {
	format     string
	filter     string
	reportPath string
	asJSON     bool
	dir        string
}

func newProcessCommand(s *settings) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process [file]",
		Short: "Summarize an export, or every export in a project's import directory",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.dir != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dir != "" {
				absDir, err := filepath.Abs(opts.dir)
				if err != nil {
					return fmt.Errorf("resolving path: %w", err)
				}
				cfg, err := s.load(absDir)
				if err != nil {
					return err
				}
				return runProcessDir(cmd.OutOrStdout(), absDir, cfg, opts)
			}
			cfg, err := s.load(".")
			if err != nil {
				return err
			}
			return runProcessFile(cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "type", "", typeFlagUsage())
	cmd.Flags().StringVar(&opts.filter, "filter", aggregate.AllTypes, "payment type to summarize")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the report archive to this path")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "process every export in <dir>/import")

	return cmd
}

func typeFlagUsage() string {
	return "force an export layout, one of " + strings.Join(importer.DefaultRegistry().Formats(), ", ") + " (default: detect from file name)"
}

func importFile(path string, opts processOptions) (*importer.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return importer.Import(f, filepath.Base(path), importer.Options{Format: opts.format})
}

func formatterFor(cfg *config.Config) *format.Formatter {
	return format.New(cfg.Format.Locale, cfg.Format.CurrencySymbol)
}

func groupingFor(cfg *config.Config, filter string) aggregate.Options {
	return aggregate.Options{
		Filter:       filter,
		PrefixLength: cfg.Grouping.PrefixLength,
		AreaLength:   cfg.Grouping.AreaLength,
	}
}

func printSummary(w io.Writer, s aggregate.Summary, f *format.Formatter, asJSON bool) error {
	v := f.View(s)
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return format.Table(w, v)
}

func writeReport(path string, b *importer.Batch, f *format.Formatter) error {
	in := report.Input{
		ProcessedData:    ingest.Groups(b.Records, f),
		RawContents:      b.RawLines,
		Separator:        b.Separator,
		OriginalFilename: b.Filename,
	}
	return writeFile(path, func(w io.Writer) error {
		return report.Build(w, in, f)
	})
}

// writeFile writes through a temporary file next to path and renames it
// into place, so a failed write leaves nothing at path.
func writeFile(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func logRun(root, runID string, b *importer.Batch, s aggregate.Summary, reportPath string) {
	entry := runlog.Entry{
		Timestamp:  time.Now().UTC(),
		RunID:      runID,
		Command:    "process",
		Filename:   b.Filename,
		Format:     b.Format,
		Lines:      s.TotalLines,
		GrandTotal: s.GrandTotal,
		Report:     reportPath,
	}
	if err := runlog.Append(root, []runlog.Entry{entry}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write run log: %v\n", err)
	}
}

func warnProblems(s aggregate.Summary) {
	for _, p := range aggregate.Validate(s) {
		logger.L.Warn("summary check failed", "invariant", p.Invariant, "key", p.Key, "detail", p.Description)
	}
}

func runProcessFile(w io.Writer, path string, cfg *config.Config, opts processOptions) error {
	b, err := importFile(path, opts)
	if err != nil {
		return err
	}
	logger.L.Debug("imported", "file", b.Filename, "format", b.Format, "records", len(b.Records))

	f := formatterFor(cfg)
	s := aggregate.Aggregate(b.Records, groupingFor(cfg, opts.filter))
	warnProblems(s)
	if err := printSummary(w, s, f, opts.asJSON); err != nil {
		return err
	}

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, b, f); err != nil {
			return err
		}
	}
	logRun(".", uuid.NewString(), b, s, opts.reportPath)
	return nil
}

func runProcessDir(w io.Writer, root string, cfg *config.Config, opts processOptions) error {
	files, err := importer.Scan(root, cfg.Import.Dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(w, "No exports to process.")
		return nil
	}

	reportDir := filepath.Join(root, cfg.Import.ReportDir)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}

	f := formatterFor(cfg)
	runID := uuid.NewString()
	for _, fi := range files {
		b, err := importFile(fi.Path, opts)
		if err != nil {
			return err
		}
		s := aggregate.Aggregate(b.Records, groupingFor(cfg, opts.filter))
		warnProblems(s)

		reportPath := filepath.Join(reportDir, report.Filename(fi.Name))
		if err := writeReport(reportPath, b, f); err != nil {
			return fmt.Errorf("%s: %w", fi.Name, err)
		}
		if err := importer.MarkProcessed(root, cfg.Import.Dir, fi.Name); err != nil {
			return err
		}

		rel, _ := filepath.Rel(root, reportPath)
		logRun(root, runID, b, s, rel)
		fmt.Fprintf(w, "%s\t%s\t%s lines\t%s\t-> %s\n", fi.Name, b.Format, f.Count(s.TotalLines), f.Total(s.GrandTotal), rel)
	}
	return nil
}
