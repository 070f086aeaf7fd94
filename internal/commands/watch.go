package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/config"
	"github.com/split-proj/atmsplit/internal/debounce"
	"github.com/split-proj/atmsplit/internal/logger"
)

func newWatchCommand(s *settings) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-summarize an export whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(".")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx.Done(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "type", "", typeFlagUsage())
	cmd.Flags().StringVar(&opts.filter, "filter", aggregate.AllTypes, "payment type to summarize")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")

	return cmd
}

func summarizeFile(w io.Writer, path string, cfg *config.Config, opts processOptions) {
	b, err := importFile(path, opts)
	if err != nil {
		logger.L.Error("import failed", "file", path, "error", err)
		return
	}
	s := aggregate.Aggregate(b.Records, groupingFor(cfg, opts.filter))
	if err := printSummary(w, s, formatterFor(cfg), opts.asJSON); err != nil {
		logger.L.Error("printing summary", "error", err)
	}
}

// runWatch polls path for modification and reprints its summary once
// changes settle for the configured debounce delay.
func runWatch(done <-chan struct{}, w io.Writer, path string, cfg *config.Config, opts processOptions) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	summarizeFile(w, path, cfg, opts)

	d := debounce.New(cfg.Watch.Debounce, func() {
		fmt.Fprintf(w, "\n%s changed at %s\n", path, time.Now().Format(time.TimeOnly))
		summarizeFile(w, path, cfg, opts)
	})
	defer d.Stop()

	ticker := time.NewTicker(cfg.Watch.PollInterval)
	defer ticker.Stop()

	last := info.ModTime()
	lastSize := info.Size()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				logger.L.Warn("stat failed", "file", path, "error", err)
				continue
			}
			if !info.ModTime().Equal(last) || info.Size() != lastSize {
				last, lastSize = info.ModTime(), info.Size()
				d.Trigger()
			}
		}
	}
}
