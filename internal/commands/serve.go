package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/split-proj/atmsplit/internal/aggregate"
	"github.com/split-proj/atmsplit/internal/api"
	"github.com/split-proj/atmsplit/internal/importer"
	"github.com/split-proj/atmsplit/internal/ingest"
)

func newServeCommand(s *settings) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(".")
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := ingest.NewService(cfg.Processing.ResultTTL, cfg.Processing.CleanupInterval, importer.Options{}, formatterFor(cfg))
			defer svc.Wait()

			h := api.NewHandler(svc, formatterFor(cfg), groupingFor(cfg, aggregate.AllTypes), cfg.Server.MaxUploadBytes)
			return api.Serve(ctx, api.NewRouter(h, cfg.Server), cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")

	return cmd
}
