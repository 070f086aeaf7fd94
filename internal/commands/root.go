package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/split-proj/atmsplit/internal/buildinfo"
	"github.com/split-proj/atmsplit/internal/config"
	"github.com/split-proj/atmsplit/internal/logger"
)

// envFile is loaded from the working directory when present.
const envFile = ".env"

// settings holds the root's persistent flags.
type settings struct {
	configPath string
}

// load reads the config for a project rooted at dir. An explicit --config
// wins over <dir>/atmsplit.yaml.
func (s *settings) load(dir string) (*config.Config, error) {
	path := s.configPath
	if path == "" {
		path = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := config.ApplyEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	s := &settings{}

	rootCmd := &cobra.Command{
		Use:     "atmsplit",
		Short:   "Split ATM payment exports by source and reference",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&s.configPath, "config", "", "config file (default <dir>/"+config.FileName+")")

	rootCmd.AddCommand(
		newInitCommand(),
		newProcessCommand(s),
		newServeCommand(s),
		newWatchCommand(s),
		newLogCommand(),
	)

	return rootCmd
}
