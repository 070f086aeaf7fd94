package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file.
const FileName = "atmsplit.yaml"

// Config represents the top-level atmsplit.yaml configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Processing ProcessingConfig `yaml:"processing"`
	Format     FormatConfig     `yaml:"format"`
	Grouping   GroupingConfig   `yaml:"grouping"`
	Logging    LoggingConfig    `yaml:"logging"`
	Import     ImportConfig     `yaml:"import"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RateEvery      time.Duration `yaml:"rate_every"` // one token per interval
	RateBurst      int           `yaml:"rate_burst"`
	AllowedOrigins []string      `yaml:"allowed_origins,omitempty"`
}

// ProcessingConfig controls how long upload results are kept.
type ProcessingConfig struct {
	ResultTTL       time.Duration `yaml:"result_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// FormatConfig controls display formatting.
type FormatConfig struct {
	Locale         string `yaml:"locale"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

// GroupingConfig sets the prefix and area key lengths.
type GroupingConfig struct {
	PrefixLength int `yaml:"prefix_length"`
	AreaLength   int `yaml:"area_length"`
}

// LoggingConfig selects level and output format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ImportConfig locates the import and report directories.
type ImportConfig struct {
	Dir       string `yaml:"dir"`
	ReportDir string `yaml:"report_dir"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	Debounce     time.Duration `yaml:"debounce"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Load reads an atmsplit.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the commands cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Watch.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("watch.poll_interval must be positive, got %s", c.Watch.PollInterval))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes))
	}
	if c.Server.RateEvery < 0 {
		errs = append(errs, fmt.Errorf("server.rate_every must not be negative, got %s", c.Server.RateEvery))
	}
	if c.Grouping.PrefixLength < 0 || c.Grouping.AreaLength < 0 {
		errs = append(errs, errors.New("grouping lengths must not be negative"))
	}
	return errors.Join(errs...)
}

// LoadOrDefault is Load, returning Default when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 10 << 20,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    60 * time.Second,
			RateEvery:      100 * time.Millisecond,
			RateBurst:      30,
		},
		Processing: ProcessingConfig{
			ResultTTL:       time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Format: FormatConfig{
			Locale:         "en-PH",
			CurrencySymbol: "₱",
		},
		Grouping: GroupingConfig{
			PrefixLength: 2,
			AreaLength:   1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Import: ImportConfig{
			Dir:       "import",
			ReportDir: "reports",
		},
		Watch: WatchConfig{
			Debounce:     500 * time.Millisecond,
			PollInterval: time.Second,
		},
	}
}

// Environment variables that override file settings.
const (
	EnvAddr           = "ATMSPLIT_ADDR"
	EnvLogLevel       = "ATMSPLIT_LOG_LEVEL"
	EnvLogFormat      = "ATMSPLIT_LOG_FORMAT"
	EnvMaxUploadBytes = "ATMSPLIT_MAX_UPLOAD_BYTES"
	EnvLocale         = "ATMSPLIT_LOCALE"
)

// ApplyEnv loads envFiles (missing files are ignored) and overrides cfg
// from ATMSPLIT_* variables.
func ApplyEnv(cfg *Config, envFiles ...string) error {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLocale); v != "" {
		cfg.Format.Locale = v
	}
	if v := os.Getenv(EnvMaxUploadBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid byte count %q", EnvMaxUploadBytes, v)
		}
		cfg.Server.MaxUploadBytes = n
	}
	return nil
}
