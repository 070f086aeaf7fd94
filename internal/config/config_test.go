package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ":9090"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Grouping.PrefixLength = 3
	cfg.Processing.ResultTTL = 90 * time.Minute

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg, got)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "en-PH", cfg.Format.Locale)
	assert.Equal(t, "₱", cfg.Format.CurrencySymbol)
	assert.Equal(t, 2, cfg.Grouping.PrefixLength)
	assert.Equal(t, 1, cfg.Grouping.AreaLength)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, time.Hour, cfg.Processing.ResultTTL)
	assert.Empty(t, cfg.Server.AllowedOrigins)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("grouping:\n  prefix_length: 3\nwatch:\n  debounce: 2s\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Grouping.PrefixLength)
	assert.Equal(t, 1, cfg.Grouping.AreaLength)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "prefix_length: 2")
	assert.Contains(t, contents, "locale: en-PH")
	assert.Contains(t, contents, "result_ttl: 1h0m0s")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvAddr, ":7000")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMaxUploadBytes, "2048")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, filepath.Join(t.TempDir(), ".env")))
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, int64(2048), cfg.Server.MaxUploadBytes)
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(EnvLocale+"=en-US\n"), 0o644))
	t.Setenv(EnvLocale, "")
	require.NoError(t, os.Unsetenv(EnvLocale))

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg, envFile))
	assert.Equal(t, "en-US", cfg.Format.Locale)
}

func TestApplyEnv_BadUploadSize(t *testing.T) {
	t.Setenv(EnvMaxUploadBytes, "lots")
	err := ApplyEnv(Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMaxUploadBytes)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero poll interval", func(c *Config) { c.Watch.PollInterval = 0 }, "watch.poll_interval"},
		{"negative poll interval", func(c *Config) { c.Watch.PollInterval = -time.Second }, "watch.poll_interval"},
		{"negative debounce", func(c *Config) { c.Watch.Debounce = -time.Millisecond }, "watch.debounce"},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadBytes = 0 }, "server.max_upload_bytes"},
		{"negative rate", func(c *Config) { c.Server.RateEvery = -time.Second }, "server.rate_every"},
		{"negative prefix", func(c *Config) { c.Grouping.PrefixLength = -1 }, "grouping lengths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	assert.NoError(t, Default().Validate())
	zeroDebounce := Default()
	zeroDebounce.Watch.Debounce = 0
	assert.NoError(t, zeroDebounce.Validate())
}

func TestLoad_RejectsZeroPollInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("watch:\n  poll_interval: 0s\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch.poll_interval must be positive")
}
