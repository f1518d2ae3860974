package config_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongoextract/internal/config"
	"mongoextract/internal/dbclient"
	"mongoextract/internal/domain"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, dbclient.DefaultTimeout, time.Duration(cfg.Timeout))
	assert.Equal(t, domain.FormatCSV, cfg.Defaults.Format)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
defaults:
  uri: mongodb://db.internal:27085/
  format: xlsx
timeout: 2s
logLevel: debug
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mongodb://db.internal:27085/", cfg.Defaults.URI)
	assert.Equal(t, "effiser", cfg.Defaults.Database)
	assert.Equal(t, domain.FormatExcel, cfg.Defaults.Format)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.Timeout))
	assert.Equal(t, dbclient.DefaultMaxRecords, cfg.MaxRecords)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "defaults: [\n"},
		{"bad timeout", "timeout: soon\n"},
		{"negative timeout", "timeout: -1s\n"},
		{"bad format", "defaults:\n  format: pdf\n"},
		{"bad level", "logLevel: loud\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "mongo-extract", "config.yaml"), config.Path())

	cfg := config.Default()
	cfg.Defaults.Collection = "orders"
	cfg.Timeout = config.Duration(1500 * time.Millisecond)
	require.NoError(t, config.Save("", cfg))

	loaded, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, err := config.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.LogLevel = "warn"
	log := cfg.NewLogger(&buf)

	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSaveLoad_DisabledCeilingSurvives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.MaxRecords = 0
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Zero(t, loaded.MaxRecords)
}
