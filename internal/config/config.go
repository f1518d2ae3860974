// Package config loads the optional user configuration for the shells.
//
// The file lives at $XDG_CONFIG_HOME/mongo-extract/config.yaml (falling back
// to ~/.config). A missing file is not an error; built-in defaults apply.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mongoextract/internal/dbclient"
	"mongoextract/internal/domain"
)

// Config represents config.yaml.
type Config struct {
	Defaults   Defaults `yaml:"defaults"`
	Timeout    Duration `yaml:"timeout,omitempty"`
	MaxRecords int      `yaml:"maxRecords"`
	LogLevel   string   `yaml:"logLevel,omitempty"`
}

// Defaults pre-fills the export form.
type Defaults struct {
	URI        string              `yaml:"uri,omitempty" json:"uri"`
	Database   string              `yaml:"database,omitempty" json:"database"`
	Collection string              `yaml:"collection,omitempty" json:"collection"`
	Filter     string              `yaml:"filter,omitempty" json:"filter"`
	Format     domain.ExportFormat `yaml:"format,omitempty" json:"format"`
}

const defaultFilter = `{
    "JOB_INTG_NAME": "STOCKRECEIPT_INTF",
    "BUYING_SOURCE": ""
}`

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			URI:        "mongodb://localhost:27017/",
			Database:   "effiser",
			Collection: "efsr_transactions_archive",
			Filter:     defaultFilter,
			Format:     domain.FormatCSV,
		},
		Timeout:    Duration(dbclient.DefaultTimeout),
		MaxRecords: dbclient.DefaultMaxRecords,
		LogLevel:   "info",
	}
}

// Duration is a time.Duration written as "5s" in YAML.
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("timeout: %w", err)
	}
	if v <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s)
	}
	*d = Duration(v)
	return nil
}

// Dir returns the mongo-extract config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mongo-extract")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mongo-extract")
}

// Path returns the path to config.yaml.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads config.yaml. An empty path means Path().
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	// Decoding over the defaults keeps every key the file omits.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Defaults.Format != "" {
		f, err := domain.ParseExportFormat(string(cfg.Defaults.Format))
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Defaults.Format = f
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// An empty string means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// NewLogger builds the text logger shared by the pipeline and the shells.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.LogLevel)
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
