package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/debtbook/internal/model"
)

// FileName is the config file looked up in the working directory.
const FileName = "debtbook.yaml"

// Config represents the top-level debtbook.yaml configuration.
type Config struct {
	Database DatabaseConfig  `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
	Ledger   LedgerConfig    `yaml:"ledger"`
	Accounts []model.Account `yaml:"accounts,omitempty"`
	Audit    AuditConfig     `yaml:"audit"`
}

// DatabaseConfig locates the SQLite record store.
type DatabaseConfig struct {
	Path string `yaml:"path"` // relative paths resolve against the config file
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// LedgerConfig tunes reconciliation.
type LedgerConfig struct {
	TagFormat       string `yaml:"tag_format"`       // short-month, iso or auto
	DefaultStrategy string `yaml:"default_strategy"` // oldest, newest or manual
}

// AuditConfig locates the settlement log.
type AuditConfig struct {
	Dir string `yaml:"dir"`
}

// Load reads a debtbook.yaml file from disk. Keys missing from the file keep
// their Default values.
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
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
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

// Default returns a Config with defaults for a new book.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "debtbook.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Ledger: LedgerConfig{
			TagFormat:       "short-month",
			DefaultStrategy: string(model.StrategyOldest),
		},
		Audit: AuditConfig{Dir: "logs"},
	}
}

// Validate rejects values the rest of the program cannot interpret.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Ledger.TagFormat) {
	case "", "short-month", "iso", "auto":
	default:
		return fmt.Errorf("ledger.tag_format: unknown format %q", c.Ledger.TagFormat)
	}
	if c.Ledger.DefaultStrategy != "" && model.ParseStrategy(c.Ledger.DefaultStrategy) == model.StrategyUnset {
		return fmt.Errorf("ledger.default_strategy: unknown strategy %q", c.Ledger.DefaultStrategy)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	return nil
}

// Strategy returns the configured default strategy, oldest when unset.
func (c *Config) Strategy() model.Strategy {
	if s := model.ParseStrategy(c.Ledger.DefaultStrategy); s != model.StrategyUnset {
		return s
	}
	return model.StrategyOldest
}

func (c *Config) resolve(base string) {
	if c.Database.Path != "" && !filepath.IsAbs(c.Database.Path) {
		c.Database.Path = filepath.Join(base, c.Database.Path)
	}
	if c.Audit.Dir != "" && !filepath.IsAbs(c.Audit.Dir) {
		c.Audit.Dir = filepath.Join(base, c.Audit.Dir)
	}
}
