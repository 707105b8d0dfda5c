package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/debtbook/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Accounts = []model.Account{
		{ID: "checking", Name: "Checking", Type: model.AccountTypeChecking},
	}
	cfg.Ledger.DefaultStrategy = "newest"

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "debtbook.db"), got.Database.Path)
	assert.Equal(t, filepath.Join(dir, "logs"), got.Audit.Dir)
	assert.Equal(t, "info", got.Log.Level)
	assert.Equal(t, "short-month", got.Ledger.TagFormat)
	assert.Equal(t, model.StrategyNewest, got.Strategy())
	require.Len(t, got.Accounts, 1)
	assert.Equal(t, "checking", got.Accounts[0].ID)
	assert.Equal(t, model.AccountTypeChecking, got.Accounts[0].Type)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "debtbook.db", cfg.Database.Path)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "logs", cfg.Audit.Dir)
	assert.Equal(t, model.StrategyOldest, cfg.Strategy())
	assert.Empty(t, cfg.Accounts)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\ndatabase:\n  path: /tmp/x.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path, "absolute paths are kept")
	assert.Equal(t, "short-month", cfg.Ledger.TagFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"tag format", "ledger:\n  tag_format: weekly\n", "tag_format"},
		{"strategy", "ledger:\n  default_strategy: fifo\n", "default_strategy"},
		{"log format", "log:\n  format: xml\n", "log.format"},
		{"syntax", "ledger: [", "parsing config"},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), FileName)
		require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))
		_, err := Load(path)
		require.Error(t, err, tt.name)
		assert.Contains(t, err.Error(), tt.want, tt.name)
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "path: debtbook.db")
	assert.Contains(t, contents, "tag_format: short-month")
	assert.Contains(t, contents, "default_strategy: oldest")
	assert.NotContains(t, contents, "accounts:")
}
