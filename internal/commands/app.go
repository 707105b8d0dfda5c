package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/debtbook/internal/accounts"
	"github.com/cleared-dev/debtbook/internal/config"
	"github.com/cleared-dev/debtbook/internal/ledger"
	"github.com/cleared-dev/debtbook/internal/logger"
	"github.com/cleared-dev/debtbook/internal/store"
)

// app is the loaded configuration shared by commands that work on an
// existing book.
type app struct {
	cfg  *config.Config
	root string
	log  *slog.Logger
}

func loadApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	path, err := filepath.Abs(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if opts.verbose {
		level = "debug"
	}
	log := logger.Setup(cmd.ErrOrStderr(), level, cfg.Log.Format)
	cmd.SetContext(logger.WithContext(cmd.Context(), log))

	return &app{cfg: cfg, root: filepath.Dir(path), log: log}, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, a.cfg.Database.Path, a.log)
}

func (a *app) comparator() ledger.Comparator {
	return ledger.NewComparator(ledger.ParserForFormat(a.cfg.Ledger.TagFormat))
}

func (a *app) engine() *ledger.Engine {
	return ledger.NewEngine(
		ledger.WithComparator(a.comparator()),
		ledger.WithLogger(a.log),
		ledger.WithDefaultStrategy(a.cfg.Strategy()),
	)
}

func (a *app) accounts() *accounts.Service {
	return accounts.NewService(a.cfg.Accounts)
}

// people returns the named person, or everyone in the store when none is given.
func people(ctx context.Context, st *store.Store, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	return st.People(ctx)
}
