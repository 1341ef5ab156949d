// Command ledgerctl drives a local caixinha ledger from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/simaogato/caixinha-backend/internal/adapter/store"
	"github.com/simaogato/caixinha-backend/internal/config"
	"github.com/simaogato/caixinha-backend/internal/logger"
	"github.com/simaogato/caixinha-backend/internal/usecase/dashboard"
	"github.com/simaogato/caixinha-backend/internal/usecase/ledger"
)

type rootOptions struct {
	configPath string
	driver     string
	path       string
	logLevel   string
}

// app is the ledger opened for one command
type app struct {
	ledger    *ledger.Service
	dashboard *dashboard.DashboardService
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Manage your caixinha balance, Pix transfers and boxes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CAIXINHA_CONFIG"), "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.driver, "driver", "", "store driver override (memory, badger, sqlite, postgres, redis)")
	root.PersistentFlags().StringVar(&opts.path, "path", "", "store path override for badger and sqlite")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "log level (debug, info, warn, error)")

	root.AddCommand(
		balanceCmd(opts),
		depositCmd(opts),
		withdrawCmd(opts),
		pixCmd(opts),
		historyCmd(opts),
		showCmd(opts),
		boxCmd(opts),
	)

	return root
}

// withLedger opens the configured store and ledger, runs fn, then closes the store
func withLedger(cmd *cobra.Command, opts *rootOptions, fn func(a *app) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.driver != "" {
		cfg.Store.Driver = opts.driver
	}
	if opts.path != "" {
		cfg.Store.Path = opts.path
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(opts.logLevel, "console")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	kv, closeStore, err := store.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()

	openingBalance, err := cfg.Ledger.OpeningBalance()
	if err != nil {
		return err
	}
	svc, err := ledger.Open(ctx, kv,
		ledger.WithInitialBalance(openingBalance),
		ledger.WithLogger(log.Named("ledger")),
	)
	if err != nil {
		return err
	}

	return fn(&app{ledger: svc, dashboard: dashboard.NewDashboardService(svc)})
}
