package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricingScope/internal/config"
	"pricingScope/internal/engine"
	"pricingScope/internal/storage/postgres"
)

func runProcess(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProcess(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Network == "" {
		return fmt.Errorf("network is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	network, err := config.LoadNetwork(cfg.Network, cfgFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	var stateStore engine.StateStore
	if cfg.StateFile != "" {
		stateStore = &engine.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &engine.DBStateStore{
			Store: store,
			Name:  fmt.Sprintf("engine:%s", network.Name),
		}
	}

	eng := engine.NewEngine(engine.Config{
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		StateStore:    stateStore,
	}, network, store, logger)

	logger.Info("process start",
		zap.String("in", cfg.Input),
		zap.String("network", network.Name),
		zap.Uint64("chain_id", network.ChainID),
		zap.String("pg", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("state_file", cfg.StateFile),
		zap.Uint64("recompute_from", cfg.RecomputeFrom),
	)

	return eng.Run(ctx, cfg.Input)
}

func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "(unparseable dsn)"
	}
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
