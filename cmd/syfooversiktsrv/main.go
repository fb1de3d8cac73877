package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/navikt/syfooversiktsrv-go/config"
	"github.com/navikt/syfooversiktsrv-go/personoversikt"
	"github.com/navikt/syfooversiktsrv-go/personoversikt/postgresengine"
	"github.com/navikt/syfooversiktsrv-go/reconciler"
	"github.com/navikt/syfooversiktsrv-go/reconciler/redisstream"
	"github.com/navikt/syfooversiktsrv-go/zapadapter"
)

func main() {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = zapLogger.Sync() }()

	sugar := zapLogger.Sugar()

	if err = run(sugar); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("service failed", "error", err)
		os.Exit(1)
	}
}

func run(sugar *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zapadapter.NewLogger(sugar)

	pool, err := config.NewPGXPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := postgresengine.NewStoreFromPGXPool(pool, postgresengine.WithLogger(logger))
	if err != nil {
		return err
	}

	redisClient, err := config.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	recordLog, err := redisstream.NewLog(
		ctx,
		redisClient,
		cfg.Consumer.Group,
		cfg.Consumer.Name,
		[]personoversikt.StreamTag{
			personoversikt.StreamOppfolgingstilfellePerson,
			personoversikt.StreamOversikthendelse,
			personoversikt.StreamDialogmotekandidat,
			personoversikt.StreamDialogmoteStatus,
		},
		redisstream.WithKeyPrefix(cfg.Consumer.KeyPrefix),
	)
	if err != nil {
		return err
	}

	service, err := reconciler.NewService(
		recordLog,
		store,
		store,
		reconciler.WithBatchSize(cfg.Consumer.BatchSize),
		reconciler.WithPollTimeout(cfg.Consumer.PollTimeout),
		reconciler.WithServiceLogger(logger),
	)
	if err != nil {
		return err
	}

	if cfg.Backfill.Enabled {
		// Registry clients are deployment-specific and not wired in this
		// binary; see reconciler.NewBackfiller for embedding the pass.
		sugar.Warnw("backfill enabled but no registry lookups configured, skipping")
	}

	sugar.Infow("reconciliation service starting",
		"consumerGroup", cfg.Consumer.Group,
		"consumerName", cfg.Consumer.Name)

	return service.Run(ctx)
}
