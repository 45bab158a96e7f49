package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/greengrove-market/internal/config"
	kafkax "github.com/ariefcatur/greengrove-market/internal/kafka"
	"github.com/ariefcatur/greengrove-market/internal/logging"
	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/ariefcatur/greengrove-market/internal/postgres"
	"github.com/ariefcatur/greengrove-market/internal/reconcile"
	"github.com/ariefcatur/greengrove-market/internal/redisx"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	name := cfg.ServiceName + "-reconciler"
	log := logging.New(cfg.LogLevel, name, cfg.LogPretty)
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg, name, log); err != nil {
		log.Fatal().Err(err).Msg("reconciler stopped")
	}
}

func run(cfg config.Config, name string, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()

	// Redis dedup; without it duplicates still land on the idempotent status update.
	svc := &reconcile.Service{Log: log}
	if rdb, err := redisx.New(ctx, cfg.RedisAddr); err != nil {
		log.Warn().Err(err).Msg("dedup disabled")
	} else {
		defer rdb.Close()
		svc.Dedup = redisx.NewDedup(rdb, "reconciler")
	}

	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(context.Background())
	svc.Payments = &market.PaymentService{
		Store:           postgres.NewStore(db),
		Events:          &kafkax.EventPublisher{Producer: prod, Service: name},
		Log:             log,
		TxTimeout:       cfg.TxTimeout,
		DefaultCurrency: cfg.DefaultCurrency,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ReconcilerGroup, market.TopicPaymentConfirmations, cfg.ReconcilerWorkers, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("group", cfg.ReconcilerGroup).
			Str("topic", market.TopicPaymentConfirmations).
			Int("workers", cfg.ReconcilerWorkers).
			Msg("consumer started")
		return cons.Start(gctx, svc.HandlePaymentConfirmed)
	})

	err = g.Wait()
	log.Info().Msg("shutting down consumer")
	prod.Close()
	prod.WaitClosed()
	return err
}
