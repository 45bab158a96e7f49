package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/greengrove-market/internal/config"
	"github.com/ariefcatur/greengrove-market/internal/httpx"
	kafkax "github.com/ariefcatur/greengrove-market/internal/kafka"
	"github.com/ariefcatur/greengrove-market/internal/logging"
	"github.com/ariefcatur/greengrove-market/internal/market"
	"github.com/ariefcatur/greengrove-market/internal/postgres"
	"github.com/ariefcatur/greengrove-market/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
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
	log := logging.New(cfg.LogLevel, cfg.ServiceName, cfg.LogPretty)

	// prices go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, log); err != nil {
			return err
		}
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		return err
	}
	defer db.Close()
	store := postgres.NewStore(db)

	// Redis is optional; orders are read from the database without it.
	var cache market.OrderCache
	if rdb, err := redisx.New(ctx, cfg.RedisAddr); err != nil {
		log.Warn().Err(err).Msg("order cache disabled")
	} else {
		defer rdb.Close()
		cache = redisx.NewOrderCache(rdb, cfg.OrderCacheTTL)
	}

	// Kafka producer outlives the HTTP server so in-flight events are flushed.
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(context.Background())
	events := &kafkax.EventPublisher{Producer: prod, Service: cfg.ServiceName, TraceID: middleware.GetReqID}

	router := httpx.NewRouter(log)
	(&httpx.OrdersHandler{Orders: &market.OrderService{
		Store: store, Events: events, Cache: cache, Log: log, TxTimeout: cfg.TxTimeout,
	}}).Register(router)
	(&httpx.BookingsHandler{Bookings: &market.BookingService{
		Store: store, Events: events, Log: log, TxTimeout: cfg.TxTimeout,
	}}).Register(router)
	(&httpx.PaymentsHandler{Payments: &market.PaymentService{
		Store: store, Events: events, Log: log, TxTimeout: cfg.TxTimeout, DefaultCurrency: cfg.DefaultCurrency,
	}}).Register(router)
	(&httpx.CatalogHandler{Catalog: &market.CatalogService{Store: store, Log: log}}).Register(router)
	(&httpx.SystemHandler{DB: store}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	err = g.Wait()
	prod.Close()
	prod.WaitClosed()
	return err
}
