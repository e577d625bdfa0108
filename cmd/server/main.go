package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	catalogpg "github.com/yelmuratov/NewEra-Cash-Carry/internal/catalog/infrastructure/postgres"
	orderapp "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/application"
	orderhttp "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/infrastructure/http"
	orderpg "github.com/yelmuratov/NewEra-Cash-Carry/internal/order/infrastructure/postgres"
	paymentapp "github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/application"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/infrastructure/cardgateway"
	paymenthttp "github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/infrastructure/http"
	paymentpg "github.com/yelmuratov/NewEra-Cash-Carry/internal/payment/infrastructure/postgres"
	userpg "github.com/yelmuratov/NewEra-Cash-Carry/internal/user/infrastructure/postgres"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/config"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/idempotency"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/logging"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/metrics"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/outbox"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/shutdown"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New("newera-api", cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "newera-api", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	if err := runMigrations(cfg); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	locker := idempotency.NewLocker(rdb, 30*time.Second)

	// Outbox relay: lifecycle events committed with the business rows get
	// shipped to kafka here, best effort from the caller's point of view.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaAddr),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()
	dispatch := outbox.NewDispatcher(log, writer, map[string]string{
		"order":   cfg.OrderTopic,
		"payment": cfg.PaymentTopic,
	})
	store := orderpg.NewOutboxStore(log, pool)
	relay := outbox.NewRelay(log, store, dispatch, "newera-api-relay")

	orderRepo := orderpg.NewRepository(log, pool)
	catalogRepo := catalogpg.NewRepository(log, pool)
	userRepo := userpg.NewRepository(log, pool)
	orderSvc := orderapp.NewService(orderRepo, catalogRepo, userRepo, uuid.NewString)
	orderHandler := orderhttp.NewHandler(log, orderSvc)

	gateway := cardgateway.NewClient(log, cfg.GatewayURL, cfg.GatewayKey, cfg.GatewayTimeout)
	payStore := paymentpg.NewRepository(log, pool)
	paySvc := paymentapp.NewService(payStore, gateway, locker, cfg.Currency, cfg.GatewayTimeout)
	payHandler := paymenthttp.NewHandler(log, paySvc)

	m := metrics.NewServerMetrics("api")
	r := chi.NewRouter()
	r.Use(metrics.Middleware(m))
	r.Mount("/", orderHandler.Routes())
	r.Mount("/pay", payHandler.Routes())
	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("newera-api shutdown complete")
}

func runMigrations(cfg config.Config) error {
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
