package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/yelmuratov/NewEra-Cash-Carry/internal/notification/application"
	notifkafka "github.com/yelmuratov/NewEra-Cash-Carry/internal/notification/infrastructure/kafka"
	notifpg "github.com/yelmuratov/NewEra-Cash-Carry/internal/notification/infrastructure/postgres"
	"github.com/yelmuratov/NewEra-Cash-Carry/internal/notification/infrastructure/sender"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/config"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/idempotency"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/logging"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/shutdown"
	"github.com/yelmuratov/NewEra-Cash-Carry/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config load failed: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.New("newera-notifier", cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "newera-notifier", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	idem := idempotency.NewStore(rdb, 10*time.Minute)

	repo := notifpg.NewRepository(log, pool)
	svc := application.NewService(log, repo, sender.NewSMS(log), sender.NewEmail(log))

	brokers := []string{cfg.KafkaAddr}
	orderConsumer := notifkafka.NewConsumer(log, brokers, cfg.OrderTopic, "newera-notifier", svc, idem)
	paymentConsumer := notifkafka.NewConsumer(log, brokers, cfg.PaymentTopic, "newera-notifier", svc, idem)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orderConsumer.Run(gctx) })
	g.Go(func() error { return paymentConsumer.Run(gctx) })

	if err := g.Wait(); err != nil && gctx.Err() == nil {
		log.Error("consumer stopped", "err", err)
	}
	log.Info("newera-notifier shutdown")
}
