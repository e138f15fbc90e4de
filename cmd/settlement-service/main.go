package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"storefront-settlement/internal/config"
	"storefront-settlement/internal/gateway"
	"storefront-settlement/internal/notification"
	"storefront-settlement/internal/reconcile"
	"storefront-settlement/internal/settlement/application"
	"storefront-settlement/internal/settlement/domain"
	settlementhttp "storefront-settlement/internal/settlement/infrastructure/http"
	settlementpg "storefront-settlement/internal/settlement/infrastructure/postgres"
	"storefront-settlement/pkg/idempotency"
	"storefront-settlement/pkg/logging"
	"storefront-settlement/pkg/metrics"
	"storefront-settlement/pkg/outbox"
	"storefront-settlement/pkg/shutdown"
)

func main() {
	log := logging.New(slog.LevelInfo)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	cfg := config.Load()
	otel.SetTextMapPropagator(propagation.TraceContext{})

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PGURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := settlementpg.Migrate(ctx, pool); err != nil {
		log.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	// Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	seen := idempotency.NewStore(rdb, cfg.CallbackSeenTTL)

	m := metrics.NewSettlement()

	// Settlement pipeline
	repo := settlementpg.NewRepository(log, pool)
	gw := gateway.NewClient(log, cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, m)
	verifier := gateway.NewVerifier(cfg.GatewayWebhookSecret)
	mailer := notification.NewSMTPMailer(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	notifier := notification.NewDispatcher(log, mailer, m)
	pricing := domain.Pricing{
		ShippingFlat:    cfg.ShippingFlat,
		FreeShippingMin: cfg.FreeShippingMin,
		TaxRateBps:      cfg.TaxRateBps,
	}
	orch := application.NewOrchestrator(log, gw, verifier, repo, notifier, seen, pricing, m)

	// Settled-order event relay
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.KafkaAddr),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()
	store := settlementpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, store, dispatch, "settlement-service-relay")
	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	// Log-only reconciliation sweep
	sweep := reconcile.NewWorker(log, repo, m, cfg.ReconcileInterval)
	go sweep.Run(ctx)

	// HTTP server
	handler := settlementhttp.NewHandler(log, orch, pool, rdb)
	r := chi.NewRouter()
	r.Handle("/metrics", metrics.Handler())
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	notifier.Wait()
	log.Info("settlement-service shutdown complete")
}
