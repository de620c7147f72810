package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vemurivi/CareerShotApi/internal/audit"
	"github.com/vemurivi/CareerShotApi/internal/platform/config"
	"github.com/vemurivi/CareerShotApi/internal/platform/httpserver"
	"github.com/vemurivi/CareerShotApi/internal/platform/logger"
	"github.com/vemurivi/CareerShotApi/internal/platform/middleware"
	"github.com/vemurivi/CareerShotApi/internal/platform/postgres"
	redisplatform "github.com/vemurivi/CareerShotApi/internal/platform/redis"
	"github.com/vemurivi/CareerShotApi/internal/platform/token"
	"github.com/vemurivi/CareerShotApi/internal/register"
	"github.com/vemurivi/CareerShotApi/internal/register/handler"
	"github.com/vemurivi/CareerShotApi/internal/register/metrics"
	"github.com/vemurivi/CareerShotApi/internal/register/service"
	"github.com/vemurivi/CareerShotApi/internal/register/store/idempotency"
	"github.com/vemurivi/CareerShotApi/internal/register/store/metadata"
	"github.com/vemurivi/CareerShotApi/internal/register/store/object"
	httptransport "github.com/vemurivi/CareerShotApi/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metadata store: Postgres when configured, in-memory otherwise.
	var (
		writes service.MetadataStore
		reads  handler.ReadStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		store := metadata.NewPostgres(db)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		writes, reads = store, store
	} else {
		log.Warn("no postgres DSN configured, metadata is in-memory and non-durable")
		store := metadata.NewInMemory()
		writes, reads = store, store
	}

	objects, err := object.NewFilesystem(cfg.BlobRoot)
	if err != nil {
		return err
	}

	m := metrics.New()
	opts := []register.Option{
		register.WithLogger(log),
		register.WithMetrics(m),
	}

	// Replay guard: only when Redis is configured. Without it retries with
	// an Idempotency-Key still derive a stable row key, they just lose the
	// cross-process reservation.
	redisClient, err := redisplatform.New(cfg.RedisURL, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, register.WithReplayGuard(
			idempotency.NewRedis(redisClient.Client, cfg.IdempotencyTTL)))
	}

	// Audit pipeline: emission goes through a buffered channel so the
	// request path never waits on the sink.
	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		sink = audit.NewInMemoryStore()
	}
	chanSink := audit.NewChannelSink(256)
	worker := audit.NewWorker(sink, chanSink.Inbox()).WithLogger(log)
	opts = append(opts, register.WithAuditPublisher(audit.NewPublisher(chanSink)))

	svc, err := register.NewService(writes, objects, cfg.BlobContainer, opts...)
	if err != nil {
		return err
	}

	var validator middleware.JWTValidator
	if cfg.JWTSigningKey != "" {
		validator, err = token.NewValidator(cfg.JWTSigningKey)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no JWT signing key configured, API routes are unauthenticated")
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:       log,
		Register:     register.NewHandler(svc, reads, log),
		JWTValidator: validator,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting careershot api", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
