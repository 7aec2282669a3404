package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vaxbook/booking-api/internal/repository/postgres"
	"github.com/vaxbook/booking-api/internal/worker"
	"github.com/vaxbook/booking-api/pkg/logger"
	redisbroker "github.com/vaxbook/booking-api/pkg/messaging/redis"
	"github.com/vaxbook/booking-api/pkg/metrics"
	pkgworker "github.com/vaxbook/booking-api/pkg/worker"
)

// workerConfig is environment-driven; the worker runs headless in
// containers where a config file is more trouble than it is worth.
type workerConfig struct {
	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL          string        `envconfig:"REDIS_URL" required:"true"`
	HealthPort        string        `envconfig:"HEALTH_PORT" default:"8081"`
	BatchSize         int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollInterval      time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	RetryAttempts     int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay        time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"1s"`
	RetentionPeriod   time.Duration `envconfig:"OUTBOX_RETENTION_PERIOD" default:"168h"`
	CleanupInterval   time.Duration `envconfig:"OUTBOX_CLEANUP_INTERVAL" default:"1h"`
	RedisMaxRetries   int           `envconfig:"REDIS_MAX_RETRIES" default:"3"`
	RedisRetryBackoff time.Duration `envconfig:"REDIS_RETRY_BACKOFF" default:"100ms"`
	RedisPoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	RedisMinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

func main() {
	zl := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log := logger.NewLogger(&logger.Config{Level: zerolog.InfoLevel})

	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal(err, "failed to load worker configuration")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redisbroker.NewRedisBroker(redisbroker.Config{
		URL:          cfg.RedisURL,
		MaxRetries:   cfg.RedisMaxRetries,
		RetryBackoff: cfg.RedisRetryBackoff,
		PoolSize:     cfg.RedisPoolSize,
		MinIdleConns: cfg.RedisMinIdleConns,
	}, &zl)
	if err != nil {
		log.Fatal(err, "failed to connect to redis")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	m := metrics.NewMetrics("vaxbook", "booking_worker")

	processor := pkgworker.NewOutboxProcessor(outboxRepo, broker, pkgworker.OutboxProcessorConfig{
		BatchSize:     cfg.BatchSize,
		PollInterval:  cfg.PollInterval,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay,
	}, log, m)

	cleanup := worker.NewOutboxCleanupWorker(outboxRepo, cfg.RetentionPeriod, cfg.CleanupInterval, log)

	serveHealth(cfg.HealthPort, db, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutting down")
		cancel()
	}()

	go cleanup.Start(ctx)
	processor.Start(ctx)
}

func serveHealth(port string, db *sqlx.DB, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			log.Fatal(err, "health server failed")
		}
	}()
}
