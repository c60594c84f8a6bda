/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the bucket ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Install the slog handler
  3. Open the SQLite store (migrations run on open)
  4. Seed default buckets when the table is empty
  5. Connect the event publisher (none, kafka or amqp)
  6. Start the due reminder scheduler
  7. Start the HTTP server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: $PORT or 8080)
  -db      SQLite database path (default: $DB_PATH or finance.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the publisher and the database

EXAMPLES:
  # Run with file database
  ./server -db="./data/finance.db"

  # Run with in-memory database and JSON logs
  LOG_FORMAT=json ./server -db=":memory:"

  # Publish events to Kafka
  EVENTS_BACKEND=kafka KAFKA_BROKERS=localhost:9092 ./server

SEE ALSO:
  - config/config.go: Environment keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/bucket-ledger/api"
	"github.com/warp/bucket-ledger/config"
	"github.com/warp/bucket-ledger/events/amqp"
	"github.com/warp/bucket-ledger/events/kafka"
	"github.com/warp/bucket-ledger/finance"
	"github.com/warp/bucket-ledger/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override the environment
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	publisher, closePublisher, err := newPublisher(cfg)
	if err != nil {
		return fmt.Errorf("connect event publisher: %w", err)
	}
	defer closePublisher()

	handler := api.NewHandler(store, api.Options{
		Publisher:      publisher,
		Logger:         logger,
		AttackBucket:   cfg.AttackBucket,
		DueHorizonDays: cfg.DueHorizonDays,
	})

	if cfg.SeedDefaults {
		seeded, err := handler.Buckets.SeedDefaults(context.Background())
		if err != nil {
			return fmt.Errorf("seed default buckets: %w", err)
		}
		if !seeded {
			logger.Debug("buckets already present, seed skipped")
		}
	}

	scheduler := api.NewDueReminderScheduler(handler.Reports, publisher, logger)
	scheduler.CheckInterval = cfg.DueCheckInterval
	scheduler.HorizonDays = cfg.DueHorizonDays
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", fmt.Sprintf("http://localhost:%d", cfg.Port),
			"db", cfg.DBPath,
			"events", cfg.EventsBackend,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := config.ParseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(h)
}

// newPublisher builds the configured event backend and its closer.
func newPublisher(cfg *config.Config) (finance.Publisher, func() error, error) {
	switch cfg.EventsBackend {
	case config.BackendKafka:
		p := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		return p, p.Close, nil
	case config.BackendAMQP:
		p, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return finance.NopPublisher{}, func() error { return nil }, nil
	}
}
