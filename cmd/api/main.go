package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jlzm/MoneyNotes/internal/core/category"
	"github.com/jlzm/MoneyNotes/internal/core/ledger"
	"github.com/jlzm/MoneyNotes/internal/core/stats"
	"github.com/jlzm/MoneyNotes/internal/infra/kv"
	"github.com/jlzm/MoneyNotes/internal/platform/sync"
	"github.com/jlzm/MoneyNotes/internal/remote"
	"github.com/jlzm/MoneyNotes/internal/session"
	"github.com/jlzm/MoneyNotes/internal/transport/httpapi"
	"github.com/jlzm/MoneyNotes/internal/transport/httpapi/handler"
	"github.com/jlzm/MoneyNotes/pkg/config"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

func main() {
	// Create context that listens for termination signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewDefault(cfg.Env)
	log.Info("Starting MoneyNotes client",
		"env", cfg.Env,
		"port", cfg.Port,
		"api", cfg.APIBaseURL,
	)

	// Select the key-value backend: SQLite by default, Postgres or
	// Redis when a URL is configured (shared home-server setups).
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("Failed to open local store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// Load persisted state
	sess := session.New(store, log)
	if err := sess.Load(ctx); err != nil {
		log.Error("Failed to load session", "error", err)
		os.Exit(1)
	}

	registry := category.NewRegistry(store, log)
	if err := registry.Load(ctx); err != nil {
		log.Error("Failed to load categories", "error", err)
		os.Exit(1)
	}

	billStore := ledger.NewStore(store, log)
	if err := billStore.Load(ctx); err != nil {
		log.Error("Failed to load pending bills", "error", err)
		os.Exit(1)
	}
	log.Info("Local state loaded", "pending_bills", len(billStore.Pending()))

	// Remote API client
	client := remote.NewClient(cfg.APIBaseURL, sess, log)
	client.SetPageSize(cfg.SyncPageSize)

	// Background sync service
	syncCfg := &sync.Config{
		PollInterval: cfg.SyncInterval,
		Enabled:      cfg.SyncEnabled,
	}
	syncSvc := sync.NewService(syncCfg, client, billStore, sess, log)
	go syncSvc.Run(ctx)

	// Statistics aggregator over the merged view
	aggregator := stats.New(registry)

	// Create HTTP router
	r := httpapi.NewRouter(httpapi.Config{
		Logger:          log,
		AllowedOrigins:  cfg.AllowedOrigins,
		AuthHandler:     handler.NewAuthHandler(client, sess, log),
		BillHandler:     handler.NewBillHandler(billStore, client, log),
		CategoryHandler: handler.NewCategoryHandler(registry, log),
		StatsHandler:    handler.NewStatsHandler(billStore, aggregator, log),
		HealthHandler:   handler.NewHealthHandler(store),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()
	log.Info("Shutdown signal received")

	syncSvc.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

// openStore picks the KV backend from the configuration and returns
// it with its cleanup.
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := kv.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case cfg.RedisURL != "":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return kv.NewRedis(client), func() { client.Close() }, nil

	default:
		db, err := kv.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
}
