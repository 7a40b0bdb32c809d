package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/Emmyhack/Supply-Chain-final-project/internal/adapter/feed"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/adapter/handler"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/adapter/payment"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/adapter/storage"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/config"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/core/service"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/logging"
	"github.com/Emmyhack/Supply-Chain-final-project/internal/port"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer cleanup()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if cfg.Operator == "" {
		return errors.New("OPERATOR must be set")
	}

	// Storage backend.
	var store port.LedgerStore
	switch cfg.StoreBackend {
	case "sqlite":
		sqliteStore, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open sqlite: %w", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		logger.Info("opened sqlite store", "path", cfg.DBPath)
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return fmt.Errorf("open mysql: %w", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping mysql: %w", err)
		}
		mysqlStore := storage.NewMySQLAdapter(db)
		if err := mysqlStore.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure mysql schema: %w", err)
		}
		store = mysqlStore
		logger.Info("connected to mysql")
	default:
		return fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	// Event feed backend.
	var eventFeed port.EventFeed
	switch cfg.FeedBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		defer rdb.Close()
		eventFeed = feed.NewRedisFeed(rdb, cfg.RedisStream)
		logger.Info("publishing events to redis stream", "stream", cfg.RedisStream)
	case "kafka":
		kafkaFeed := feed.NewKafkaFeed(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaFeed.Close()
		eventFeed = kafkaFeed
		logger.Info("publishing events to kafka", "topic", cfg.KafkaTopic)
	case "log":
		eventFeed = feed.NewLogFeed(logger)
	default:
		return fmt.Errorf("unknown feed backend %q", cfg.FeedBackend)
	}

	// The in-memory gateway stands in for the host's payment primitive.
	gateway := payment.NewMemoryGateway()

	ledger := service.NewLedgerService(store, gateway, eventFeed, cfg.Operator, logger)
	h := handler.NewHTTPHandler(ledger, logger)

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.Routes(cfg.JWTSecret),
	}

	go func() {
		logger.Info("HTTP server listening", "addr", cfg.ListenAddr, "operator", cfg.Operator)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logger.Info("HTTP server stopped")

	return nil
}
