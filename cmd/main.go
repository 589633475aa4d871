package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/EvgenyiK/subscription-lifecycle/cmd/docs"
	"github.com/EvgenyiK/subscription-lifecycle/internal/config"
	"github.com/EvgenyiK/subscription-lifecycle/internal/handlers"
	"github.com/EvgenyiK/subscription-lifecycle/internal/logger"
	"github.com/EvgenyiK/subscription-lifecycle/internal/mapper"
	"github.com/EvgenyiK/subscription-lifecycle/internal/repository"
	"github.com/EvgenyiK/subscription-lifecycle/internal/scheduler"
	"github.com/EvgenyiK/subscription-lifecycle/internal/server"
	"github.com/EvgenyiK/subscription-lifecycle/internal/service"
	"github.com/EvgenyiK/subscription-lifecycle/internal/validator"
)

// @title Subscription Service API
// @version 1.0
// @description API для управления подписками.
// @host localhost:8080

func main() {
	if err := run(); err != nil {
		slog.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(log)
	if envErr != nil {
		log.Info("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()
	log.Info("database connection established")

	if cfg.RunMigrations {
		if err := repo.Migrate(ctx, log); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	svc := service.NewService(repo, validator.New(time.Now), mapper.New(), time.Now, log)

	jobs := scheduler.New(svc, log)
	if err := jobs.Start(cfg.ExpireJobSchedule); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer jobs.Stop()

	h := handlers.NewHandler(svc, repo.Ping, log)
	router := server.NewRouter(h, server.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		close(serveErr)
	}()

	// Ожидаем сигнала или падения сервера
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-serveErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
