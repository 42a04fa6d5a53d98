package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"blog-api/internal/config"
	"blog-api/internal/http-server/router"
	"blog-api/internal/lib/logger"
	"blog-api/internal/lib/logger/sl"
	articleservice "blog-api/internal/service/article"
	commentservice "blog-api/internal/service/comment"
	userservice "blog-api/internal/service/user"
	"blog-api/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := logger.New(cfg.Env)

	log.Debug("initializing server...", slog.String("addr", cfg.Address), slog.String("env", cfg.Env))

	// Init storage
	storage, err := sqlite.New(cfg.StoragePath)
	if err != nil {
		log.Error("error opening storage", sl.Error(err))
		os.Exit(1)
	}
	defer func() {
		if err := storage.Close(); err != nil {
			log.Error("error closing storage", sl.Error(err))
		}
	}()

	// Init service layer
	services := router.Services{
		Users:    userservice.New(log, storage, cfg.Secret, cfg.TokenTTL, cfg.BcryptCost),
		Articles: articleservice.New(log, storage),
		Comments: commentservice.New(log, storage),
	}

	// Handlers and middleware
	srv := http.Server{
		Handler:      router.New(log, cfg, services, storage),
		Addr:         cfg.Address,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	log.Debug("server initialized")
	log.Info("server is running...", slog.String("addr", cfg.Address))

	// Gracefully shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGTERM, syscall.SIGINT, os.Interrupt)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("error starting server", sl.Error(err))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error stopping server", sl.Error(err))
	}

	log.Info("server stopped")
}
