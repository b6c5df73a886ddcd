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

	"cartshare-backend/internal/auth"
	"cartshare-backend/internal/config"
	"cartshare-backend/internal/httpapi"
	"cartshare-backend/internal/orders"
	"cartshare-backend/internal/store"
	"cartshare-backend/internal/users"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger.Info("connecting to mongodb", "uri", cfg.MongoURI, "database", cfg.Database)
	st, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(shutdownCtx); err != nil {
			logger.Error("closing store", "err", err)
		}
	}()

	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenValidity)
	userService := users.NewService(st, tokens, cfg.HashIterations, logger)
	orderService := orders.NewService(st, logger)
	handlers := httpapi.NewHandlers(userService, orderService, logger)
	router := httpapi.NewRouter(handlers, tokens, cfg.AllowedOrigins, logger)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
