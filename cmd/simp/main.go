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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dukerupert/simp/internal/auth"
	"github.com/dukerupert/simp/internal/config"
	"github.com/dukerupert/simp/internal/database"
	"github.com/dukerupert/simp/internal/logging"
	"github.com/dukerupert/simp/internal/maintenance"
	"github.com/dukerupert/simp/internal/server"
)

const maintenanceInterval = time.Hour

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var sealer *auth.Sealer
	if len(cfg.Auth.EncryptionKey) > 0 {
		if sealer, err = auth.NewSealer(cfg.Auth.EncryptionKey); err != nil {
			return fmt.Errorf("cookie sealer: %w", err)
		}
	} else {
		logger.Warn("SIMP_ENCRYPTION_KEY not set, session cookies carry the raw token")
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, sealer)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := server.New(db, server.Config{
		Tokens:       tokens,
		CORSOrigin:   cfg.Server.CORSOrigin,
		CookieSecure: cfg.Server.CookieSecure,
		Location:     cfg.Server.Location,
		Registry:     reg,

		TrustProxyHeaders: cfg.Server.TrustProxyHeaders,
	}, logger)

	maintLogger := logger.With("component", "maintenance")
	sched := maintenance.NewScheduler(cfg.Server.Location, maintLogger)
	for _, job := range []maintenance.Job{
		maintenance.PurgeRevokedTokens(srv.RevocationStore(), maintenanceInterval, maintLogger),
		maintenance.CleanRateLimiter(srv.RateLimiter(), maintenanceInterval, maintLogger),
	} {
		if err := sched.Add(job); err != nil {
			return err
		}
	}
	sched.Start()

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("simp listening", "addr", httpServer.Addr, "timezone", cfg.Server.Location.String())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sched.Stop(ctx)
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
