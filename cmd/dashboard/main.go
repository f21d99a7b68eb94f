package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"platinum/internal/amqp"
	"platinum/internal/auth"
	"platinum/internal/cache"
	"platinum/internal/cli"
	apphttp "platinum/internal/http"
	applog "platinum/internal/log"
	"platinum/internal/metrics"
	"platinum/internal/refresh"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)

	params, err := cfg.Params()
	if err != nil {
		logger.Error("Invalid dashboard parameters", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := cli.ShutdownContext(logger)
	defer cancel()

	res := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	m := metrics.New()

	// Refresh events are optional; without a broker the dashboard still works.
	var publisher refresh.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "", logger)
		if err != nil {
			logger.Warn("AMQP unavailable, refresh events disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			publisher = client
		}
	}

	svc := refresh.NewService(res.Backend, params, refresh.Options{
		CacheTTL:   cfg.QueryCacheTTL,
		Metrics:    m,
		Publisher:  publisher,
		RoutingKey: cfg.AMQPRefreshRoute,
		Logger:     logger,
	})

	authenticator, err := auth.New(auth.Config{
		User:         cfg.DashboardUser,
		Password:     cfg.DashboardPassword,
		PasswordHash: cfg.DashboardPasswordHash,
		SessionTTL:   cfg.SessionTTL,
		CookieSecure: cfg.CookieSecure,
	}, m, logger)
	if err != nil {
		logger.Error("Failed to configure authentication", applog.FieldError, err)
		os.Exit(1)
	}

	caches := cache.NewManager(logger)
	for name, c := range svc.Caches() {
		caches.Register(name, c)
	}
	caches.Register("sessions", authenticator.Sessions())
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Refresh:            svc,
		Auth:               authenticator,
		Metrics:            m,
		Logger:             logger,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Ready:              res.Ping,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Starting platinum dashboard",
		"port", cfg.Port,
		applog.FieldBackend, cfg.DataBackend,
		"auth_mode", authenticator.Mode(),
		applog.FieldOperation, applog.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
