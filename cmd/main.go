package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mstgnz/gocomgate/infra/config"
	"github.com/mstgnz/gocomgate/infra/logger"
	"github.com/mstgnz/gocomgate/infra/metrics"
	"github.com/mstgnz/gocomgate/infra/middle"
	"github.com/mstgnz/gocomgate/infra/opensearch"
	"github.com/mstgnz/gocomgate/infra/storage"
	"github.com/mstgnz/gocomgate/provider"
	"github.com/mstgnz/gocomgate/provider/comgate"
	"github.com/mstgnz/gocomgate/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.GetAppConfig()
	logger.InitGlobalLogger(cfg)
	log := logger.GetGlobalLogger()
	defer log.Sync()

	if envErr != nil {
		log.Info("no .env file, using process environment")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal("invalid app config", err)
	}

	gatewayConf, err := config.LoadGatewayConfig()
	if err != nil {
		log.Fatal("invalid gateway config", err)
	}

	journal, closeJournal, err := openJournal(cfg)
	if err != nil {
		log.Fatal("failed to open call journal", err, logger.LogContext{Fields: map[string]any{"driver": cfg.JournalDriver}})
	}
	defer closeJournal()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(cfg.MetricsNamespace, registry)

	opts := []comgate.Option{comgate.WithObserver(m), comgate.WithLogger(log)}
	if journal != nil {
		opts = append(opts, comgate.WithJournal(journal))
	}
	gateway, err := comgate.New(gatewayConf, opts...)
	if err != nil {
		log.Fatal("failed to initialize gateway", err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middle.PanicRecoveryMiddleware(log))
	r.Use(middle.RequestLoggingMiddleware(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	stopRoutes := router.Routes(r, router.Deps{
		Config:   cfg,
		Gateway:  gateway,
		Journal:  journal,
		Observer: m,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Validate: validator.New(),
		Log:      log,
		Version:  version,
	})
	defer stopRoutes()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", err)
			stop()
		}
	}()

	log.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":           cfg.Port,
		"journal_driver": cfg.JournalDriver,
		"base_url":       gatewayConf.BaseURL,
	}})

	<-ctx.Done()
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", err)
	}
}

// openJournal opens the call journal selected by JOURNAL_DRIVER. "none" returns a nil journal.
func openJournal(cfg *config.AppConfig) (provider.CallJournal, func(), error) {
	switch cfg.JournalDriver {
	case "sqlite":
		j, err := storage.NewSQLiteJournal(cfg.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		return j, func() { _ = j.Close() }, nil
	case "opensearch":
		client, err := opensearch.NewClient(cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return opensearch.NewJournal(client), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}
