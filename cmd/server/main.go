package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"persreg/internal/individual/handler"
	"persreg/internal/individual/service"
	"persreg/internal/individual/store"
	"persreg/internal/platform/config"
	"persreg/internal/platform/httpserver"
	"persreg/internal/platform/logger"
	"persreg/internal/platform/metrics"
	"persreg/internal/platform/postgres"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business rules live in the individual service.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	gateway, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer gateway.Close()

	m := metrics.New()
	svc := service.New(
		store.NewPostgres(gateway),
		service.WithLogger(log),
		service.WithMetrics(m),
	)

	router := chi.NewRouter()
	handler.New(svc, log, m, gateway, cfg.Server.RequestTimeout).Register(router)
	router.Handle("/metrics", promhttp.Handler())

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting persreg", "addr", cfg.Server.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
