package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/AdamBeresnev/bracketd/internal/config"
	"github.com/AdamBeresnev/bracketd/internal/db"
	"github.com/AdamBeresnev/bracketd/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := newApp(database, cfg, logger, metrics.New(registry))
	router := newRouter(app, registry)

	logger.Info("Server starting", "addr", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
