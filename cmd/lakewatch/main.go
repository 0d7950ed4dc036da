// Command lakewatch serves a status dashboard for Canyon Lake, Texas.
//
// The server polls USGS Water Services and the Open-Meteo weather API on
// demand and serves:
//   - GET /              - Dashboard page
//   - GET /chart         - Historical chart page
//   - GET /analytics     - Visit analytics page (IP gated)
//   - GET /api/status    - Current lake status
//   - GET /api/history   - Daily elevation and flow history
//   - GET /api/flow-12hr - Half-day mean flow buckets
//   - GET /api/environment - Weather, sun, and moon data
//   - GET /api/stats     - Visit rollup (IP gated)
//   - GET /healthz       - Health check endpoint
//   - GET /metrics       - Prometheus metrics endpoint
//
// Usage:
//
//	lakewatch \
//	  -listen=:8080 \
//	  -lake-site=08167700 \
//	  -flow-site=08167800 \
//	  -visit-store=sqlite \
//	  -allow-list=127.0.0.1,10.0.0.0/8
//
// Environment variables mirror the flags (LISTEN, LAKE_SITE, FLOW_SITE,
// VISIT_STORE, ANALYTICS_ALLOW_LIST, LOG_LEVEL, LOG_FORMAT, ...); a
// .env file in the working directory is loaded first if present.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rwhasting/lakewatch/cmd/lakewatch/config"
	"github.com/rwhasting/lakewatch/cmd/lakewatch/logger"
	"github.com/rwhasting/lakewatch/cmd/lakewatch/metrics"
	"github.com/rwhasting/lakewatch/cmd/lakewatch/router"
	"github.com/rwhasting/lakewatch/pkg/httpx"
	"github.com/rwhasting/lakewatch/pkg/ipallow"
	"github.com/rwhasting/lakewatch/pkg/upstream"
	"github.com/rwhasting/lakewatch/pkg/visits"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.ParseFlags()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	log.Info("starting lakewatch",
		"version", version,
		"lake_site", cfg.LakeSite,
		"flow_site", cfg.FlowSite,
		"visit_store", cfg.VisitStore,
	)

	allow, err := ipallow.Parse(cfg.AllowList)
	if err != nil {
		log.Error("invalid allow-list", "error", err)
		os.Exit(1)
	}

	store, err := newVisitStore(cfg, log)
	if err != nil {
		log.Error("failed to open visit store", "backend", cfg.VisitStore, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close visit store", "error", err)
		}
	}()

	client := httpx.NewClient(cfg.UpstreamTimeout)
	m := metrics.New()

	deps := &router.Deps{
		USGS: &upstream.USGSClient{
			InstantURL: cfg.USGSInstantURL,
			DailyURL:   cfg.USGSDailyURL,
			HTTPClient: client,
		},
		Weather: &upstream.WeatherClient{
			BaseURL:    cfg.WeatherURL,
			Latitude:   cfg.Latitude,
			Longitude:  cfg.Longitude,
			HTTPClient: client,
		},
		Visits:  store,
		Allow:   allow,
		Metrics: m,
		Logger:  log,

		LakeSite:       cfg.LakeSite,
		FlowSite:       cfg.FlowSite,
		ElevationParam: cfg.ElevationParam,
		FlowParam:      cfg.FlowParam,
		Thresholds:     cfg.Thresholds,
		Location:       cfg.Location(),
		Latitude:       cfg.Latitude,
		Longitude:      cfg.Longitude,
		HistoryDays:    cfg.HistoryDays,
		FlowWindowDays: cfg.FlowWindowDays,
	}

	mux := router.SetupRoutes(deps)
	handler := httpx.LoggingMiddleware(log)(httpx.RecoveryMiddleware(log)(m.HTTPMiddleware(mux)))
	httpServer := httpx.NewServer(cfg.Listen, handler, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
		}
	}

	log.Info("shutting down")

	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

// newVisitStore opens the configured visit log backend.
func newVisitStore(cfg *config.Config, log *slog.Logger) (visits.Store, error) {
	switch cfg.VisitStore {
	case "memory":
		return visits.NewMemoryStore(), nil
	case "redis":
		log.Info("using redis visit store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return visits.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		path := cfg.SQLitePath
		log.Info("using sqlite visit store", "path", path)
		return visits.NewSQLiteStore(path)
	}
}
