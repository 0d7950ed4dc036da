// Package router configures HTTP routes for the lakewatch server.
//
// The server exposes a small dashboard for Canyon Lake, Texas: HTML pages
// backed by JSON endpoints that poll USGS Water Services and the
// Open-Meteo weather API on demand.
//
// Routes configured:
//   - GET /              - Dashboard page (visit tracked)
//   - GET /chart         - Historical chart page (visit tracked)
//   - GET /analytics     - Visit analytics page (IP gated, visit tracked)
//   - GET /api/status    - Current lake status as JSON
//   - GET /api/history   - Daily elevation and flow history as JSON
//   - GET /api/flow-12hr - Half-day mean flow buckets as JSON
//   - GET /api/environment - Weather, sun, and moon data as JSON
//   - GET /api/stats     - Visit rollup as JSON (IP gated)
//   - GET /healthz       - Health check endpoint (returns 200 OK)
//   - GET /metrics       - Prometheus metrics endpoint
//
// Upstream failures surface as an error envelope with a status code
// describing the failure class: 504 for timeouts, 502 for unreachable
// hosts and malformed payloads, 404 when the gauge returned no data.
package router

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rwhasting/lakewatch/cmd/lakewatch/metrics"
	"github.com/rwhasting/lakewatch/pkg/astro"
	"github.com/rwhasting/lakewatch/pkg/httpx"
	"github.com/rwhasting/lakewatch/pkg/ipallow"
	"github.com/rwhasting/lakewatch/pkg/lake"
	"github.com/rwhasting/lakewatch/pkg/upstream"
	"github.com/rwhasting/lakewatch/pkg/visits"
)

// Deps carries everything the handlers need.
type Deps struct {
	USGS    *upstream.USGSClient
	Weather *upstream.WeatherClient
	Visits  visits.Store
	Allow   *ipallow.List
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	LakeSite       string
	FlowSite       string
	ElevationParam string
	FlowParam      string
	Thresholds     lake.Thresholds
	Location       *time.Location
	Latitude       float64
	Longitude      float64
	HistoryDays    int
	FlowWindowDays int
}

// SetupRoutes configures HTTP endpoints for the lakewatch server.
func SetupRoutes(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/", exactPath("/", d.trackVisit("/", d.handlePage("index.html", "Canyon Lake Status"))))
	mux.Handle("/chart", d.trackVisit("/chart", d.handlePage("chart.html", "Canyon Lake History")))
	mux.Handle("/analytics", d.requireAllowed(d.trackVisit("/analytics", d.handlePage("analytics.html", "Visit Analytics"))))

	mux.HandleFunc("/api/status", d.handleStatus)
	mux.HandleFunc("/api/history", d.handleHistory)
	mux.HandleFunc("/api/flow-12hr", d.handleFlow12hr)
	mux.HandleFunc("/api/environment", d.handleEnvironment)
	mux.Handle("/api/stats", d.requireAllowed(http.HandlerFunc(d.handleStats)))

	mux.Handle("/healthz", httpx.HealthHandler())
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handleStatus returns the current lake status derived from the most
// recent instantaneous elevation reading.
func (d *Deps) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	start := time.Now()
	samples, err := d.USGS.Instantaneous(ctx, d.LakeSite, d.ElevationParam, 2*time.Hour)
	d.Metrics.RecordFetch("usgs_iv", time.Since(start).Seconds())
	if err != nil {
		d.writeUpstreamError(w, "usgs_iv", err)
		return
	}

	latest := samples[len(samples)-1]
	snap := d.Thresholds.Snapshot(latest.Value, latest.Time)
	d.Metrics.RecordStatus(snap.Elevation, snap.PercentageFull)

	if err := httpx.WriteJSON(w, http.StatusOK, snap); err != nil {
		d.Logger.Error("failed to write JSON response", "error", err)
	}
}

// handleHistory returns one record per calendar day over the history
// window, merging daily elevation with daily mean discharge. Days where
// one gauge is silent carry a null for that column.
func (d *Deps) handleHistory(w http.ResponseWriter, r *http.Request) {
	days := d.HistoryDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	end := time.Now().In(d.Location)
	begin := end.AddDate(0, 0, -days)

	start := time.Now()
	lakeDays, err := d.USGS.Daily(ctx, d.LakeSite, d.ElevationParam, begin, end)
	d.Metrics.RecordFetch("usgs_dv", time.Since(start).Seconds())
	if err != nil {
		d.writeUpstreamError(w, "usgs_dv", err)
		return
	}

	start = time.Now()
	flowDays, err := d.USGS.Daily(ctx, d.FlowSite, d.FlowParam, begin, end)
	d.Metrics.RecordFetch("usgs_dv", time.Since(start).Seconds())
	if err != nil && !errors.Is(err, upstream.ErrNoData) {
		d.writeUpstreamError(w, "usgs_dv", err)
		return
	}

	records := lake.MergeDaily(lakeDays, flowDays, d.Thresholds)

	resp := map[string]any{
		"status":  "success",
		"days":    days,
		"history": records,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		d.Logger.Error("failed to write JSON response", "error", err)
	}
}

// handleFlow12hr returns mean discharge per half-day bucket over the
// flow window. Bucket boundaries follow the configured timezone.
func (d *Deps) handleFlow12hr(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	period := time.Duration(d.FlowWindowDays) * 24 * time.Hour

	start := time.Now()
	samples, err := d.USGS.Instantaneous(ctx, d.FlowSite, d.FlowParam, period)
	d.Metrics.RecordFetch("usgs_iv", time.Since(start).Seconds())
	if err != nil {
		d.writeUpstreamError(w, "usgs_iv", err)
		return
	}

	buckets := lake.AggregateHalfDay(samples, d.Location)

	resp := map[string]any{
		"status":  "success",
		"site":    d.FlowSite,
		"buckets": buckets,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		d.Logger.Error("failed to write JSON response", "error", err)
	}
}

// handleEnvironment returns current weather together with sun and moon
// data for the reservoir's coordinates.
func (d *Deps) handleEnvironment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), upstream.DefaultTimeout)
	defer cancel()

	start := time.Now()
	cond, err := d.Weather.Current(ctx)
	d.Metrics.RecordFetch("weather", time.Since(start).Seconds())
	if err != nil {
		d.writeUpstreamError(w, "weather", err)
		return
	}

	now := time.Now().In(d.Location)
	day := astro.For(now, d.Latitude, d.Longitude)

	resp := map[string]any{
		"status":            "success",
		"timestamp":         now.Format(time.RFC3339),
		"temperature_f":     cond.TemperatureF,
		"wind_mph":          cond.WindMPH,
		"weather_code":      cond.WeatherCode,
		"conditions":        cond.Condition,
		"sunrise":           day.Sunrise.In(d.Location).Format(time.RFC3339),
		"sunset":            day.Sunset.In(d.Location).Format(time.RFC3339),
		"moon_phase":        day.MoonPhase,
		"moon_illumination": day.MoonIllumination,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		d.Logger.Error("failed to write JSON response", "error", err)
	}
}

// handleStats returns the visit rollup. Reached only through the
// allow-list gate.
func (d *Deps) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	rollup, err := d.Visits.Rollup(ctx, time.Now())
	if err != nil {
		d.Logger.Error("failed to read visit rollup", "error", err)
		httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := map[string]any{
		"status": "success",
		"stats":  rollup,
	}
	if err := httpx.WriteJSON(w, http.StatusOK, resp); err != nil {
		d.Logger.Error("failed to write JSON response", "error", err)
	}
}

// requireAllowed rejects requests whose client IP is outside the
// analytics allow-list.
func (d *Deps) requireAllowed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !d.Allow.AllowsRequest(r) {
			d.Logger.Warn("analytics access denied", "ip", clientIPString(r), "path", r.URL.Path)
			httpx.WriteErrorMessage(w, http.StatusForbidden, "access restricted")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// trackVisit appends a visit record before serving the page. A failed
// append is logged and never blocks the response.
func (d *Deps) trackVisit(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.UserAgent()
		category, _ := visits.DetectBot(ua)
		rec := visits.Record{
			Time:        time.Now(),
			Route:       route,
			IP:          clientIPString(r),
			UserAgent:   ua,
			BotCategory: category,
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Visits.Append(ctx, rec); err != nil {
			d.Logger.Error("failed to record visit", "route", route, "error", err)
		}
		d.Metrics.VisitsTotal.WithLabelValues(route).Inc()

		next.ServeHTTP(w, r)
	})
}

// clientIPString resolves the caller's address for logging and visit
// records. Unparseable addresses come back as "unknown".
func clientIPString(r *http.Request) string {
	addr, err := ipallow.ClientIP(r)
	if err != nil {
		return "unknown"
	}
	return addr.String()
}

// writeUpstreamError maps the upstream error taxonomy onto HTTP status
// codes and records the failure.
func (d *Deps) writeUpstreamError(w http.ResponseWriter, source string, err error) {
	var code int
	var kind string
	switch {
	case errors.Is(err, upstream.ErrTimeout):
		code, kind = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, upstream.ErrNoData):
		code, kind = http.StatusNotFound, "no_data"
	case errors.Is(err, upstream.ErrMalformed):
		code, kind = http.StatusBadGateway, "malformed"
	case errors.Is(err, upstream.ErrUnreachable):
		code, kind = http.StatusBadGateway, "unreachable"
	default:
		code, kind = http.StatusInternalServerError, "internal"
	}

	d.Metrics.RecordError(source, kind)
	d.Logger.Error("upstream fetch failed", "source", source, "kind", kind, "error", err)
	httpx.WriteError(w, code, err)
}
