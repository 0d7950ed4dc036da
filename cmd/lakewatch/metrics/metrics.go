// Package metrics provides Prometheus metrics instrumentation for the
// lakewatch server.
//
// It exposes operational metrics about upstream fetches and the HTTP
// surface, all served via the /metrics endpoint for Prometheus scraping.
//
// Metrics exposed:
//   - lakewatch_upstream_fetch_seconds: Histogram of upstream request duration by source
//   - lakewatch_upstream_errors_total: Counter of upstream errors by source and kind
//   - lakewatch_http_requests_total: Counter of HTTP requests by route and status
//   - lakewatch_visits_total: Counter of tracked page visits by route
//   - lakewatch_lake_elevation_feet: Gauge of the last observed lake elevation
//   - lakewatch_lake_percent_full: Gauge of the last computed percent-full value
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rwhasting/lakewatch/pkg/httpx"
)

// Metrics holds all Prometheus metrics for the lakewatch server.
type Metrics struct {
	UpstreamFetchSeconds *prometheus.HistogramVec
	UpstreamErrorsTotal  *prometheus.CounterVec
	HTTPRequestsTotal    *prometheus.CounterVec
	VisitsTotal          *prometheus.CounterVec
	LakeElevationFeet    prometheus.Gauge
	LakePercentFull      prometheus.Gauge
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UpstreamFetchSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lakewatch_upstream_fetch_seconds",
			Help:    "Time spent fetching data from an upstream source",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),

		UpstreamErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lakewatch_upstream_errors_total",
			Help: "Total number of upstream fetch errors by source and kind",
		}, []string{"source", "kind"}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lakewatch_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "status"}),

		VisitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lakewatch_visits_total",
			Help: "Total number of tracked page visits by route",
		}, []string{"route"}),

		LakeElevationFeet: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lakewatch_lake_elevation_feet",
			Help: "Last observed lake surface elevation in feet above NGVD 1929",
		}),

		LakePercentFull: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lakewatch_lake_percent_full",
			Help: "Last computed conservation-pool fill percentage",
		}),
	}
}

// RecordFetch records the duration of an upstream fetch.
func (m *Metrics) RecordFetch(source string, seconds float64) {
	m.UpstreamFetchSeconds.WithLabelValues(source).Observe(seconds)
}

// RecordError increments the upstream error counter.
func (m *Metrics) RecordError(source, kind string) {
	m.UpstreamErrorsTotal.WithLabelValues(source, kind).Inc()
}

// RecordStatus updates the lake gauges after a successful status fetch.
func (m *Metrics) RecordStatus(elevation, percentFull float64) {
	m.LakeElevationFeet.Set(elevation)
	m.LakePercentFull.Set(percentFull)
}

// knownRoutes bounds the route label cardinality; anything else is
// lumped under "other".
var knownRoutes = map[string]struct{}{
	"/":                {},
	"/chart":           {},
	"/analytics":       {},
	"/api/status":      {},
	"/api/history":     {},
	"/api/flow-12hr":   {},
	"/api/environment": {},
	"/api/stats":       {},
	"/healthz":         {},
	"/metrics":         {},
}

func routeLabel(path string) string {
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}

// HTTPMiddleware returns middleware that counts requests by route and
// status code.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &httpx.ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.HTTPRequestsTotal.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.StatusCode)).Inc()
	})
}
