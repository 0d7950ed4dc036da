// Package visits provides lakewatch's append-only visit log and its
// rollup views.
//
// Every tracked page request appends one Record. The detail list kept
// for display is truncated to the most recent RecentLimit entries, but
// the cumulative counters — total hits, per-route counts, per-IP hit
// counts, bot-category counts — are exact across every record ever
// written, independent of the truncation.
//
// Three Store implementations are provided:
//   - MemoryStore — process-local, for tests and development
//   - SQLiteStore — file-backed, the durable default
//   - RedisStore  — shared storage for multi-instance deployments
//
// Appends are serialized inside each implementation (mutex, transaction,
// or pipeline), so concurrent requests never interleave writes.
package visits

import (
	"context"
	"sort"
	"time"
)

// RecentLimit caps the detail list kept for display.
const RecentLimit = 100

// TopVisitorLimit caps the ranked visitor list in a rollup.
const TopVisitorLimit = 10

// Record is one visit log entry.
type Record struct {
	Time        time.Time `json:"time"`
	Route       string    `json:"route"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"user_agent,omitempty"`
	BotCategory string    `json:"bot_category,omitempty"` // empty means human
}

// VisitorCount ranks one visitor by cumulative hit count.
type VisitorCount struct {
	IP   string `json:"ip"`
	Hits int64  `json:"hits"`
}

// Rollup is the computed read view of the visit log.
//
// UniqueVisitors counts the all-time distinct-IP set from the cumulative
// counters. Unique24h and Unique7d are computed by timestamp-filtering
// the stored detail records, so they cannot see further back than the
// RecentLimit truncation allows.
type Rollup struct {
	TotalHits      int64            `json:"total_hits"`
	UniqueVisitors int              `json:"unique_visitors"`
	Unique24h      int              `json:"unique_visitors_24h"`
	Unique7d       int              `json:"unique_visitors_7d"`
	RouteCounts    map[string]int64 `json:"route_counts"`
	BotCounts      map[string]int64 `json:"bot_counts"`
	TopVisitors    []VisitorCount   `json:"top_visitors"`
	RecentVisits   []Record         `json:"recent_visits"`
}

// Store is the persistence contract for the visit log.
type Store interface {
	// Append records one visit. Implementations must serialize writes.
	Append(ctx context.Context, rec Record) error

	// Rollup computes the read view as of now.
	Rollup(ctx context.Context, now time.Time) (Rollup, error)

	// Close releases the backing resources.
	Close() error
}

// totals is the cumulative counter state shared by the implementations.
type totals struct {
	hits   int64
	routes map[string]int64
	ips    map[string]int64
	bots   map[string]int64
}

func newTotals() totals {
	return totals{
		routes: make(map[string]int64),
		ips:    make(map[string]int64),
		bots:   make(map[string]int64),
	}
}

func (t *totals) add(rec Record) {
	t.hits++
	t.routes[rec.Route]++
	t.ips[rec.IP]++
	if rec.BotCategory != "" {
		t.bots[rec.BotCategory]++
	}
}

// buildRollup assembles a Rollup from cumulative counters and the stored
// detail records. detail must be ordered newest first.
func buildRollup(t totals, detail []Record, now time.Time) Rollup {
	r := Rollup{
		TotalHits:      t.hits,
		UniqueVisitors: len(t.ips),
		RouteCounts:    make(map[string]int64, len(t.routes)),
		BotCounts:      make(map[string]int64, len(t.bots)),
		RecentVisits:   detail,
	}
	for k, v := range t.routes {
		r.RouteCounts[k] = v
	}
	for k, v := range t.bots {
		r.BotCounts[k] = v
	}

	day := make(map[string]struct{})
	week := make(map[string]struct{})
	for _, rec := range detail {
		age := now.Sub(rec.Time)
		if age <= 24*time.Hour {
			day[rec.IP] = struct{}{}
		}
		if age <= 7*24*time.Hour {
			week[rec.IP] = struct{}{}
		}
	}
	r.Unique24h = len(day)
	r.Unique7d = len(week)

	r.TopVisitors = make([]VisitorCount, 0, len(t.ips))
	for ip, hits := range t.ips {
		r.TopVisitors = append(r.TopVisitors, VisitorCount{IP: ip, Hits: hits})
	}
	sort.Slice(r.TopVisitors, func(i, j int) bool {
		if r.TopVisitors[i].Hits != r.TopVisitors[j].Hits {
			return r.TopVisitors[i].Hits > r.TopVisitors[j].Hits
		}
		return r.TopVisitors[i].IP < r.TopVisitors[j].IP
	})
	if len(r.TopVisitors) > TopVisitorLimit {
		r.TopVisitors = r.TopVisitors[:TopVisitorLimit]
	}

	return r
}
