package visits

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryStoreRollup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	// Five hits from one IP still count as one unique visitor.
	for i := 0; i < 5; i++ {
		rec := Record{Time: now.Add(-time.Duration(i) * time.Minute), Route: "/", IP: "10.0.0.1"}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	if err := store.Append(ctx, Record{Time: now, Route: "/chart", IP: "10.0.0.2"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rollup, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}

	if rollup.TotalHits != 6 {
		t.Errorf("TotalHits = %d, want 6", rollup.TotalHits)
	}
	if rollup.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", rollup.UniqueVisitors)
	}
	if rollup.RouteCounts["/"] != 5 || rollup.RouteCounts["/chart"] != 1 {
		t.Errorf("RouteCounts = %v, want /=5 /chart=1", rollup.RouteCounts)
	}
	if len(rollup.RecentVisits) != 6 {
		t.Errorf("len(RecentVisits) = %d, want 6", len(rollup.RecentVisits))
	}
	// Newest first.
	if rollup.RecentVisits[0].Route != "/chart" {
		t.Errorf("RecentVisits[0].Route = %q, want /chart", rollup.RecentVisits[0].Route)
	}
}

func TestMemoryStoreTimeWindows(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	appendAt := func(ip string, age time.Duration) {
		t.Helper()
		if err := store.Append(ctx, Record{Time: now.Add(-age), Route: "/", IP: ip}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	appendAt("10.0.0.1", time.Hour)         // inside 24h
	appendAt("10.0.0.2", 3*24*time.Hour)    // inside 7d only
	appendAt("10.0.0.3", 10*24*time.Hour)   // outside both windows
	appendAt("10.0.0.1", 2*24*time.Hour)    // same IP, second window hit

	rollup, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}

	if rollup.Unique24h != 1 {
		t.Errorf("Unique24h = %d, want 1", rollup.Unique24h)
	}
	if rollup.Unique7d != 2 {
		t.Errorf("Unique7d = %d, want 2", rollup.Unique7d)
	}
	if rollup.UniqueVisitors != 3 {
		t.Errorf("UniqueVisitors = %d, want 3", rollup.UniqueVisitors)
	}
}

func TestMemoryStoreTruncationKeepsCounters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	total := RecentLimit + 50
	for i := 0; i < total; i++ {
		rec := Record{
			Time:  now.Add(-time.Duration(i) * time.Second),
			Route: "/",
			IP:    fmt.Sprintf("10.0.%d.%d", i/256, i%256),
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	rollup, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}

	if len(rollup.RecentVisits) != RecentLimit {
		t.Errorf("len(RecentVisits) = %d, want %d", len(rollup.RecentVisits), RecentLimit)
	}
	// Counters are exact past the truncation horizon.
	if rollup.TotalHits != int64(total) {
		t.Errorf("TotalHits = %d, want %d", rollup.TotalHits, total)
	}
	if rollup.UniqueVisitors != total {
		t.Errorf("UniqueVisitors = %d, want %d", rollup.UniqueVisitors, total)
	}
}

func TestMemoryStoreBotCounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	records := []Record{
		{Time: now, Route: "/", IP: "10.0.0.1", BotCategory: BotSearchEngine},
		{Time: now, Route: "/", IP: "10.0.0.2", BotCategory: BotSearchEngine},
		{Time: now, Route: "/", IP: "10.0.0.3", BotCategory: BotAI},
		{Time: now, Route: "/", IP: "10.0.0.4"}, // human
	}
	for _, rec := range records {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	rollup, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}

	if rollup.BotCounts[BotSearchEngine] != 2 {
		t.Errorf("BotCounts[%q] = %d, want 2", BotSearchEngine, rollup.BotCounts[BotSearchEngine])
	}
	if rollup.BotCounts[BotAI] != 1 {
		t.Errorf("BotCounts[%q] = %d, want 1", BotAI, rollup.BotCounts[BotAI])
	}
	if _, ok := rollup.BotCounts[""]; ok {
		t.Error("human visits must not appear in BotCounts")
	}
}

func TestMemoryStoreTopVisitors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	// 12 distinct IPs; IP i gets i+1 hits.
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			rec := Record{Time: now, Route: "/", IP: fmt.Sprintf("10.0.0.%d", i)}
			if err := store.Append(ctx, rec); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
	}

	rollup, err := store.Rollup(ctx, now)
	if err != nil {
		t.Fatalf("Rollup() error = %v", err)
	}

	if len(rollup.TopVisitors) != TopVisitorLimit {
		t.Fatalf("len(TopVisitors) = %d, want %d", len(rollup.TopVisitors), TopVisitorLimit)
	}
	if rollup.TopVisitors[0].IP != "10.0.0.11" || rollup.TopVisitors[0].Hits != 12 {
		t.Errorf("TopVisitors[0] = %+v, want 10.0.0.11 with 12 hits", rollup.TopVisitors[0])
	}
	for i := 1; i < len(rollup.TopVisitors); i++ {
		if rollup.TopVisitors[i].Hits > rollup.TopVisitors[i-1].Hits {
			t.Errorf("TopVisitors not sorted descending at %d: %+v", i, rollup.TopVisitors)
		}
	}
}

func TestMemoryStoreRejectsIncompleteRecord(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Append(context.Background(), Record{Route: "/"}); err == nil {
		t.Error("Append() with empty IP should fail")
	}
	if err := store.Append(context.Background(), Record{IP: "10.0.0.1"}); err == nil {
		t.Error("Append() with empty route should fail")
	}
}
