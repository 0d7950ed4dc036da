package lake

import (
	"testing"
	"time"

	"github.com/rwhasting/lakewatch/pkg/upstream"
)

func sampleAt(t *testing.T, value float64, ts string, loc *time.Location) upstream.Sample {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04", ts, loc)
	if err != nil {
		t.Fatalf("parse %q: %v", ts, err)
	}
	return upstream.Sample{Time: parsed, Value: value}
}

func TestAggregateHalfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	samples := []upstream.Sample{
		sampleAt(t, 100, "2026-06-01 06:00", loc),
		sampleAt(t, 200, "2026-06-01 11:45", loc),
		sampleAt(t, 300, "2026-06-01 12:00", loc),
		sampleAt(t, 50, "2026-06-02 23:59", loc),
	}

	buckets := AggregateHalfDay(samples, loc)

	if len(buckets) != 3 {
		t.Fatalf("len(buckets) = %d, want 3", len(buckets))
	}

	am := buckets[0]
	if am.Date != "2026-06-01" || am.Start.Hour() != 0 {
		t.Errorf("bucket 0 = %s %v, want 2026-06-01 morning", am.Date, am.Start)
	}
	if am.MeanCFS != 150 {
		t.Errorf("morning mean = %v, want 150", am.MeanCFS)
	}
	if am.SampleCount != 2 {
		t.Errorf("morning sample count = %d, want 2", am.SampleCount)
	}

	pm := buckets[1]
	if pm.Start.Hour() != 12 || pm.MeanCFS != 300 || pm.SampleCount != 1 {
		t.Errorf("bucket 1 = %+v, want 12:00 start, mean 300, count 1", pm)
	}

	// June 2 has no morning samples; only the evening bucket appears.
	last := buckets[2]
	if last.Date != "2026-06-02" || last.Start.Hour() != 12 {
		t.Errorf("bucket 2 = %s %v, want 2026-06-02 evening", last.Date, last.Start)
	}
	if last.MeanCFS != 50 {
		t.Errorf("evening mean = %v, want 50", last.MeanCFS)
	}
}

func TestAggregateHalfDayEmpty(t *testing.T) {
	buckets := AggregateHalfDay(nil, time.UTC)
	if len(buckets) != 0 {
		t.Errorf("len(buckets) = %d, want 0", len(buckets))
	}
}

func TestAggregateHalfDayUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 16:00 UTC on June 1 is 11:00 in Chicago, still the morning bucket.
	samples := []upstream.Sample{
		{Time: time.Date(2026, 6, 1, 16, 0, 0, 0, time.UTC), Value: 75},
	}

	buckets := AggregateHalfDay(samples, loc)
	if len(buckets) != 1 {
		t.Fatalf("len(buckets) = %d, want 1", len(buckets))
	}
	if buckets[0].Start.Hour() != 0 {
		t.Errorf("bucket start hour = %d, want 0 (local morning)", buckets[0].Start.Hour())
	}
}

func TestMergeDaily(t *testing.T) {
	th := DefaultThresholds()
	day := func(d string) time.Time {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			t.Fatalf("parse %q: %v", d, err)
		}
		return parsed
	}

	lakeDays := []upstream.Sample{
		{Time: day("2026-06-01"), Value: 909.0},
		{Time: day("2026-06-02"), Value: 884.5},
	}
	flowDays := []upstream.Sample{
		{Time: day("2026-06-02"), Value: 120.0},
		{Time: day("2026-06-03"), Value: 95.0},
	}

	records := MergeDaily(lakeDays, flowDays, th)

	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	first := records[0]
	if first.Date != "2026-06-01" {
		t.Errorf("records[0].Date = %q, want 2026-06-01", first.Date)
	}
	if first.Elevation == nil || *first.Elevation != 909.0 {
		t.Errorf("records[0].Elevation = %v, want 909.0", first.Elevation)
	}
	if first.PercentageFull == nil || *first.PercentageFull != 100.0 {
		t.Errorf("records[0].PercentageFull = %v, want 100.0", first.PercentageFull)
	}
	if first.FlowCFS != nil {
		t.Errorf("records[0].FlowCFS = %v, want nil", *first.FlowCFS)
	}

	second := records[1]
	if second.Elevation == nil || *second.Elevation != 884.5 {
		t.Errorf("records[1].Elevation = %v, want 884.5", second.Elevation)
	}
	if second.FlowCFS == nil || *second.FlowCFS != 120.0 {
		t.Errorf("records[1].FlowCFS = %v, want 120.0", second.FlowCFS)
	}

	third := records[2]
	if third.Date != "2026-06-03" {
		t.Errorf("records[2].Date = %q, want 2026-06-03", third.Date)
	}
	if third.Elevation != nil || third.PercentageFull != nil {
		t.Errorf("records[2] elevation columns should be nil, got %+v", third)
	}
	if third.FlowCFS == nil || *third.FlowCFS != 95.0 {
		t.Errorf("records[2].FlowCFS = %v, want 95.0", third.FlowCFS)
	}
}

func TestMergeDailyEmpty(t *testing.T) {
	records := MergeDaily(nil, nil, DefaultThresholds())
	if len(records) != 0 {
		t.Errorf("len(records) = %d, want 0", len(records))
	}
}
