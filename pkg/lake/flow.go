package lake

import (
	"sort"
	"time"

	"github.com/rwhasting/lakewatch/pkg/upstream"
)

// FlowBucket is a calendar-aligned half-day window with the arithmetic
// mean of the flow samples that fall inside it. Windows with no samples
// are omitted from output entirely, never reported as zero.
type FlowBucket struct {
	Date        string    `json:"date"`  // local calendar date, YYYY-MM-DD
	Start       time.Time `json:"start"` // 00:00 or 12:00 local
	MeanCFS     float64   `json:"mean_cfs"`
	SampleCount int       `json:"sample_count"`
}

// AggregateHalfDay partitions samples into fixed 00:00–12:00 and
// 12:00–24:00 windows of the given location and averages each partition.
// Output is chronological.
func AggregateHalfDay(samples []upstream.Sample, loc *time.Location) []FlowBucket {
	if loc == nil {
		loc = time.UTC
	}

	type acc struct {
		sum   float64
		count int
	}
	parts := make(map[time.Time]*acc)

	for _, s := range samples {
		lt := s.Time.In(loc)
		hour := 0
		if lt.Hour() >= 12 {
			hour = 12
		}
		start := time.Date(lt.Year(), lt.Month(), lt.Day(), hour, 0, 0, 0, loc)

		a := parts[start]
		if a == nil {
			a = &acc{}
			parts[start] = a
		}
		a.sum += s.Value
		a.count++
	}

	buckets := make([]FlowBucket, 0, len(parts))
	for start, a := range parts {
		buckets = append(buckets, FlowBucket{
			Date:        start.Format("2006-01-02"),
			Start:       start,
			MeanCFS:     a.sum / float64(a.count),
			SampleCount: a.count,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}
