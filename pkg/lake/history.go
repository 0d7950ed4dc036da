package lake

import (
	"sort"

	"github.com/rwhasting/lakewatch/pkg/upstream"
)

// DayRecord is one row of the merged daily history. A side with no
// reading for the date is nil, which serializes as an explicit JSON
// null — absence is never conflated with zero.
type DayRecord struct {
	Date           string   `json:"date"` // YYYY-MM-DD
	Elevation      *float64 `json:"elevation"`
	PercentageFull *float64 `json:"percentage_full"`
	FlowCFS        *float64 `json:"flow_cfs"`
}

// MergeDaily outer-joins the daily lake elevation series and the daily
// flow series by calendar date. Dates present on only one side still
// appear, with the other side's fields left nil. When a side carries
// several samples for one date, the last one wins.
func MergeDaily(lakeDays, flowDays []upstream.Sample, th Thresholds) []DayRecord {
	rows := make(map[string]*DayRecord)

	row := func(date string) *DayRecord {
		r := rows[date]
		if r == nil {
			r = &DayRecord{Date: date}
			rows[date] = r
		}
		return r
	}

	for _, s := range lakeDays {
		date := s.Time.Format("2006-01-02")
		elev := s.Value
		pct := th.PercentFull(elev)
		r := row(date)
		r.Elevation = &elev
		r.PercentageFull = &pct
	}

	for _, s := range flowDays {
		date := s.Time.Format("2006-01-02")
		flow := s.Value
		row(date).FlowCFS = &flow
	}

	merged := make([]DayRecord, 0, len(rows))
	for _, r := range rows {
		merged = append(merged, *r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date < merged[j].Date
	})
	return merged
}
