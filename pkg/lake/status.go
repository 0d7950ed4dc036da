// Package lake derives the dashboard's display values from raw upstream
// samples: percent-full, status categories, half-day flow buckets, and
// the merged daily history.
//
// Everything here is a pure function of its inputs. Nothing is cached
// between requests; the presentation layer re-derives on every call.
package lake

import (
	"math"
	"time"
)

// Status is the reservoir's display category.
type Status string

const (
	StatusFlood     Status = "flood"
	StatusFull      Status = "full"
	StatusExcellent Status = "excellent"
	StatusGood      Status = "good"
	StatusLow       Status = "low"
	StatusCritical  Status = "critical"
)

// Thresholds is the status table for one reservoir: the pool elevations
// that anchor the percent-full interpolation and the ordered percent
// cutoffs for the category labels. Values are configurable; the defaults
// describe Canyon Lake, TX.
type Thresholds struct {
	// EmptyElevation is the elevation treated as 0% full, feet NGVD 1929.
	EmptyElevation float64 `yaml:"empty_elevation"`

	// ConservationElevation is the conservation pool, the 100% reference.
	ConservationElevation float64 `yaml:"conservation_elevation"`

	// FloodElevation is the flood pool.
	FloodElevation float64 `yaml:"flood_elevation"`

	// Percent cutoffs for the sub-full categories, checked in order.
	ExcellentPercent float64 `yaml:"excellent_percent"`
	GoodPercent      float64 `yaml:"good_percent"`
	LowPercent       float64 `yaml:"low_percent"`
}

// DefaultThresholds returns the Canyon Lake table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EmptyElevation:        860.0,
		ConservationElevation: 909.0,
		FloodElevation:        943.0,
		ExcellentPercent:      90,
		GoodPercent:           75,
		LowPercent:            40,
	}
}

// PercentFull linearly interpolates the elevation between the empty and
// conservation pool elevations, clamped to [0,100] and rounded to one
// decimal place.
func (t Thresholds) PercentFull(elevation float64) float64 {
	span := t.ConservationElevation - t.EmptyElevation
	if span <= 0 {
		return 0
	}
	pct := (elevation - t.EmptyElevation) / span * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*10) / 10
}

// Classify selects the status category for an elevation. Matching is
// ordered, first match wins: the elevation thresholds (flood, full) are
// checked before the percent thresholds, so an elevation exactly at the
// conservation pool reads "full", not "excellent".
func (t Thresholds) Classify(elevation float64) Status {
	switch {
	case elevation >= t.FloodElevation:
		return StatusFlood
	case elevation >= t.ConservationElevation:
		return StatusFull
	}

	pct := t.PercentFull(elevation)
	switch {
	case pct >= t.ExcellentPercent:
		return StatusExcellent
	case pct >= t.GoodPercent:
		return StatusGood
	case pct >= t.LowPercent:
		return StatusLow
	default:
		return StatusCritical
	}
}

// StatusSnapshot is the derived view of the latest lake reading, shaped
// for the /api/status response.
type StatusSnapshot struct {
	Status                string    `json:"status"`
	Timestamp             time.Time `json:"timestamp"`
	Elevation             float64   `json:"elevation"`
	PercentageFull        float64   `json:"percentage_full"`
	StatusCategory        Status    `json:"status_category"`
	ConservationPool      float64   `json:"conservation_pool"`
	FloodPool             float64   `json:"flood_pool"`
	FeetBelowConservation float64   `json:"feet_below_conservation"`
}

// Snapshot builds a StatusSnapshot for the given elevation at now.
func (t Thresholds) Snapshot(elevation float64, now time.Time) StatusSnapshot {
	return StatusSnapshot{
		Status:                "success",
		Timestamp:             now,
		Elevation:             elevation,
		PercentageFull:        t.PercentFull(elevation),
		StatusCategory:        t.Classify(elevation),
		ConservationPool:      t.ConservationElevation,
		FloodPool:             t.FloodElevation,
		FeetBelowConservation: math.Round((t.ConservationElevation-elevation)*100) / 100,
	}
}
