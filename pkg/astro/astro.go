// Package astro computes the astronomical display values for the
// environment panel: sunrise and sunset for a fixed coordinate pair, and
// the current moon phase.
//
// Solar events are delegated to go-sunrise; the moon phase is derived
// from the age of the lunation relative to a reference new moon. This is
// display-grade accuracy (within a few hours), which is all a dashboard
// needs.
package astro

import (
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// synodicDays is the mean length of a lunation.
const synodicDays = 29.530588853

// referenceNewMoon is a well-known new moon epoch (2000-01-06 18:14 UTC).
var referenceNewMoon = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

// Day holds the astronomical values for one date at one location.
type Day struct {
	Sunrise          time.Time
	Sunset           time.Time
	MoonPhase        string
	MoonIllumination float64 // fraction lit, 0..1
}

// For computes the astronomical values for the given instant and
// coordinates. Sunrise and sunset are returned in t's location.
func For(t time.Time, latitude, longitude float64) Day {
	rise, set := sunrise.SunriseSunset(latitude, longitude, t.Year(), t.Month(), t.Day())

	frac := PhaseFraction(t)
	return Day{
		Sunrise:          rise.In(t.Location()),
		Sunset:           set.In(t.Location()),
		MoonPhase:        PhaseName(frac),
		MoonIllumination: Illumination(frac),
	}
}

// PhaseFraction returns the position within the lunation at time t,
// in [0,1): 0 is new moon, 0.5 is full moon.
func PhaseFraction(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24
	frac := math.Mod(days/synodicDays, 1)
	if frac < 0 {
		frac++
	}
	return frac
}

// Illumination returns the lit fraction of the lunar disc for a phase
// fraction.
func Illumination(frac float64) float64 {
	return (1 - math.Cos(2*math.Pi*frac)) / 2
}

// PhaseName maps a phase fraction to one of the eight common phase names.
func PhaseName(frac float64) string {
	switch {
	case frac < 0.0625:
		return "New Moon"
	case frac < 0.1875:
		return "Waxing Crescent"
	case frac < 0.3125:
		return "First Quarter"
	case frac < 0.4375:
		return "Waxing Gibbous"
	case frac < 0.5625:
		return "Full Moon"
	case frac < 0.6875:
		return "Waning Gibbous"
	case frac < 0.8125:
		return "Last Quarter"
	case frac < 0.9375:
		return "Waning Crescent"
	default:
		return "New Moon"
	}
}
