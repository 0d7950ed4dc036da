package astro

import (
	"math"
	"testing"
	"time"
)

func TestPhaseFractionAtReference(t *testing.T) {
	if got := PhaseFraction(referenceNewMoon); got != 0 {
		t.Errorf("PhaseFraction(reference) = %v, want 0", got)
	}
}

func TestPhaseFractionOneLunationLater(t *testing.T) {
	later := referenceNewMoon.Add(time.Duration(synodicDays * 24 * float64(time.Hour)))
	got := PhaseFraction(later)
	if got > 0.001 && got < 0.999 {
		t.Errorf("PhaseFraction(one lunation later) = %v, want ~0", got)
	}
}

func TestPhaseFractionBeforeReference(t *testing.T) {
	got := PhaseFraction(referenceNewMoon.AddDate(-1, 0, 0))
	if got < 0 || got >= 1 {
		t.Errorf("PhaseFraction() = %v, want in [0,1)", got)
	}
}

func TestPhaseName(t *testing.T) {
	tests := []struct {
		frac float64
		want string
	}{
		{0.0, "New Moon"},
		{0.125, "Waxing Crescent"},
		{0.25, "First Quarter"},
		{0.375, "Waxing Gibbous"},
		{0.5, "Full Moon"},
		{0.625, "Waning Gibbous"},
		{0.75, "Last Quarter"},
		{0.875, "Waning Crescent"},
		{0.97, "New Moon"},
	}
	for _, tt := range tests {
		if got := PhaseName(tt.frac); got != tt.want {
			t.Errorf("PhaseName(%v) = %q, want %q", tt.frac, got, tt.want)
		}
	}
}

func TestIllumination(t *testing.T) {
	if got := Illumination(0); got != 0 {
		t.Errorf("Illumination(new moon) = %v, want 0", got)
	}
	if got := Illumination(0.5); math.Abs(got-1) > 1e-9 {
		t.Errorf("Illumination(full moon) = %v, want 1", got)
	}
	if got := Illumination(0.25); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Illumination(first quarter) = %v, want 0.5", got)
	}
}

func TestForCanyonLake(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Summer solstice eve at Canyon Lake, TX.
	day := For(time.Date(2026, 6, 21, 12, 0, 0, 0, loc), 29.8691, -98.1983)

	if day.Sunrise.IsZero() || day.Sunset.IsZero() {
		t.Fatal("sunrise/sunset should be non-zero at this latitude")
	}
	if !day.Sunrise.Before(day.Sunset) {
		t.Errorf("sunrise %v not before sunset %v", day.Sunrise, day.Sunset)
	}
	if day.Sunrise.Location() != loc {
		t.Errorf("sunrise location = %v, want %v", day.Sunrise.Location(), loc)
	}

	// Texas summer days are long: sunrise in the morning, sunset in the
	// evening, local time.
	if h := day.Sunrise.Hour(); h < 5 || h > 8 {
		t.Errorf("sunrise hour = %d, want early morning", h)
	}
	if h := day.Sunset.Hour(); h < 19 || h > 21 {
		t.Errorf("sunset hour = %d, want evening", h)
	}

	if day.MoonPhase == "" {
		t.Error("MoonPhase is empty")
	}
	if day.MoonIllumination < 0 || day.MoonIllumination > 1 {
		t.Errorf("MoonIllumination = %v, want in [0,1]", day.MoonIllumination)
	}
}
