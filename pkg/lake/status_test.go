package lake

import (
	"testing"
	"time"
)

func TestPercentFull(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name      string
		elevation float64
		want      float64
	}{
		{"at conservation pool", 909.0, 100.0},
		{"at empty elevation", 860.0, 0.0},
		{"halfway", 884.5, 50.0},
		{"above conservation clamps", 920.0, 100.0},
		{"below empty clamps", 850.0, 0.0},
		{"rounds to one decimal", 884.53, 50.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.PercentFull(tt.elevation)
			if got != tt.want {
				t.Errorf("PercentFull(%v) = %v, want %v", tt.elevation, got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name      string
		elevation float64
		want      Status
	}{
		{"above flood pool", 944.0, StatusFlood},
		{"exactly flood pool", 943.0, StatusFlood},
		{"at conservation pool", 909.0, StatusFull},
		{"just above conservation", 910.0, StatusFull},
		{"excellent at 90 percent", 904.1, StatusExcellent},
		{"good at 75 percent", 896.75, StatusGood},
		{"low at 40 percent", 879.6, StatusLow},
		{"critical below 40 percent", 870.0, StatusCritical},
		{"empty lake is critical", 860.0, StatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Classify(tt.elevation)
			if got != tt.want {
				t.Errorf("Classify(%v) = %q, want %q", tt.elevation, got, tt.want)
			}
		})
	}
}

func TestClassifyElevationBeatsPercent(t *testing.T) {
	// Percent is clamped at 100 above conservation, so only the
	// elevation checks can distinguish flood from full.
	th := DefaultThresholds()

	if got := th.Classify(950.0); got != StatusFlood {
		t.Errorf("Classify(950) = %q, want %q", got, StatusFlood)
	}
	if got := th.Classify(925.0); got != StatusFull {
		t.Errorf("Classify(925) = %q, want %q", got, StatusFull)
	}
}

func TestSnapshot(t *testing.T) {
	th := DefaultThresholds()
	now := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)

	snap := th.Snapshot(884.5, now)

	if snap.Status != "success" {
		t.Errorf("Status = %q, want %q", snap.Status, "success")
	}
	if snap.Elevation != 884.5 {
		t.Errorf("Elevation = %v, want 884.5", snap.Elevation)
	}
	if snap.PercentageFull != 50.0 {
		t.Errorf("PercentageFull = %v, want 50.0", snap.PercentageFull)
	}
	if snap.StatusCategory != StatusLow {
		t.Errorf("StatusCategory = %q, want %q", snap.StatusCategory, StatusLow)
	}
	if snap.ConservationPool != 909.0 {
		t.Errorf("ConservationPool = %v, want 909.0", snap.ConservationPool)
	}
	if snap.FloodPool != 943.0 {
		t.Errorf("FloodPool = %v, want 943.0", snap.FloodPool)
	}
	if snap.FeetBelowConservation != 24.5 {
		t.Errorf("FeetBelowConservation = %v, want 24.5", snap.FeetBelowConservation)
	}
	if !snap.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", snap.Timestamp, now)
	}
}

func TestSnapshotAboveConservation(t *testing.T) {
	th := DefaultThresholds()
	snap := th.Snapshot(911.25, time.Now())

	if snap.FeetBelowConservation != -2.25 {
		t.Errorf("FeetBelowConservation = %v, want -2.25", snap.FeetBelowConservation)
	}
	if snap.StatusCategory != StatusFull {
		t.Errorf("StatusCategory = %q, want %q", snap.StatusCategory, StatusFull)
	}
}
