package ph

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/calibration"
)

func newTestProbe(t *testing.T) *Probe {
	t.Helper()
	store := calibration.NewStore(filepath.Join(t.TempDir(), "cal.json"))
	store.Load()
	return NewProbe(store)
}

func TestReadPHDefaults(t *testing.T) {
	p := newTestProbe(t)
	tests := []struct {
		mv   float64
		want float64
	}{
		{1500.0, 7.00},
		{2032.44, 4.00},
		{1515.0, 6.92},
		{1485.0, 7.08},
	}
	for _, tt := range tests {
		got, err := p.ReadPH(tt.mv)
		if err != nil {
			t.Fatalf("ReadPH(%v): %v", tt.mv, err)
		}
		if got != tt.want {
			t.Fatalf("ReadPH(%v) = %v, want %v", tt.mv, got, tt.want)
		}
	}
}

func TestReadPHIsPureLinear(t *testing.T) {
	// The record maps raw millivolts straight through slope/intercept.
	rec := calibration.Record{Slope: 1, Intercept: 0}
	if got := rec.PH(7.0); got != 7.0 {
		t.Fatalf("identity record: PH(7.0) = %v, want 7.0", got)
	}

	p := newTestProbe(t)
	rec = p.Store.Record()
	for _, mv := range []float64{0, 1000, 1500, 1750.5, 2200} {
		got, err := p.ReadPH(mv)
		if err != nil {
			t.Fatalf("ReadPH(%v): %v", mv, err)
		}
		want := math.Round((rec.Slope*mv+rec.Intercept)*100) / 100
		if got != want {
			t.Fatalf("ReadPH(%v) = %v, want slope*mv+intercept = %v", mv, got, want)
		}
	}
}

func TestReadPHRejectsNonNumbers(t *testing.T) {
	p := newTestProbe(t)
	for _, mv := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := p.ReadPH(mv); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ReadPH(%v) err = %v, want ErrInvalidInput", mv, err)
		}
	}
}

func TestReadPHWithTemperature(t *testing.T) {
	p := newTestProbe(t)

	// At the 25C reference, compensation is a no-op.
	got, err := p.ReadPHWithTemperature(1515.0, 25.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 6.92 {
		t.Fatalf("25C reading = %v, want 6.92", got)
	}

	// At 30C the factor is 1.05, so 1575 mV compensates back to 1500 mV.
	got, err = p.ReadPHWithTemperature(1575.0, 30.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 7.00 {
		t.Fatalf("30C reading = %v, want 7.00", got)
	}

	if _, err := p.ReadPHWithTemperature(1500.0, math.NaN()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("NaN temperature err = %v, want ErrInvalidInput", err)
	}
	// -80C drives the compensation factor negative.
	if _, err := p.ReadPHWithTemperature(1500.0, -80.0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("non-positive factor err = %v, want ErrInvalidInput", err)
	}
}

func TestAutoCalibrateNeutral(t *testing.T) {
	p := newTestProbe(t)
	if err := p.AutoCalibrate(1515.0); err != nil {
		t.Fatalf("AutoCalibrate: %v", err)
	}
	got, err := p.ReadPH(1515.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 7.00 {
		t.Fatalf("calibration point not anchored: ReadPH(1515) = %v, want 7.00", got)
	}
}

func TestAutoCalibrateAcid(t *testing.T) {
	p := newTestProbe(t)
	if err := p.AutoCalibrate(2040.0); err != nil {
		t.Fatalf("AutoCalibrate: %v", err)
	}
	got, err := p.ReadPH(2040.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 4.00 {
		t.Fatalf("calibration point not anchored: ReadPH(2040) = %v, want 4.00", got)
	}
	// The neutral point must be untouched.
	if rec := p.Store.Record(); rec.NeutralVoltage != calibration.DefaultNeutralVoltage {
		t.Fatalf("neutral voltage changed: %v", rec.NeutralVoltage)
	}
}

func TestAutoCalibrateRejectsOutOfWindow(t *testing.T) {
	p := newTestProbe(t)
	for _, mv := range []float64{0, 1322, 1700, 1854, 2210, 3000} {
		if err := p.AutoCalibrate(mv); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("AutoCalibrate(%v) err = %v, want ErrOutOfRange", mv, err)
		}
	}
}

func TestCalibrationPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cal.json")
	store := calibration.NewStore(path)
	store.Load()
	p := NewProbe(store)
	if err := p.AutoCalibrate(1520.0); err != nil {
		t.Fatal(err)
	}

	// A fresh store on the same path sees the calibrated record.
	reopened := calibration.NewStore(path)
	reopened.Load()
	p2 := NewProbe(reopened)
	got, err := p2.ReadPH(1520.0)
	if err != nil {
		t.Fatal(err)
	}
	if got != 7.00 {
		t.Fatalf("persisted calibration: ReadPH(1520) = %v, want 7.00", got)
	}
}

func TestDesignatedCalibrationWindows(t *testing.T) {
	p := newTestProbe(t)
	if err := p.CalibrateNeutral(2000.0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("CalibrateNeutral(2000) err = %v, want ErrOutOfRange", err)
	}
	if err := p.CalibrateAcid(1500.0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("CalibrateAcid(1500) err = %v, want ErrOutOfRange", err)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	p := newTestProbe(t)
	if err := p.AutoCalibrate(1600.0); err != nil {
		t.Fatal(err)
	}
	if err := p.Reset(); err != nil {
		t.Fatal(err)
	}
	rec := p.Store.Record()
	if rec.NeutralVoltage != calibration.DefaultNeutralVoltage || rec.AcidVoltage != calibration.DefaultAcidVoltage {
		t.Fatalf("reset record: %+v", rec)
	}
}

func TestSetPoints(t *testing.T) {
	p := newTestProbe(t)
	if err := p.SetPoints(1490.0, 2050.0); err != nil {
		t.Fatal(err)
	}
	rec := p.Store.Record()
	if rec.NeutralVoltage != 1490.0 || rec.AcidVoltage != 2050.0 {
		t.Fatalf("points not set: %+v", rec)
	}
	if err := p.SetPoints(1490.0, 1000.0); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("SetPoints with bad acid err = %v, want ErrOutOfRange", err)
	}
}
