package sensor

import (
	"math"
	"testing"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/config"
)

func TestConfigForChannelBytes(t *testing.T) {
	// channel 0, sample rate 128 -> expect msb 0xC3 lsb 0x83 (see implementation)
	msb, lsb, err := configForChannel(0, 128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msb != 0xC3 || lsb != 0x83 {
		t.Fatalf("channel0@128 => got %02X %02X; want C3 83", msb, lsb)
	}

	// channel 1, sample rate 128 -> D3 83
	msb, lsb, err = configForChannel(1, 128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msb != 0xD3 || lsb != 0x83 {
		t.Fatalf("channel1@128 => got %02X %02X; want D3 83", msb, lsb)
	}

	// sample rate 8 for channel 0 -> msb C3 lsb 03 (dr=0)
	msb, lsb, err = configForChannel(0, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msb != 0xC3 || lsb != 0x03 {
		t.Fatalf("channel0@8 => got %02X %02X; want C3 03", msb, lsb)
	}

	// invalid channel
	_, _, err = configForChannel(9, 128)
	if err == nil {
		t.Fatalf("expected error for invalid channel")
	}
}

func TestCountsToMillivolts(t *testing.T) {
	tests := []struct {
		raw  int16
		want float64
	}{
		{0, 0},
		{32767, 4095.875},
		{-32768, -4096},
		{16384, 2048},
	}
	for _, tt := range tests {
		if got := countsToMillivolts(tt.raw, 4.096); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("countsToMillivolts(%d) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFakeSensorStaysInBand(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SensorType = "simulation"
	cfg.SimulationMv = 1500.0
	cfg.Channel = 2
	f, err := NewFakeSensor(cfg)
	if err != nil {
		t.Fatalf("NewFakeSensor: %v", err)
	}
	defer f.Close()
	for i := 0; i < 100; i++ {
		r, err := f.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if r.Channel != 2 {
			t.Fatalf("channel = %d; want 2", r.Channel)
		}
		if r.Millivolts < 1500.0-fakeJitterMv || r.Millivolts > 1500.0+fakeJitterMv {
			t.Fatalf("reading %v outside jitter band", r.Millivolts)
		}
	}
}
