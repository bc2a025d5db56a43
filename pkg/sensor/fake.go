package sensor

import (
	"math/rand"
	"sync"
	"time"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/config"
)

// fakeJitterMv is the half-width of the band the fake sensor wanders in.
const fakeJitterMv = 20.0

// FakeSensor produces jittered readings around a configured center voltage,
// for bench-free runs and tests.
type FakeSensor struct {
	channel  int
	centerMv float64
	pgaFS    float64
	mu       sync.Mutex
}

func NewFakeSensor(cfg config.Config) (Sensor, error) {
	return &FakeSensor{channel: cfg.Channel, centerMv: cfg.SimulationMv, pgaFS: 4.096}, nil
}

func (f *FakeSensor) Read() (Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mv := f.centerMv + (rand.Float64()*2-1)*fakeJitterMv
	raw := int16(mv / 1000.0 * 32768.0 / f.pgaFS)
	return Reading{
		Channel:    f.channel,
		Raw:        raw,
		Millivolts: mv,
		Timestamp:  time.Now(),
	}, nil
}

func (f *FakeSensor) Close() error { return nil }
