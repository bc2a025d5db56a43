package output

import "time"

// Measurement is a converted probe reading ready for publishing.
type Measurement struct {
	PH         float64   `json:"ph"`
	Millivolts float64   `json:"millivolts"`
	Raw        int16     `json:"raw"`
	// TemperatureC is set when the reading was temperature compensated.
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type Output interface {
	Publish(Measurement) error
	Close() error
}

// constructors live in the subpackages
