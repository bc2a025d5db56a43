package sensor

import "time"

// Reading is a single conversion of the probe channel.
type Reading struct {
	Channel    int       `json:"channel"`
	Raw        int16     `json:"raw"`
	Millivolts float64   `json:"millivolts"`
	Timestamp  time.Time `json:"timestamp"`
}

type Sensor interface {
	Read() (Reading, error)
	Close() error
}
