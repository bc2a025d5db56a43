package ph

import "errors"

var (
	// ErrInvalidInput marks a millivolt or temperature value that is not a
	// usable number (NaN, infinity).
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutOfRange marks a calibration voltage outside both buffer windows.
	ErrOutOfRange = errors.New("millivolt value outside calibration windows")
)
