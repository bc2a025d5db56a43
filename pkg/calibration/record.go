package calibration

const (
	// Factory buffer voltages of an uncalibrated DFRobot pH board.
	DefaultNeutralVoltage = 1500.0  // mV at pH 7.0
	DefaultAcidVoltage    = 2032.44 // mV at pH 4.0

	neutralPH = 7.0

	// Classification windows from the DFRobot calibration procedure. A
	// reading inside the neutral window is a pH 7 buffer, inside the acid
	// window a pH 4 buffer. The windows are disjoint, so a fitted slope is
	// never zero.
	neutralWindowLow  = 1322.0
	neutralWindowHigh = 1678.0
	acidWindowLow     = 1854.0
	acidWindowHigh    = 2210.0
)

// Record is the persisted calibration state. Slope and Intercept are defined
// over raw millivolts (the probe's mV/3 gain is folded in when fitting), so
// pH = Slope*mV + Intercept holds directly.
type Record struct {
	Slope          float64 `json:"slope"`
	Intercept      float64 `json:"intercept"`
	NeutralVoltage float64 `json:"neutral_voltage"`
	AcidVoltage    float64 `json:"acid_voltage"`
}

// Default returns the uncalibrated record with slope/intercept fitted from
// the factory buffer voltages.
func Default() Record {
	r := Record{NeutralVoltage: DefaultNeutralVoltage, AcidVoltage: DefaultAcidVoltage}
	r.Refit()
	return r
}

// Refit recomputes Slope and Intercept from the two buffer voltages. The
// probe outputs (mV-1500)/3 pH units per buffer step, which collapses to
// slope = 3/(neutral-acid) over raw millivolts.
func (r *Record) Refit() {
	r.Slope = 3.0 / (r.NeutralVoltage - r.AcidVoltage)
	r.Intercept = neutralPH - r.Slope*r.NeutralVoltage
}

// PH converts a millivolt reading using the stored linear mapping.
func (r Record) PH(mv float64) float64 {
	return r.Slope*mv + r.Intercept
}

// Valid reports whether both buffer voltages sit inside their windows.
func (r Record) Valid() bool {
	return ValidNeutralVoltage(r.NeutralVoltage) && ValidAcidVoltage(r.AcidVoltage)
}

// ValidNeutralVoltage reports whether mv is a plausible pH 7 buffer reading.
func ValidNeutralVoltage(mv float64) bool {
	return mv > neutralWindowLow && mv < neutralWindowHigh
}

// ValidAcidVoltage reports whether mv is a plausible pH 4 buffer reading.
func ValidAcidVoltage(mv float64) bool {
	return mv > acidWindowLow && mv < acidWindowHigh
}
