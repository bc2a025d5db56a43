// Package ph converts millivolt readings from a DFRobot analog pH probe into
// pH values through a persisted two-point calibration.
package ph

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/vlreinier/DFRobot-PH-2024/pkg/calibration"
)

const (
	// DefaultTemperatureCoefficient is the probe drift per degree Celsius
	// away from the 25C reference, applied by ReadPHWithTemperature.
	DefaultTemperatureCoefficient = 0.01

	referenceTemperature = 25.0

	// DefaultRoundTo is the number of decimals a reading is rounded to.
	DefaultRoundTo = 2
)

// Probe converts millivolt readings using the calibration held by its store.
// Conversions only read the record; calibration methods overwrite it
// wholesale and persist it.
type Probe struct {
	Store           *calibration.Store
	RoundTo         int
	TempCoefficient float64
}

func NewProbe(store *calibration.Store) *Probe {
	return &Probe{
		Store:           store,
		RoundTo:         DefaultRoundTo,
		TempCoefficient: DefaultTemperatureCoefficient,
	}
}

// ReadPH converts a millivolt reading to a pH value. The conversion is the
// pure linear mapping pH = slope*mV + intercept of the stored record.
func (p *Probe) ReadPH(mv float64) (float64, error) {
	if err := checkNumber("millivolts", mv); err != nil {
		return 0, err
	}
	return roundTo(p.Store.Record().PH(mv), p.RoundTo), nil
}

// ReadPHWithTemperature compensates the reading for solution temperature
// before converting. The probe voltage scales by 1 + coeff*(tempC-25).
func (p *Probe) ReadPHWithTemperature(mv, tempC float64) (float64, error) {
	if err := checkNumber("millivolts", mv); err != nil {
		return 0, err
	}
	if err := checkNumber("temperature", tempC); err != nil {
		return 0, err
	}
	comp := 1.0 + p.TempCoefficient*(tempC-referenceTemperature)
	if comp <= 0 {
		return 0, fmt.Errorf("%w: temperature %.1fC yields non-positive compensation factor", ErrInvalidInput, tempC)
	}
	return roundTo(p.Store.Record().PH(mv/comp), p.RoundTo), nil
}

// AutoCalibrate classifies mv against the buffer windows and recalibrates the
// matching point. Readings near 1500 mV are a pH 7 buffer, near 2032 mV a
// pH 4 buffer; anything else is rejected.
func (p *Probe) AutoCalibrate(mv float64) error {
	if err := checkNumber("millivolts", mv); err != nil {
		return err
	}
	switch {
	case calibration.ValidNeutralVoltage(mv):
		return p.CalibrateNeutral(mv)
	case calibration.ValidAcidVoltage(mv):
		return p.CalibrateAcid(mv)
	default:
		return fmt.Errorf("%w: %.2f mV matches neither buffer, use a designated calibration method", ErrOutOfRange, mv)
	}
}

// CalibrateNeutral sets the pH 7 buffer voltage and persists the refitted
// record.
func (p *Probe) CalibrateNeutral(mv float64) error {
	if err := checkNumber("millivolts", mv); err != nil {
		return err
	}
	if !calibration.ValidNeutralVoltage(mv) {
		return fmt.Errorf("%w: %.2f mV is not a valid pH 7 buffer voltage", ErrOutOfRange, mv)
	}
	rec := p.Store.Record()
	rec.NeutralVoltage = mv
	if err := p.Store.Save(rec); err != nil {
		return err
	}
	logrus.Infof("calibrated pH 7 voltage to %.2f mV", mv)
	return nil
}

// CalibrateAcid sets the pH 4 buffer voltage and persists the refitted
// record.
func (p *Probe) CalibrateAcid(mv float64) error {
	if err := checkNumber("millivolts", mv); err != nil {
		return err
	}
	if !calibration.ValidAcidVoltage(mv) {
		return fmt.Errorf("%w: %.2f mV is not a valid pH 4 buffer voltage", ErrOutOfRange, mv)
	}
	rec := p.Store.Record()
	rec.AcidVoltage = mv
	if err := p.Store.Save(rec); err != nil {
		return err
	}
	logrus.Infof("calibrated pH 4 voltage to %.2f mV", mv)
	return nil
}

// Reset restores and persists the factory calibration.
func (p *Probe) Reset() error {
	return p.Store.Save(calibration.Default())
}

// SetPoints sets both buffer voltages directly and persists the refitted
// record.
func (p *Probe) SetPoints(neutralMv, acidMv float64) error {
	if err := checkNumber("neutral millivolts", neutralMv); err != nil {
		return err
	}
	if err := checkNumber("acid millivolts", acidMv); err != nil {
		return err
	}
	rec := calibration.Record{NeutralVoltage: neutralMv, AcidVoltage: acidMv}
	if !rec.Valid() {
		return fmt.Errorf("%w: neutral=%.2f acid=%.2f", ErrOutOfRange, neutralMv, acidMv)
	}
	return p.Store.Save(rec)
}

func checkNumber(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is %v", ErrInvalidInput, name, v)
	}
	return nil
}

func roundTo(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
