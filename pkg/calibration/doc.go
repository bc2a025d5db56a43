// Package calibration holds the persisted two-point calibration of a DFRobot
// analog pH probe. It contains:
//
//   - Record: the slope/intercept pair plus the two buffer voltages it was
//     fitted from (neutral buffer at pH 7, acid buffer at pH 4)
//   - Store: JSON file persistence with atomic replace and default fallback
//
// The converter in pkg/ph reads the Record on every conversion and overwrites
// it through the Store on every calibration event.
package calibration
