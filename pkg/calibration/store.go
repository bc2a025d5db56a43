package calibration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultPath is where the record lives when no path is configured. It
// matches the file the original DFRobot helper wrote, so existing
// calibrations carry over.
const DefaultPath = "ph_calibration_data.json"

// Store persists a Record as a small JSON file. A missing or corrupt file is
// never fatal: Load falls back to the uncalibrated defaults. One Store may be
// shared by the monitor loop and a calibrate command in the same process, so
// record access is mutex guarded.
type Store struct {
	path string

	mu  sync.Mutex
	rec Record
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path, rec: Default()}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Record returns a copy of the current in-memory record.
func (s *Store) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Load reads the record from disk. Any failure (absent, unreadable,
// unparsable, or out-of-window values) resets to defaults with a warning.
// Slope and intercept are always refitted from the loaded buffer voltages,
// which also upgrades legacy files that only stored the two voltages.
func (s *Store) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = Default()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logrus.Warnf("calibration file %s does not exist, using defaults", s.path)
		} else {
			logrus.Warnf("calibration file %s unreadable (%v), using defaults", s.path, err)
		}
		return s.rec
	}

	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		logrus.Warnf("calibration file %s malformed (%v), using defaults", s.path, err)
		return s.rec
	}
	if !rec.Valid() {
		logrus.Warnf("calibration file %s holds out-of-range voltages (neutral=%.2f acid=%.2f), using defaults",
			s.path, rec.NeutralVoltage, rec.AcidVoltage)
		return s.rec
	}

	rec.Refit()
	s.rec = rec
	return s.rec
}

// Save refits and persists rec, overwriting the previous record wholesale.
// The write goes to a temp file in the target directory followed by a rename,
// so a crashed save never leaves a truncated record behind.
func (s *Store) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !rec.Valid() {
		return pkgerrors.Errorf("refusing to save out-of-range calibration (neutral=%.2f acid=%.2f)",
			rec.NeutralVoltage, rec.AcidVoltage)
	}
	rec.Refit()

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "marshal calibration")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrapf(err, "create calibration dir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".ph-calibration-*")
	if err != nil {
		return pkgerrors.Wrap(err, "create temp calibration file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return pkgerrors.Wrap(err, "write calibration")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrap(err, "close calibration file")
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return pkgerrors.Wrapf(err, "replace %s", s.path)
	}

	s.rec = rec
	return nil
}
