package reading

import (
	"time"

	"github.com/mohae/deepcopy"
)

// Snapshot is a read-only view of one acquired reading as handed to plugins.
// Hosts populate it once on the acquisition context; after that it must be
// treated as immutable. Plugins never receive the host's copy directly --
// the adapter hands each plugin its own deep copy (see Copy).
type Snapshot struct {
	// Processed is the fully corrected spectrum (dark/reference applied).
	Processed []float64
	// Raw is the uncorrected detector readout.
	Raw []float64
	// Dark and Reference are the recorded correction spectra, when present.
	Dark      []float64
	Reference []float64

	// Wavelengths and Wavenumbers are the calibrated x-axes for this
	// detector. Wavenumbers is nil when no excitation wavelength is set.
	Wavelengths []float64
	Wavenumbers []float64

	// Cropped reports whether a horizontal ROI has been applied, in which
	// case PixelCount is smaller than the physical detector width.
	Cropped bool

	AcquiredAt time.Time
}

// PixelCount returns the number of datapoints in the processed spectrum.
func (s *Snapshot) PixelCount() int {
	if s == nil {
		return 0
	}
	return len(s.Processed)
}

// PixelAxis returns the integral pixel-index axis (0, 1, 2...).
func (s *Snapshot) PixelAxis() []float64 {
	n := s.PixelCount()
	axis := make([]float64, n)
	for i := range axis {
		axis[i] = float64(i)
	}
	return axis
}

// Copy returns a deep copy of the snapshot. The underlying arrays are
// duplicated so a plugin mutating its copy cannot corrupt the live reading.
func (s *Snapshot) Copy() *Snapshot {
	if s == nil {
		return nil
	}
	return deepcopy.Copy(s).(*Snapshot)
}
