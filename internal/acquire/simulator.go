// Package acquire produces readings for the pipeline. The only source in
// tree is a simulator that synthesizes Raman-like spectra; a hardware
// driver would satisfy the same Source interface.
package acquire

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/reading"
)

// Source yields one reading per acquisition tick.
type Source interface {
	Device() device.Info
	Axes() axis.Axes
	Next() *reading.Snapshot
}

type peak struct {
	center float64 // pixel position
	width  float64
	height float64
}

// Simulator synthesizes spectra: a few Gaussian peaks on a sloping
// baseline with per-frame noise and slow drift.
type Simulator struct {
	info        device.Info
	wavelengths []float64
	wavenumbers []float64
	peaks       []peak

	mu    sync.Mutex
	rng   *rand.Rand
	frame int
}

// NewSimulator creates a simulated spectrometer. Seed fixes the noise
// sequence; pass 0 for a time-derived seed.
func NewSimulator(pixels int, excitationNM float64, seed int64) *Simulator {
	if pixels <= 0 {
		pixels = 1024
	}
	if excitationNM <= 0 {
		excitationNM = 785
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	// Linear wavelength calibration spanning ~160 nm above the laser line.
	wavelengths := make([]float64, pixels)
	wavenumbers := make([]float64, pixels)
	for i := range wavelengths {
		wl := excitationNM + 5 + 160*float64(i)/float64(pixels)
		wavelengths[i] = wl
		wavenumbers[i] = 1e7/excitationNM - 1e7/wl
	}

	peaks := []peak{
		{center: float64(pixels) * 0.18, width: 6, height: 2400},
		{center: float64(pixels) * 0.41, width: 10, height: 1500},
		{center: float64(pixels) * 0.63, width: 4, height: 3100},
		{center: float64(pixels) * 0.85, width: 14, height: 900},
	}

	return &Simulator{
		info: device.Info{
			SerialNumber:  "SIM-0001",
			Model:         "SiG-785-SIM",
			PixelCount:    pixels,
			ExcitationNM:  excitationNM,
			IntegrationMS: 100,
			DetectorGain:  1.1,
			LaserEnabled:  true,
		},
		wavelengths: wavelengths,
		wavenumbers: wavenumbers,
		peaks:       peaks,
		rng:         rng,
	}
}

func (s *Simulator) Device() device.Info { return s.info }

func (s *Simulator) Axes() axis.Axes {
	return axis.Axes{
		PixelCount:  s.info.PixelCount,
		Wavelengths: s.wavelengths,
		Wavenumbers: s.wavenumbers,
	}
}

// Next synthesizes one frame. Successive frames drift slowly so plugins
// watching for change have something to react to.
func (s *Simulator) Next() *reading.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame++

	n := s.info.PixelCount
	drift := 1 + 0.05*math.Sin(float64(s.frame)/40)

	dark := make([]float64, n)
	raw := make([]float64, n)
	processed := make([]float64, n)
	for i := 0; i < n; i++ {
		baseline := 800 + 0.2*float64(i)
		signal := 0.0
		for _, p := range s.peaks {
			d := (float64(i) - p.center) / p.width
			signal += p.height * drift * math.Exp(-0.5*d*d)
		}
		noise := s.rng.NormFloat64() * 12

		dark[i] = baseline + s.rng.NormFloat64()*4
		raw[i] = baseline + signal + noise
		processed[i] = raw[i] - dark[i]
	}

	return &reading.Snapshot{
		Processed:   processed,
		Raw:         raw,
		Dark:        dark,
		Wavelengths: s.wavelengths,
		Wavenumbers: s.wavenumbers,
		AcquiredAt:  time.Now().UTC(),
	}
}
