// Package axis infers an x-axis for plugin-returned data series.
//
// Resolution is a pure function: identical inputs always produce identical
// axis values, and it never fails. Priority order:
//
//  1. An explicit x supplied with the series is used verbatim.
//  2. A declared axis label, when the series length matches the reading's
//     pixel count, is pattern-matched case-insensitively:
//     wavelength|nm -> wavelength axis, wavenumber|cm|shift -> wavenumber
//     axis, pixel|px -> pixel-index axis. First match wins.
//  3. No label but a length match uses whichever axis unit the host
//     currently has selected for display.
//  4. Anything else gets an integral index sequence (0, 1, 2...).
package axis

import "regexp"

// Unit identifies one of the display axis units a host can select.
type Unit string

const (
	UnitPixel      Unit = "px"
	UnitWavelength Unit = "nm"
	UnitWavenumber Unit = "cm"
)

// ParseUnit maps a config string to a Unit, defaulting to pixels.
func ParseUnit(s string) Unit {
	switch s {
	case string(UnitWavelength), "wavelength":
		return UnitWavelength
	case string(UnitWavenumber), "wavenumber":
		return UnitWavenumber
	default:
		return UnitPixel
	}
}

var (
	wavelengthPattern = regexp.MustCompile(`(?i)wavelength|nm`)
	wavenumberPattern = regexp.MustCompile(`(?i)wavenumber|cm|shift`)
	pixelPattern      = regexp.MustCompile(`(?i)pixel|px`)
)

// Axes carries the calibrated axes of the originating reading. PixelCount
// is the length of the reading's pixel axis; Wavelengths or Wavenumbers may
// be nil when the calibration does not provide them.
type Axes struct {
	PixelCount  int
	Wavelengths []float64
	Wavenumbers []float64
}

// Resolve returns the x-axis for a returned series. explicitX is the axis
// supplied with the series, if any; label is the plugin's declared axis
// label; length is the series length; selected is the host's current
// display unit. The result always has exactly length elements.
func Resolve(explicitX []float64, label string, length int, ax Axes, selected Unit) []float64 {
	if len(explicitX) > 0 {
		return explicitX
	}

	if length == ax.PixelCount {
		if label != "" {
			if u, ok := matchLabel(label); ok {
				return axisForUnit(u, ax, length)
			}
			// Label declared but unrecognized: fall through to the
			// index sequence rather than guessing a unit.
		} else {
			return axisForUnit(selected, ax, length)
		}
	}

	return indexAxis(length)
}

// matchLabel applies the label patterns in priority order.
func matchLabel(label string) (Unit, bool) {
	switch {
	case wavelengthPattern.MatchString(label):
		return UnitWavelength, true
	case wavenumberPattern.MatchString(label):
		return UnitWavenumber, true
	case pixelPattern.MatchString(label):
		return UnitPixel, true
	}
	return "", false
}

// axisForUnit returns the calibrated axis for a unit, falling back to the
// index sequence when the calibration is missing or the wrong length.
// The fallback keeps Resolve total.
func axisForUnit(u Unit, ax Axes, length int) []float64 {
	var vals []float64
	switch u {
	case UnitWavelength:
		vals = ax.Wavelengths
	case UnitWavenumber:
		vals = ax.Wavenumbers
	}
	if u == UnitPixel || len(vals) != length {
		return indexAxis(length)
	}
	return vals
}

func indexAxis(length int) []float64 {
	if length < 0 {
		length = 0
	}
	out := make([]float64, length)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}
