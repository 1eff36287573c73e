package axis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func testAxes(n int) Axes {
	wl := make([]float64, n)
	wn := make([]float64, n)
	for i := 0; i < n; i++ {
		wl[i] = 400.0 + float64(i)*0.5
		wn[i] = 200.0 + float64(i)*2.0
	}
	return Axes{PixelCount: n, Wavelengths: wl, Wavenumbers: wn}
}

func TestResolve_ExplicitXWins(t *testing.T) {
	ax := testAxes(8)
	x := []float64{9, 8, 7}
	got := Resolve(x, "Wavelength (nm)", 3, ax, UnitWavelength)
	assert.Equal(t, x, got, "explicit x must be used verbatim, no inference")
}

func TestResolve_LabelPatterns(t *testing.T) {
	ax := testAxes(16)

	tests := []struct {
		name  string
		label string
		want  []float64
	}{
		{"wavelength word", "Wavelength", ax.Wavelengths},
		{"nm unit", "axis (nm)", ax.Wavelengths},
		{"wavenumber shift", "wavenumber shift", ax.Wavenumbers},
		{"raman shift cm-1", "Raman Shift (cm-1)", ax.Wavenumbers},
		{"pixel", "Pixel", indexAxis(16)},
		{"px unit", "detector px", indexAxis(16)},
		{"unrecognized label", "bananas", indexAxis(16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(nil, tt.label, 16, ax, UnitWavelength)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NoLabelUsesSelectedUnit(t *testing.T) {
	ax := testAxes(1024)

	got := Resolve(nil, "", 1024, ax, UnitWavelength)
	assert.Equal(t, ax.Wavelengths, got, "length-matched series with no label follows the selected display axis")

	got = Resolve(nil, "", 1024, ax, UnitWavenumber)
	assert.Equal(t, ax.Wavenumbers, got)

	got = Resolve(nil, "", 1024, ax, UnitPixel)
	assert.Equal(t, indexAxis(1024), got)
}

func TestResolve_LengthMismatchFallsToIndex(t *testing.T) {
	ax := testAxes(1024)

	got := Resolve(nil, "Wavelength (nm)", 10, ax, UnitWavelength)
	assert.Equal(t, indexAxis(10), got, "label match requires a pixel-count length match")

	got = Resolve(nil, "", 10, ax, UnitWavelength)
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestResolve_MissingCalibrationStaysTotal(t *testing.T) {
	// No wavenumber axis (no excitation set): resolution must not fail.
	ax := Axes{PixelCount: 4, Wavelengths: []float64{1, 2, 3, 4}}
	got := Resolve(nil, "wavenumber shift", 4, ax, UnitPixel)
	assert.Equal(t, indexAxis(4), got)
}

func TestParseUnit(t *testing.T) {
	assert.Equal(t, UnitWavelength, ParseUnit("nm"))
	assert.Equal(t, UnitWavelength, ParseUnit("wavelength"))
	assert.Equal(t, UnitWavenumber, ParseUnit("cm"))
	assert.Equal(t, UnitPixel, ParseUnit("px"))
	assert.Equal(t, UnitPixel, ParseUnit(""))
	assert.Equal(t, UnitPixel, ParseUnit("garbage"))
}

// Resolve must be referentially transparent and total: same inputs, same
// output, always exactly `length` values.
func TestResolve_PureAndTotal(t *testing.T) {
	units := []Unit{UnitPixel, UnitWavelength, UnitWavenumber}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 64).Draw(t, "pixels")
		length := rapid.IntRange(0, 64).Draw(t, "length")
		label := rapid.SampledFrom([]string{
			"", "Wavelength", "nm", "wavenumber shift", "cm-1", "pixel", "px", "other",
		}).Draw(t, "label")
		selected := rapid.SampledFrom(units).Draw(t, "unit")

		ax := testAxes(n)

		first := Resolve(nil, label, length, ax, selected)
		second := Resolve(nil, label, length, ax, selected)

		if len(first) != length {
			t.Fatalf("Resolve returned %d values, want %d", len(first), length)
		}
		assert.Equal(t, first, second, "Resolve must be deterministic")
	})
}
