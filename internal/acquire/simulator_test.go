package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulator_FramesAreConsistent(t *testing.T) {
	sim := NewSimulator(512, 785, 1)

	info := sim.Device()
	assert.Equal(t, 512, info.PixelCount)

	ax := sim.Axes()
	assert.Len(t, ax.Wavelengths, 512)
	assert.Len(t, ax.Wavenumbers, 512)
	assert.Equal(t, 512, ax.PixelCount)

	// Wavelengths increase monotonically above the laser line.
	assert.Greater(t, ax.Wavelengths[0], 785.0)
	for i := 1; i < len(ax.Wavelengths); i++ {
		assert.Greater(t, ax.Wavelengths[i], ax.Wavelengths[i-1])
	}

	snap := sim.Next()
	require.Equal(t, 512, snap.PixelCount())
	assert.Len(t, snap.Raw, 512)
	assert.Len(t, snap.Dark, 512)
	assert.False(t, snap.AcquiredAt.IsZero())
}

func TestSimulator_SeededNoiseIsReproducible(t *testing.T) {
	a := NewSimulator(128, 785, 42).Next()
	b := NewSimulator(128, 785, 42).Next()
	assert.Equal(t, a.Processed, b.Processed)
}

func TestSimulator_DefaultsForBadArguments(t *testing.T) {
	sim := NewSimulator(0, -1, 7)
	assert.Equal(t, 1024, sim.Device().PixelCount)
	assert.Equal(t, 785.0, sim.Device().ExcitationNM)
}
