package merge

import (
	"errors"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/merge/mocks"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

type sinks struct {
	commands  *mocks.MockCommandBus
	status    *mocks.MockStatusSurface
	metadata  *mocks.MockMetadataSink
	fields    *mocks.MockFieldOutput
	graphs    *mocks.MockGraphPublisher
	overrides *mocks.MockOverrideTarget
}

func newMerger(ctrl *gomock.Controller) (*Merger, sinks) {
	s := sinks{
		commands:  mocks.NewMockCommandBus(ctrl),
		status:    mocks.NewMockStatusSurface(ctrl),
		metadata:  mocks.NewMockMetadataSink(ctrl),
		fields:    mocks.NewMockFieldOutput(ctrl),
		graphs:    mocks.NewMockGraphPublisher(ctrl),
		overrides: mocks.NewMockOverrideTarget(ctrl),
	}
	return New(s.commands, s.status, s.metadata, s.fields, s.graphs, s.overrides), s
}

func mergeContext() Context {
	return Context{
		Config: &plugin.Configuration{
			Name:           "peaks",
			SeriesNames:    []string{"Baseline", "Peaks"},
			XAxisLabel:     "Wavelength (nm)",
			SecondaryGraph: true,
			GraphType:      plugin.GraphXY,
			Fields: []plugin.FieldDescriptor{
				{Name: "count", Type: plugin.FieldInt, Direction: plugin.DirOutput},
			},
			Blocking: plugin.BlockingNone,
		},
		Axes: axis.Axes{
			PixelCount:  4,
			Wavelengths: []float64{400, 401, 402, 403},
			Wavenumbers: []float64{100, 101, 102, 103},
		},
		Selected: axis.UnitWavelength,
	}
}

func TestMerger_AppliesPartsInPrecedenceOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, s := newMerger(ctrl)
	mctx := mergeContext()

	resp := &protocol.Response{
		RequestID: 1,
		Commands: []device.Command{
			{Setting: "integration_time_ms", Value: 100},
			{Setting: "detector_gain", Value: 1.5},
		},
		Message:  "found 2 peaks",
		Metadata: map[string]any{"peak_count": 2},
		Outputs:  map[string]any{"count": 2},
		Overrides: map[string][]float64{
			protocol.OverrideProcessed: {9, 9, 9, 9},
		},
		Series: map[string]protocol.Series{
			"Peaks": {Y: []float64{0, 1, 0, 1}},
		},
	}

	gomock.InOrder(
		s.commands.EXPECT().Send(device.Command{Setting: "integration_time_ms", Value: 100}).Return(nil),
		s.commands.EXPECT().Send(device.Command{Setting: "detector_gain", Value: 1.5}).Return(nil),
		s.metadata.EXPECT().MergeMetadata("peaks", map[string]any{"peak_count": 2}),
		s.overrides.EXPECT().ApplyOverride(protocol.OverrideProcessed, []float64{9, 9, 9, 9}),
		s.graphs.EXPECT().PublishSeries("peaks", "Peaks",
			[]float64{400, 401, 402, 403}, []float64{0, 1, 0, 1},
			plugin.GraphTarget{Secondary: true, Type: plugin.GraphXY}),
		s.status.EXPECT().ShowMessage("peaks", "found 2 peaks"),
		s.fields.EXPECT().WriteOutput("peaks", "count", 2),
	)

	m.Issue(1, "peaks")
	require.NoError(t, m.Apply("peaks", resp, mctx))
	assert.Equal(t, int64(1), m.PluginStats("peaks").Merged)
}

func TestMerger_DiscardsStaleAndUnknownResponses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newMerger(ctrl)
	mctx := mergeContext()

	// Never issued.
	err := m.Apply("peaks", &protocol.Response{RequestID: 42, Message: "late"}, mctx)
	var stale *StaleResponseError
	require.True(t, errors.As(err, &stale))

	// Issued to a different plugin.
	m.Issue(43, "other")
	err = m.Apply("peaks", &protocol.Response{RequestID: 43}, mctx)
	assert.True(t, errors.As(err, &stale))

	// Already consumed.
	m.Issue(44, "peaks")
	require.NoError(t, m.Apply("peaks", protocol.Empty(44), mctx))
	err = m.Apply("peaks", protocol.Empty(44), mctx)
	assert.True(t, errors.As(err, &stale))

	assert.Equal(t, int64(2), m.PluginStats("peaks").Discarded)
}

func TestMerger_RejectsInvalidPartsKeepsValidOnes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, s := newMerger(ctrl)
	mctx := mergeContext()

	resp := &protocol.Response{
		RequestID: 5,
		Message:   "partial",
		Overrides: map[string][]float64{
			protocol.OverrideProcessed: {1, 2},    // wrong length
			"raw":                      {1, 2, 3}, // unknown channel
		},
		Series: map[string]protocol.Series{
			"Undeclared": {Y: []float64{1}},
			"Baseline":   {Y: []float64{1, 2}, X: []float64{1}}, // x/y mismatch
		},
		Outputs: map[string]any{"nonexistent": 7},
	}

	// Only the message survives validation.
	s.status.EXPECT().ShowMessage("peaks", "partial")

	m.Issue(5, "peaks")
	err := m.Apply("peaks", resp, mctx)
	require.Error(t, err)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, int64(5), m.PluginStats("peaks").Rejected)
	assert.Equal(t, int64(1), m.PluginStats("peaks").Merged, "the response itself still counts as merged")
}

func TestMerger_CommandBusErrorIsRejectionNotFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, s := newMerger(ctrl)
	mctx := mergeContext()

	resp := &protocol.Response{
		RequestID: 6,
		Commands:  []device.Command{{Setting: "laser_enable", Value: true}},
		Message:   "arming",
	}

	s.commands.EXPECT().Send(gomock.Any()).Return(&device.RejectedError{Setting: "laser_enable"})
	s.status.EXPECT().ShowMessage("peaks", "arming")

	m.Issue(6, "peaks")
	err := m.Apply("peaks", resp, mctx)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "commands", verr.Part)
}

func TestMerger_SeriesAxisResolution(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, s := newMerger(ctrl)
	mctx := mergeContext()

	// Explicit x wins over any label inference.
	explicit := []float64{7, 8, 9}
	resp := &protocol.Response{
		RequestID: 7,
		Series: map[string]protocol.Series{
			"Peaks": {Y: []float64{1, 2, 3}, X: explicit},
		},
	}
	s.graphs.EXPECT().PublishSeries("peaks", "Peaks", explicit, []float64{1, 2, 3},
		plugin.GraphTarget{Secondary: true, Type: plugin.GraphXY})

	m.Issue(7, "peaks")
	require.NoError(t, m.Apply("peaks", resp, mctx))

	// A series shorter than the pixel count with no x falls back to an
	// index axis regardless of the label.
	resp = &protocol.Response{
		RequestID: 8,
		Series: map[string]protocol.Series{
			"Peaks": {Y: []float64{5, 6}},
		},
	}
	s.graphs.EXPECT().PublishSeries("peaks", "Peaks", []float64{0, 1}, []float64{5, 6},
		plugin.GraphTarget{Secondary: true, Type: plugin.GraphXY})

	m.Issue(8, "peaks")
	require.NoError(t, m.Apply("peaks", resp, mctx))
}

func TestMerger_SeriesDefaultsToPrimaryLineGraph(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, s := newMerger(ctrl)

	// A configuration that says nothing about graphs lands its series on
	// the primary graph as a line.
	mctx := mergeContext()
	mctx.Config.SecondaryGraph = false
	mctx.Config.GraphType = ""

	resp := &protocol.Response{
		RequestID: 12,
		Series: map[string]protocol.Series{
			"Peaks": {Y: []float64{1, 2, 3, 4}},
		},
	}
	s.graphs.EXPECT().PublishSeries("peaks", "Peaks", gomock.Any(), []float64{1, 2, 3, 4},
		plugin.GraphTarget{Secondary: false, Type: plugin.GraphLine})

	m.Issue(12, "peaks")
	require.NoError(t, m.Apply("peaks", resp, mctx))
}

func TestMerger_EmptyResponseOnlyConsumesLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newMerger(ctrl)
	mctx := mergeContext()

	m.Issue(9, "peaks")
	assert.Equal(t, 1, m.Outstanding())

	require.NoError(t, m.Apply("peaks", protocol.Empty(9), mctx))
	assert.Equal(t, 0, m.Outstanding())
}

func TestMerger_RevokeWithdrawsUnconsumedID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m, _ := newMerger(ctrl)

	m.Issue(10, "peaks")
	m.Revoke(10)
	assert.Equal(t, 0, m.Outstanding())

	err := m.Apply("peaks", protocol.Empty(10), mergeContext())
	var stale *StaleResponseError
	assert.True(t, errors.As(err, &stale), "a revoked id cannot be consumed later")
}
