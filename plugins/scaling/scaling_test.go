package scaling

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectral-works/prism/internal/adapter"
	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/dispatch"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
	"github.com/spectral-works/prism/internal/reading"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

type hostStub struct{}

func (hostStub) XAxisUnit() axis.Unit { return axis.UnitWavelength }
func (hostStub) SavePath() string     { return "/tmp" }

func newActiveAdapter(t *testing.T) *adapter.Adapter {
	t.Helper()
	a := adapter.New(Name, New())
	cfg, err := a.Configure()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.NoError(t, a.Connect(hostStub{}, device.Info{SerialNumber: "SIM-0001", PixelCount: 4}))
	return a
}

func testRequest(id int64, fields map[string]any) *protocol.Request {
	return &protocol.Request{
		RequestID: id,
		Reading: &reading.Snapshot{
			Processed:  []float64{1, 2, 3, 4},
			AcquiredAt: time.Now(),
		},
		Fields:    fields,
		CreatedAt: time.Now(),
	}
}

func TestScaling_Submit(t *testing.T) {
	a := newActiveAdapter(t)
	require.NoError(t, a.Activate())

	resp, err := a.Submit(testRequest(1, map[string]any{"gain": 2.0, "offset": 1.0}))
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 5, 7, 9}, resp.Series[SeriesScaled].Y)
	assert.Equal(t, 9.0, resp.Outputs["peak"])
	assert.Equal(t, 2.0, resp.Metadata["scaling_gain"])
	assert.Equal(t, "scaled 4 px by 2.00", resp.Message)
}

func TestScaling_FieldCoercion(t *testing.T) {
	a := newActiveAdapter(t)
	require.NoError(t, a.Activate())

	// Fields set programmatically may be ints; missing fields fall back.
	resp, err := a.Submit(testRequest(2, map[string]any{"gain": 3}))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 6, 9, 12}, resp.Series[SeriesScaled].Y)

	resp, err = a.Submit(testRequest(3, nil))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, resp.Series[SeriesScaled].Y, "defaults are identity")
}

func TestScaling_EmptyReadingFaults(t *testing.T) {
	a := newActiveAdapter(t)
	require.NoError(t, a.Activate())

	req := testRequest(4, nil)
	req.Reading = &reading.Snapshot{}
	_, err := a.Submit(req)
	require.Error(t, err)
	assert.Equal(t, adapter.StateActive, a.State(), "processing faults do not deactivate")
}

func TestScaling_ThroughWorker(t *testing.T) {
	a := newActiveAdapter(t)

	completions := make(chan dispatch.Completion, 4)
	w := dispatch.NewWorker(a, completions, dispatch.Options{})
	require.NoError(t, w.Start())
	defer w.Deactivate("test done")

	require.True(t, w.Offer(testRequest(7, map[string]any{"gain": 2.0})))

	select {
	case comp := <-completions:
		require.NoError(t, comp.Err)
		assert.Equal(t, int64(7), comp.RequestID)
		assert.Equal(t, []float64{2, 4, 6, 8}, comp.Response.Series[SeriesScaled].Y)
	case <-time.After(2 * time.Second):
		t.Fatal("no completion delivered")
	}
}

func TestScaling_Register(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, Register(r))

	impl, err := r.New(Name)
	require.NoError(t, err)
	require.NotNil(t, impl)

	cfg, err := impl.Configure()
	require.NoError(t, err)
	assert.Equal(t, Name, cfg.Name)
	assert.True(t, cfg.Streaming)
	assert.True(t, cfg.DeclaresSeries(SeriesScaled))
}
