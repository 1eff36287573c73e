// Package scaling is a small reference plugin: it multiplies the
// processed spectrum by an operator-set gain and returns the result as a
// secondary series. It doubles as the example new plugin authors copy.
package scaling

import (
	"fmt"
	"sync"

	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
)

// Name is the registry name of this plugin.
const Name = "scaling"

// SeriesScaled is the one series the plugin publishes.
const SeriesScaled = "Scaled"

type Plugin struct {
	mu   sync.Mutex
	host plugin.HostInfo
	dev  device.Info
}

// New constructs a fresh instance.
func New() plugin.Plugin { return &Plugin{} }

// Register adds the plugin to a registry under its canonical name.
func Register(r *plugin.Registry) error {
	return r.Register(Name, New)
}

func (p *Plugin) Configure() (*plugin.Configuration, error) {
	return &plugin.Configuration{
		Name: Name,
		Fields: []plugin.FieldDescriptor{
			{
				Name:      "gain",
				Type:      plugin.FieldFloat,
				Direction: plugin.DirInput,
				Initial:   1.0,
				Bounds:    &plugin.Bounds{Min: 0, Max: 10, Step: 0.1, Precision: 2},
				Tooltip:   "multiplier applied to every pixel",
			},
			{
				Name:      "offset",
				Type:      plugin.FieldFloat,
				Direction: plugin.DirInput,
				Initial:   0.0,
				Tooltip:   "constant added after scaling",
			},
			{
				Name:      "peak",
				Type:      plugin.FieldFloat,
				Direction: plugin.DirOutput,
				Tooltip:   "maximum of the scaled spectrum",
			},
		},
		SeriesNames: []string{SeriesScaled},
		XAxisLabel:  "Wavelength (nm)",
		YAxisLabel:  "Intensity (counts)",
		GraphType:   plugin.GraphLine,
		Streaming:   true,
		Blocking:    plugin.BlockingNone,
	}, nil
}

func (p *Plugin) Connect(host plugin.HostInfo, dev device.Info) error {
	p.mu.Lock()
	p.host = host
	p.dev = dev
	p.mu.Unlock()
	return nil
}

func (p *Plugin) Submit(req *protocol.Request) (*protocol.Response, error) {
	if req.Reading == nil || len(req.Reading.Processed) == 0 {
		return nil, fmt.Errorf("request %d carries no processed spectrum", req.RequestID)
	}

	gain := floatField(req.Fields, "gain", 1.0)
	offset := floatField(req.Fields, "offset", 0.0)

	scaled := make([]float64, len(req.Reading.Processed))
	peak := 0.0
	for i, v := range req.Reading.Processed {
		scaled[i] = v*gain + offset
		if scaled[i] > peak {
			peak = scaled[i]
		}
	}

	return &protocol.Response{
		RequestID: req.RequestID,
		Message:   fmt.Sprintf("scaled %d px by %.2f", len(scaled), gain),
		Metadata: map[string]any{
			"scaling_gain":   gain,
			"scaling_offset": offset,
		},
		Outputs: map[string]any{"peak": peak},
		Series: map[string]protocol.Series{
			SeriesScaled: {Y: scaled},
		},
	}, nil
}

func (p *Plugin) Disconnect() error { return nil }

// floatField reads a numeric field tolerantly: values arriving over the
// API decode as float64, values set in Go code may be int.
func floatField(fields map[string]any, name string, fallback float64) float64 {
	switch v := fields[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return fallback
	}
}
