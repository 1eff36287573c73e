package merge

import (
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/plugin"
)

//go:generate mockgen -destination=mocks/mock_sinks.go -package=mocks github.com/spectral-works/prism/internal/merge CommandBus,StatusSurface,MetadataSink,FieldOutput,GraphPublisher,OverrideTarget

// CommandBus accepts device settings changes extracted from plugin
// responses, in response list order.
type CommandBus interface {
	Send(cmd device.Command) error
}

// StatusSurface shows a plugin's transient message to the operator.
type StatusSurface interface {
	ShowMessage(plugin, message string)
}

// MetadataSink folds plugin metadata into the pending save metadata.
// Later writes win on key collision.
type MetadataSink interface {
	MergeMetadata(plugin string, metadata map[string]any)
}

// FieldOutput writes values back to a plugin's declared output fields.
type FieldOutput interface {
	WriteOutput(plugin, field string, value any)
}

// GraphPublisher displays one named series with a fully resolved x axis on
// the graph the plugin's configuration designated.
type GraphPublisher interface {
	PublishSeries(pluginName, name string, x, y []float64, target plugin.GraphTarget)
}

// OverrideTarget swaps a channel of the live reading.
type OverrideTarget interface {
	ApplyOverride(channel string, values []float64)
}
