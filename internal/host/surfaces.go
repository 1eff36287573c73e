package host

import (
	"sort"

	"github.com/spectral-works/prism/internal/adapter"
	"github.com/spectral-works/prism/internal/merge"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
	"github.com/spectral-works/prism/internal/reading"
)

// The controller is itself the merger's status, field, graph and override
// surface: merged response parts land in host state that the API and TUI
// read back out.

// ShowMessage implements merge.StatusSurface.
func (c *Controller) ShowMessage(pluginName, message string) {
	c.mu.Lock()
	c.lastMessage[pluginName] = message
	c.mu.Unlock()
}

// WriteOutput implements merge.FieldOutput.
func (c *Controller) WriteOutput(pluginName, field string, value any) {
	c.mu.Lock()
	if values, ok := c.fieldValues[pluginName]; ok {
		values[field] = value
	}
	c.mu.Unlock()
}

// PublishSeries implements merge.GraphPublisher. The latest value of each
// named series is kept for display, along with the graph it belongs on.
func (c *Controller) PublishSeries(pluginName, name string, x, y []float64, target plugin.GraphTarget) {
	c.mu.Lock()
	if c.lastSeries[pluginName] == nil {
		c.lastSeries[pluginName] = make(map[string]protocol.Series)
	}
	c.lastSeries[pluginName][name] = protocol.Series{X: x, Y: y}
	c.graphTarget[pluginName] = target
	c.mu.Unlock()
}

// ApplyOverride implements merge.OverrideTarget: it swaps one channel of
// the live reading. The reading is copied first so requests already in
// flight keep the data they were built with.
func (c *Controller) ApplyOverride(channel string, values []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live == nil {
		return
	}

	snap := c.live.Copy()
	switch channel {
	case protocol.OverrideProcessed:
		snap.Processed = values
	case protocol.OverrideRecordableDark:
		snap.Dark = values
	case protocol.OverrideRecordableReference:
		snap.Reference = values
	}
	c.live = snap
}

// LiveReading returns the current reading, or nil before the first frame.
func (c *Controller) LiveReading() *reading.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

// SeriesSnapshot is one plugin's latest published series and the graph
// they were designated to.
type SeriesSnapshot struct {
	Target plugin.GraphTarget
	Series map[string]protocol.Series
}

// Series returns the latest published series for one plugin.
func (c *Controller) Series(pluginName string) SeriesSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := SeriesSnapshot{
		Target: c.graphTarget[pluginName],
		Series: make(map[string]protocol.Series, len(c.lastSeries[pluginName])),
	}
	for name, s := range c.lastSeries[pluginName] {
		out.Series[name] = s
	}
	return out
}

// FieldValue returns the current value of one plugin field.
func (c *Controller) FieldValue(pluginName, field string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.fieldValues[pluginName][field]
	return v, ok
}

// PluginStatus is one row of the session roster.
type PluginStatus struct {
	Name        string      `json:"name"`
	State       string      `json:"state"`
	Mode        string      `json:"mode"`
	LastMessage string      `json:"last_message,omitempty"`
	Stats       merge.Stats `json:"stats"`
}

// Status reports every activated plugin, sorted by name.
func (c *Controller) Status() []PluginStatus {
	c.mu.RLock()
	names := make([]string, 0, len(c.instances))
	for name := range c.instances {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	out := make([]PluginStatus, 0, len(names))
	for _, name := range names {
		c.mu.RLock()
		inst := c.instances[name]
		msg := c.lastMessage[name]
		c.mu.RUnlock()
		if inst == nil {
			continue
		}
		out = append(out, PluginStatus{
			Name:        name,
			State:       string(inst.adapter.State()),
			Mode:        string(inst.config.Blocking),
			LastMessage: msg,
			Stats:       c.merger.PluginStats(name),
		})
	}
	return out
}

// ActiveCount returns how many plugins are currently dispatchable.
func (c *Controller) ActiveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, inst := range c.instances {
		if inst.adapter.State() == adapter.StateActive {
			n++
		}
	}
	return n
}
