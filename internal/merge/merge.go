// Package merge folds plugin responses back into the host. Each accepted
// request is entered in a ledger when issued; a response is merged only
// if its request id is outstanding, so late results from timed-out or
// superseded requests cannot touch host state. Response parts are applied
// in a fixed order: commands, metadata, overrides, series, message, then
// output field write-back. Invalid parts are rejected individually; the
// rest of the response still lands.
package merge

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
)

// Context carries what a single merge needs from the host: the plugin's
// committed configuration plus the axis material of the reading that
// produced the response.
type Context struct {
	Config   *plugin.Configuration
	Axes     axis.Axes
	Selected axis.Unit
}

// Stats counts merge outcomes for one plugin.
type Stats struct {
	Merged    int64
	Discarded int64
	Rejected  int64 // individual response parts that failed validation
}

// Merger applies responses to the host surfaces. Issue and Apply may be
// called from different goroutines.
type Merger struct {
	commands  CommandBus
	status    StatusSurface
	metadata  MetadataSink
	fields    FieldOutput
	graphs    GraphPublisher
	overrides OverrideTarget
	logger    *slog.Logger

	mu     sync.Mutex
	issued map[int64]string // request id -> plugin name
	stats  map[string]*Stats
}

// New wires a merger to its output surfaces. Any surface may be nil, in
// which case that response part is validated and then dropped.
func New(commands CommandBus, status StatusSurface, metadata MetadataSink,
	fields FieldOutput, graphs GraphPublisher, overrides OverrideTarget) *Merger {
	return &Merger{
		commands:  commands,
		status:    status,
		metadata:  metadata,
		fields:    fields,
		graphs:    graphs,
		overrides: overrides,
		logger:    log.WithComponent("merge"),
		issued:    make(map[int64]string),
		stats:     make(map[string]*Stats),
	}
}

// Issue records that a request id was handed to a plugin. Apply consumes
// the entry; a response arriving for an unissued or consumed id is
// discarded.
func (m *Merger) Issue(requestID int64, pluginName string) {
	m.mu.Lock()
	m.issued[requestID] = pluginName
	m.mu.Unlock()
}

// Revoke withdraws an issued id that was never admitted to a worker
// queue, so a skipped reading does not leak a ledger entry.
func (m *Merger) Revoke(requestID int64) {
	m.mu.Lock()
	delete(m.issued, requestID)
	m.mu.Unlock()
}

// Outstanding returns how many issued requests have not been consumed.
func (m *Merger) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.issued)
}

// PluginStats returns a copy of the merge counters for one plugin.
func (m *Merger) PluginStats(pluginName string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stats[pluginName]; ok {
		return *s
	}
	return Stats{}
}

func (m *Merger) statsFor(pluginName string) *Stats {
	s, ok := m.stats[pluginName]
	if !ok {
		s = &Stats{}
		m.stats[pluginName] = s
	}
	return s
}

// consume takes a request id off the ledger, verifying it was issued to
// the named plugin.
func (m *Merger) consume(pluginName string, requestID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.issued[requestID]
	if !ok || owner != pluginName {
		m.statsFor(pluginName).Discarded++
		return false
	}
	delete(m.issued, requestID)
	return true
}

// Apply merges one response. It returns nil when every part landed, a
// *StaleResponseError when the whole response was discarded, or the
// joined *ValidationError set for parts that were rejected.
func (m *Merger) Apply(pluginName string, resp *protocol.Response, mctx Context) error {
	if !m.consume(pluginName, resp.RequestID) {
		err := &StaleResponseError{Plugin: pluginName, RequestID: resp.RequestID}
		m.logger.Warn("discarding response", "plugin", pluginName, "request_id", resp.RequestID)
		return err
	}

	var rejected []error
	reject := func(part, reason string) {
		e := &ValidationError{Plugin: pluginName, RequestID: resp.RequestID, Part: part, Reason: reason}
		m.logger.Warn("rejected response part", "plugin", pluginName,
			"request_id", resp.RequestID, "part", part, "reason", reason)
		rejected = append(rejected, e)
	}

	m.applyCommands(pluginName, resp, reject)
	m.applyMetadata(pluginName, resp)
	m.applyOverrides(resp, mctx, reject)
	m.applySeries(pluginName, resp, mctx, reject)
	m.applyMessage(pluginName, resp)
	m.applyOutputs(pluginName, resp, mctx, reject)

	m.mu.Lock()
	s := m.statsFor(pluginName)
	s.Merged++
	s.Rejected += int64(len(rejected))
	m.mu.Unlock()

	return errors.Join(rejected...)
}

func (m *Merger) applyCommands(pluginName string, resp *protocol.Response, reject func(part, reason string)) {
	for _, cmd := range resp.Commands {
		if cmd.Setting == "" {
			reject("commands", "command with empty setting")
			continue
		}
		if m.commands == nil {
			continue
		}
		if err := m.commands.Send(cmd); err != nil {
			reject("commands", err.Error())
		}
	}
}

func (m *Merger) applyMetadata(pluginName string, resp *protocol.Response) {
	if len(resp.Metadata) == 0 || m.metadata == nil {
		return
	}
	m.metadata.MergeMetadata(pluginName, resp.Metadata)
}

func (m *Merger) applyOverrides(resp *protocol.Response, mctx Context, reject func(part, reason string)) {
	for _, channel := range []string{
		protocol.OverrideProcessed,
		protocol.OverrideRecordableDark,
		protocol.OverrideRecordableReference,
	} {
		values, ok := resp.Overrides[channel]
		if !ok {
			continue
		}
		if len(values) != mctx.Axes.PixelCount {
			reject("overrides", "channel "+channel+" length does not match pixel count")
			continue
		}
		if m.overrides != nil {
			m.overrides.ApplyOverride(channel, values)
		}
	}

	for channel := range resp.Overrides {
		switch channel {
		case protocol.OverrideProcessed, protocol.OverrideRecordableDark, protocol.OverrideRecordableReference:
		default:
			reject("overrides", "unknown channel "+channel)
		}
	}
}

func (m *Merger) applySeries(pluginName string, resp *protocol.Response, mctx Context, reject func(part, reason string)) {
	names := make([]string, 0, len(resp.Series))
	for name := range resp.Series {
		names = append(names, name)
	}
	sort.Strings(names)

	label := ""
	target := plugin.GraphTarget{Type: plugin.GraphLine}
	if mctx.Config != nil {
		label = mctx.Config.XAxisLabel
		target = mctx.Config.Graph()
	}

	for _, name := range names {
		if mctx.Config == nil || !mctx.Config.DeclaresSeries(name) {
			reject("series", "undeclared series "+name)
			continue
		}
		s := resp.Series[name]
		if len(s.Y) == 0 {
			reject("series", "series "+name+" has no values")
			continue
		}
		if len(s.X) > 0 && len(s.X) != len(s.Y) {
			reject("series", "series "+name+" x/y length mismatch")
			continue
		}
		if m.graphs == nil {
			continue
		}
		x := axis.Resolve(s.X, label, len(s.Y), mctx.Axes, mctx.Selected)
		m.graphs.PublishSeries(pluginName, name, x, s.Y, target)
	}
}

func (m *Merger) applyMessage(pluginName string, resp *protocol.Response) {
	if resp.Message == "" || m.status == nil {
		return
	}
	m.status.ShowMessage(pluginName, resp.Message)
}

func (m *Merger) applyOutputs(pluginName string, resp *protocol.Response, mctx Context, reject func(part, reason string)) {
	if len(resp.Outputs) == 0 {
		return
	}

	declared := map[string]bool{}
	if mctx.Config != nil {
		for _, f := range mctx.Config.OutputFields() {
			declared[f] = true
		}
	}

	fields := make([]string, 0, len(resp.Outputs))
	for f := range resp.Outputs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, f := range fields {
		if !declared[f] {
			reject("outputs", "field "+f+" is not a declared output")
			continue
		}
		if m.fields != nil {
			m.fields.WriteOutput(pluginName, f, resp.Outputs[f])
		}
	}
}
