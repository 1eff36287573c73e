// Package host ties the pipeline together: it activates plugins, runs the
// acquisition loop that fans readings out to dispatch workers, pumps
// completions into the merger, and exposes status to the API and TUI.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spectral-works/prism/internal/adapter"
	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/config"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/dispatch"
	"github.com/spectral-works/prism/internal/events"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/merge"
	"github.com/spectral-works/prism/internal/metadata"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
	"github.com/spectral-works/prism/internal/reading"
)

// EventSave is the trigger name delivered to plugins that asked to hear
// about the operator saving a measurement.
const EventSave = "save"

type instance struct {
	adapter *adapter.Adapter
	worker  *dispatch.Worker
	config  *plugin.Configuration
}

// Controller owns the live pipeline for one acquisition session.
type Controller struct {
	cfg      *config.Config
	registry *plugin.Registry
	source   Source
	merger   *merge.Merger
	meta     *metadata.Store
	hub      *events.Hub
	logger   *slog.Logger

	selected      axis.Unit
	nextRequestID atomic.Int64
	completions   chan dispatch.Completion

	mu          sync.RWMutex
	instances   map[string]*instance
	fieldValues map[string]map[string]any
	lastSeries  map[string]map[string]protocol.Series
	graphTarget map[string]plugin.GraphTarget
	lastMessage map[string]string
	live        *reading.Snapshot

	stopAcquire chan struct{}
	stopPump    chan struct{}
	wg          sync.WaitGroup
	started     bool
}

// Source is what the controller needs from an acquisition backend. The
// acquire package's simulator satisfies it; so would a hardware driver.
type Source interface {
	Device() device.Info
	Axes() axis.Axes
	Next() *reading.Snapshot
}

// New assembles a controller. commands receives device commands extracted
// from plugin responses.
func New(cfg *config.Config, registry *plugin.Registry, source Source,
	meta *metadata.Store, hub *events.Hub, commands merge.CommandBus) *Controller {
	c := &Controller{
		cfg:         cfg,
		registry:    registry,
		source:      source,
		meta:        meta,
		hub:         hub,
		logger:      log.WithComponent("host"),
		selected:    axis.ParseUnit(cfg.Service.XAxisUnit),
		completions: make(chan dispatch.Completion, 256),
		instances:   make(map[string]*instance),
		fieldValues: make(map[string]map[string]any),
		lastSeries:  make(map[string]map[string]protocol.Series),
		graphTarget: make(map[string]plugin.GraphTarget),
		lastMessage: make(map[string]string),
		stopAcquire: make(chan struct{}),
		stopPump:    make(chan struct{}),
	}
	c.merger = merge.New(commands, c, meta, c, c, c)
	return c
}

// XAxisUnit implements plugin.HostInfo.
func (c *Controller) XAxisUnit() axis.Unit { return c.selected }

// SavePath implements plugin.HostInfo.
func (c *Controller) SavePath() string { return c.cfg.Service.SavePath }

// Start activates every enabled plugin and launches the acquisition loop
// and completion pump. Plugins that fail to activate are logged and
// skipped; the session still starts for the rest.
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return fmt.Errorf("controller already started")
	}
	c.started = true

	names := c.registry.Names()
	activated := 0
	for _, name := range names {
		pconf, ok := c.cfg.Plugins[name]
		if !ok || !pconf.Enabled {
			continue
		}
		if err := c.activate(ctx, name, pconf); err != nil {
			c.logger.Error("plugin activation failed", "plugin", name, "error", err)
			c.hub.Publish(events.TypePluginFailed, map[string]any{
				"plugin": name, "error": err.Error(),
			})
			continue
		}
		activated++
	}
	c.logger.Info("session started", "plugins", activated, "of", len(names))

	c.wg.Add(2)
	go c.acquireLoop()
	go c.pump()
	return nil
}

// activate takes one plugin through configure, dependency resolution,
// connect and worker start.
func (c *Controller) activate(ctx context.Context, name string, pconf config.PluginConf) error {
	impl, err := c.registry.New(name)
	if err != nil {
		return err
	}

	a := adapter.New(name, impl)
	cfg, err := a.Configure()
	if err != nil {
		return err
	}

	// The operator's config may override the mode the plugin declared.
	if pconf.Blocking != "" {
		cfg.Blocking = plugin.BlockingMode(pconf.Blocking)
	}

	resolved, err := c.resolveDependencies(ctx, name, cfg, pconf)
	if err != nil {
		return err
	}

	dev := c.source.Device()
	dev.ResolvedValues = resolved
	if err := a.Connect(c, dev); err != nil {
		return err
	}

	worker := dispatch.NewWorker(a, c.completions, dispatch.Options{
		QueueDepth:      pconf.QueueDepth,
		FailureLimit:    pconf.FailureLimit,
		HostTimeout:     pconf.HostTimeout,
		DisconnectGrace: pconf.DisconnectGrace,
		OnDeactivate: func(reason string) {
			c.hub.Publish(events.TypePluginDeactivated, map[string]any{
				"plugin": name, "reason": reason,
			})
		},
		OnDrop: func(requestID int64) {
			// The completion never reached the pump; withdraw the ledger
			// entry so it does not count as outstanding forever.
			c.merger.Revoke(requestID)
		},
	})
	if err := worker.Start(); err != nil {
		return err
	}

	c.mu.Lock()
	c.instances[name] = &instance{adapter: a, worker: worker, config: cfg}
	c.fieldValues[name] = initialFields(cfg)
	c.mu.Unlock()

	c.hub.Publish(events.TypePluginActivated, map[string]any{
		"plugin": name, "mode": string(cfg.Blocking),
	})
	return nil
}

// resolveDependencies finds a value for every dependency the plugin
// declared: the operator's config wins, then a previously persisted value.
// Directory dependencies must exist on disk.
func (c *Controller) resolveDependencies(ctx context.Context, name string,
	cfg *plugin.Configuration, pconf config.PluginConf) (map[string]string, error) {

	if len(cfg.Dependencies) == 0 {
		return nil, nil
	}

	persisted, err := c.meta.LoadDependencies(ctx, name)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]string, len(cfg.Dependencies))
	for _, dep := range cfg.Dependencies {
		value, ok := pconf.Dependencies[dep.Name]
		if !ok {
			value, ok = persisted[dep.Name]
		}
		if !ok || value == "" {
			return nil, fmt.Errorf("dependency %q is unresolved (%s)", dep.Name, dep.Prompt)
		}

		if dep.Kind == plugin.DependencyExistingDirectory {
			info, err := os.Stat(value)
			if err != nil || !info.IsDir() {
				return nil, fmt.Errorf("dependency %q: %q is not an existing directory", dep.Name, value)
			}
		}

		if dep.Persist {
			if err := c.meta.SaveDependency(ctx, name, dep.Name, value); err != nil {
				return nil, err
			}
		}
		resolved[dep.Name] = value
	}
	return resolved, nil
}

func initialFields(cfg *plugin.Configuration) map[string]any {
	values := make(map[string]any)
	for _, f := range cfg.Fields {
		if f.Direction == plugin.DirInput && f.Type != plugin.FieldButton && f.Initial != nil {
			values[f.Name] = f.Initial
		}
	}
	return values
}

func (c *Controller) acquireLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.Service.AcquisitionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopAcquire:
			return
		case <-ticker.C:
			snap := c.source.Next()
			c.mu.Lock()
			c.live = snap
			c.mu.Unlock()
			c.dispatchReading(snap, nil, false)
		}
	}
}

// dispatchReading fans one reading out to the eligible workers. When
// trigger is set the reading goes to every active plugin regardless of its
// streaming flag (event deliveries); otherwise only streaming plugins see
// it.
func (c *Controller) dispatchReading(snap *reading.Snapshot, extra map[string]any, trigger bool) {
	c.mu.RLock()
	names := make([]string, 0, len(c.instances))
	for name := range c.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	c.mu.RUnlock()

	dev := c.source.Device()

	for _, name := range names {
		c.mu.RLock()
		inst := c.instances[name]
		var fields map[string]any
		if inst != nil {
			fields = copyFields(c.fieldValues[name])
		}
		c.mu.RUnlock()
		if inst == nil || inst.adapter.State() != adapter.StateActive {
			continue
		}
		if !trigger && !inst.config.Streaming {
			continue
		}
		for k, v := range extra {
			fields[k] = v
		}

		id := c.nextRequestID.Add(1)
		req := &protocol.Request{
			RequestID: id,
			Device:    dev,
			Reading:   snap,
			Fields:    fields,
			CreatedAt: time.Now().UTC(),
		}

		c.merger.Issue(id, name)
		if !inst.worker.Offer(req) {
			// Declined admission: nothing will ever complete this id.
			c.merger.Revoke(id)
		}
	}
}

func copyFields(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// pump merges completions back into the host until Stop.
func (c *Controller) pump() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopPump:
			return
		case comp := <-c.completions:
			c.handleCompletion(comp)
		}
	}
}

func (c *Controller) handleCompletion(comp dispatch.Completion) {
	if comp.TimedOut {
		c.hub.Publish(events.TypeRequestTimeout, map[string]any{
			"plugin": comp.Plugin, "request_id": comp.RequestID,
		})
	}

	c.mu.RLock()
	inst := c.instances[comp.Plugin]
	c.mu.RUnlock()
	if inst == nil {
		return
	}

	mctx := merge.Context{
		Config:   inst.config,
		Axes:     c.source.Axes(),
		Selected: c.selected,
	}

	err := c.merger.Apply(comp.Plugin, comp.Response, mctx)
	switch err.(type) {
	case nil:
		if !comp.Response.IsEmpty() {
			c.hub.Publish(events.TypeResponseMerged, map[string]any{
				"plugin": comp.Plugin, "request_id": comp.RequestID,
			})
		}
	case *merge.StaleResponseError:
		c.hub.Publish(events.TypeResponseDiscarded, map[string]any{
			"plugin": comp.Plugin, "request_id": comp.RequestID,
		})
	default:
		log.WithRequest(comp.RequestID).Warn("response merged with rejected parts",
			"plugin", comp.Plugin, "error", err)
	}
}

// TriggerSave commits the pending metadata as a measurement and delivers
// the save event to every plugin that subscribed to it.
func (c *Controller) TriggerSave(ctx context.Context) (string, error) {
	c.mu.RLock()
	snap := c.live
	c.mu.RUnlock()

	dev := c.source.Device()
	id, err := c.meta.CommitMeasurement(ctx, dev.SerialNumber)
	if err != nil {
		return "", err
	}
	c.hub.Publish(events.TypeUserTrigger, map[string]any{
		"trigger": EventSave, "measurement_id": id,
	})

	if snap != nil {
		c.dispatchSaveEvent(snap)
	}
	return id, nil
}

func (c *Controller) dispatchSaveEvent(snap *reading.Snapshot) {
	c.mu.RLock()
	subscribed := make(map[string]*instance)
	for name, inst := range c.instances {
		if inst.config.WantsEvent(EventSave) {
			subscribed[name] = inst
		}
	}
	c.mu.RUnlock()
	if len(subscribed) == 0 {
		return
	}

	// Deliver only to subscribers, not the whole roster.
	names := make([]string, 0, len(subscribed))
	for name := range subscribed {
		names = append(names, name)
	}
	sort.Strings(names)

	dev := c.source.Device()
	for _, name := range names {
		inst := subscribed[name]
		if inst.adapter.State() != adapter.StateActive {
			continue
		}
		c.mu.RLock()
		fields := copyFields(c.fieldValues[name])
		c.mu.RUnlock()
		fields["event"] = EventSave

		id := c.nextRequestID.Add(1)
		req := &protocol.Request{
			RequestID: id,
			Device:    dev,
			Reading:   snap,
			Fields:    fields,
			CreatedAt: time.Now().UTC(),
		}
		c.merger.Issue(id, name)
		if !inst.worker.Offer(req) {
			c.merger.Revoke(id)
		}
	}
}

// SetField updates one plugin input field for subsequent requests.
func (c *Controller) SetField(pluginName, field string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst := c.instances[pluginName]
	if inst == nil {
		return fmt.Errorf("plugin %q is not active", pluginName)
	}
	for _, f := range inst.config.Fields {
		if f.Name == field && f.Direction == plugin.DirInput {
			c.fieldValues[pluginName][field] = value
			return nil
		}
	}
	return fmt.Errorf("plugin %q has no input field %q", pluginName, field)
}

// Stop halts acquisition, deactivates every worker and drains the pump.
func (c *Controller) Stop() {
	close(c.stopAcquire)

	c.mu.RLock()
	workers := make([]*dispatch.Worker, 0, len(c.instances))
	for _, inst := range c.instances {
		workers = append(workers, inst.worker)
	}
	c.mu.RUnlock()

	for _, w := range workers {
		w.Deactivate("host shutdown")
	}

	close(c.stopPump)
	c.wg.Wait()
	c.logger.Info("session stopped")
}
