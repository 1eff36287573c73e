// Package adapter wraps one loaded plugin instance behind the lifecycle
// the host relies on: configure once, connect, submit per reading,
// disconnect. It owns the instance's state machine and shields the host
// from plugin panics.
package adapter

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/log"
	"github.com/spectral-works/prism/internal/plugin"
	"github.com/spectral-works/prism/internal/protocol"
)

// State is the adapter's lifecycle position.
//
//	Unconfigured -> Configured -> Connected -> {Active, Failed} -> Disconnected
//
// Active is entered only after a successful Connect. A submit fault keeps
// the instance Active; a crash transitions it to Failed.
type State string

const (
	StateUnconfigured State = "unconfigured"
	StateConfigured   State = "configured"
	StateConnected    State = "connected"
	StateActive       State = "active"
	StateFailed       State = "failed"
	StateDisconnected State = "disconnected"
)

// Adapter wraps a single plugin instance. All lifecycle calls happen on
// the instance's dispatch context; State and Config are safe to read from
// other contexts.
type Adapter struct {
	name   string
	impl   plugin.Plugin
	logger *slog.Logger

	mu           sync.RWMutex
	state        State
	config       *plugin.Configuration
	disconnected bool
}

// New wraps a plugin instance.
func New(name string, impl plugin.Plugin) *Adapter {
	return &Adapter{
		name:   name,
		impl:   impl,
		logger: log.WithPlugin(name),
		state:  StateUnconfigured,
	}
}

// Name returns the registry name of the wrapped plugin.
func (a *Adapter) Name() string { return a.name }

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Config returns the committed Configuration, or nil before Configure.
func (a *Adapter) Config() *plugin.Configuration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

func (a *Adapter) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Configure obtains and commits the plugin's Configuration. Exactly one
// Configuration is ever committed per instance; repeated calls return the
// committed one without consulting the plugin again.
func (a *Adapter) Configure() (*plugin.Configuration, error) {
	if cfg := a.Config(); cfg != nil {
		return cfg, nil
	}

	cfg, err := a.configureGuarded()
	if err != nil {
		a.setState(StateFailed)
		return nil, &ConfigurationError{Plugin: a.name, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		a.setState(StateFailed)
		return nil, &ConfigurationError{Plugin: a.name, Err: err}
	}

	a.mu.Lock()
	a.config = cfg
	a.state = StateConfigured
	a.mu.Unlock()
	return cfg, nil
}

func (a *Adapter) configureGuarded() (cfg *plugin.Configuration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("configure panicked: %v", r)
		}
	}()
	cfg, err = a.impl.Configure()
	if err == nil && cfg == nil {
		err = fmt.Errorf("configure returned nil configuration")
	}
	return cfg, err
}

// Connect runs the plugin's setup. On success the instance becomes
// Connected; Activate moves it to Active when its worker starts.
func (a *Adapter) Connect(host plugin.HostInfo, dev device.Info) error {
	if a.State() != StateConfigured {
		return &ConnectError{Plugin: a.name, Err: fmt.Errorf("connect in state %q", a.State())}
	}

	if err := a.connectGuarded(host, dev); err != nil {
		a.setState(StateFailed)
		return &ConnectError{Plugin: a.name, Err: err}
	}
	a.setState(StateConnected)
	return nil
}

func (a *Adapter) connectGuarded(host plugin.HostInfo, dev device.Info) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("connect panicked: %v", r)
		}
	}()
	return a.impl.Connect(host, dev)
}

// Activate marks a connected instance active for dispatch.
func (a *Adapter) Activate() error {
	if a.State() != StateConnected {
		return fmt.Errorf("plugin %q: activate in state %q", a.name, a.State())
	}
	a.setState(StateActive)
	return nil
}

// Submit runs the plugin's processing entry point for one request. The
// reading and field map are defensively copied first so a misbehaving
// plugin cannot mutate the host's request. Faults are returned as
// *ProcessingFault; crashed faults also move the instance to Failed.
func (a *Adapter) Submit(req *protocol.Request) (*protocol.Response, error) {
	if a.State() != StateActive {
		return nil, &ProcessingFault{
			Plugin:    a.name,
			RequestID: req.RequestID,
			Err:       fmt.Errorf("submit in state %q", a.State()),
		}
	}

	shielded := *req
	shielded.Reading = req.Reading.Copy()
	if req.Fields != nil {
		fields := make(map[string]any, len(req.Fields))
		for k, v := range req.Fields {
			fields[k] = v
		}
		shielded.Fields = fields
	}

	resp, crashed, err := a.submitGuarded(&shielded)
	if err != nil {
		fault := &ProcessingFault{Plugin: a.name, RequestID: req.RequestID, Crashed: crashed, Err: err}
		if crashed {
			a.setState(StateFailed)
		}
		return nil, fault
	}

	if resp == nil {
		// A nil response without an error is treated as empty.
		return protocol.Empty(req.RequestID), nil
	}
	if resp.RequestID != req.RequestID {
		return nil, &ProcessingFault{
			Plugin:    a.name,
			RequestID: req.RequestID,
			Err:       fmt.Errorf("response request_id %d does not match request %d", resp.RequestID, req.RequestID),
		}
	}
	return resp, nil
}

func (a *Adapter) submitGuarded(req *protocol.Request) (resp *protocol.Response, crashed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			crashed = true
			err = fmt.Errorf("submit panicked: %v", r)
		}
	}()
	resp, err = a.impl.Submit(req)
	return resp, false, err
}

// Disconnect tears the instance down. Best effort and idempotent:
// failures (including panics) are logged, never escalated.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	if a.disconnected {
		a.mu.Unlock()
		return
	}
	a.disconnected = true
	a.mu.Unlock()

	if err := a.disconnectGuarded(); err != nil {
		a.logger.Warn("disconnect failed", "error", err)
	}
	a.setState(StateDisconnected)
}

func (a *Adapter) disconnectGuarded() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("disconnect panicked: %v", r)
		}
	}()
	return a.impl.Disconnect()
}
