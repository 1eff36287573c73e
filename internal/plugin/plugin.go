// Package plugin defines the capability contract every processing unit
// implements, the Configuration it declares, and the registry the host
// loads instances from.
//
// Plugins are trusted in-process code. The host never introspects them:
// the four lifecycle methods below are the entire surface, and a plugin is
// only reachable through the registry, keyed by name.
package plugin

import (
	"github.com/spectral-works/prism/internal/axis"
	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/protocol"
)

// HostInfo gives a plugin a read-only view of host application state.
// An implementation is passed to Connect and remains valid until
// Disconnect returns.
type HostInfo interface {
	// XAxisUnit returns the axis unit currently selected for display.
	XAxisUnit() axis.Unit
	// SavePath returns the directory measurements are saved into.
	SavePath() string
}

// Plugin is the fixed capability interface for one loadable processing
// unit. The host guarantees Configure is called before Connect, Submit is
// only called between a successful Connect and Disconnect, and Connect /
// Disconnect are never called while a Submit is in flight.
type Plugin interface {
	// Configure declares the plugin's fields, series, and execution
	// semantics. It is called once per instance; repeated calls must be
	// idempotent. An error (or an invalid Configuration) marks the plugin
	// unusable without crashing the host.
	Configure() (*Configuration, error)

	// Connect performs whatever setup processing requires; it may be
	// slow. Resolved dependency values arrive in dev.ResolvedValues. An
	// error marks the instance failed and no requests are routed to it.
	Connect(host HostInfo, dev device.Info) error

	// Submit processes one reading. It must be safe to call repeatedly
	// and must not mutate the request. An error leaves the instance
	// active; the offending request is answered with an empty response.
	Submit(req *protocol.Request) (*protocol.Response, error)

	// Disconnect releases resources. Best effort: failures are logged,
	// never fatal to the host.
	Disconnect() error
}

// Factory constructs a fresh plugin instance. A new instance is created
// each time the host activates the plugin.
type Factory func() Plugin
