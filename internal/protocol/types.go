package protocol

import (
	"time"

	"github.com/spectral-works/prism/internal/device"
	"github.com/spectral-works/prism/internal/reading"
)

// Override channel names a plugin may replace on the live reading.
const (
	OverrideProcessed           = "processed"
	OverrideRecordableDark      = "recordable_dark"
	OverrideRecordableReference = "recordable_reference"
)

// Request is the per-reading message handed to a plugin. Requests are
// immutable once created so they can cross the worker queue boundary
// without synchronization; RequestID is strictly increasing per host
// session and is used to discard stale responses.
type Request struct {
	RequestID int64

	// Device and Reading are snapshots owned by this request. The adapter
	// deep-copies the reading before submission, so a plugin may read them
	// freely but must never mutate them.
	Device  device.Info
	Reading *reading.Snapshot

	// Fields carries the current scalar values of the plugin's declared
	// input fields, keyed by field name.
	Fields map[string]any

	CreatedAt time.Time
}

// Series is one named data set returned for graphing. X is optional; when
// nil the host infers an axis (see the axis package).
type Series struct {
	Y []float64
	X []float64
}

// Response is produced exactly once per accepted Request. RequestID must
// match the originating request or the response is discarded.
type Response struct {
	RequestID int64

	// Commands are forwarded to the device command channel in list order.
	Commands []device.Command

	// Message is shown on a transient status surface.
	Message string

	// Metadata is merged into the pending save-metadata map; later
	// plugins' keys overwrite earlier ones on collision.
	Metadata map[string]any

	// Outputs are written back to the plugin's declared output fields.
	Outputs map[string]any

	// Overrides replace channels of the live reading when their length
	// matches the reading's pixel count.
	Overrides map[string][]float64

	// Series holds named data sets for display; only keys declared in the
	// plugin's Configuration are published.
	Series map[string]Series
}

// Empty returns the synthetic empty response substituted when a request
// times out or its submission faults. It carries no commands, series, or
// overrides, so merging it is a no-op beyond consuming the request id.
func Empty(requestID int64) *Response {
	return &Response{RequestID: requestID}
}

// IsEmpty reports whether the response carries no payload at all.
func (r *Response) IsEmpty() bool {
	return len(r.Commands) == 0 &&
		r.Message == "" &&
		len(r.Metadata) == 0 &&
		len(r.Outputs) == 0 &&
		len(r.Overrides) == 0 &&
		len(r.Series) == 0
}
