package device

import "sync"

// Info is an immutable snapshot of the instrument a reading came from.
// It is copied into every request so plugins can key their own state by
// serial number (multi-device plugins) without touching the driver.
type Info struct {
	SerialNumber   string
	Model          string
	PixelCount     int
	ExcitationNM   float64
	IntegrationMS  int
	DetectorGain   float64
	LaserEnabled   bool
	ResolvedValues map[string]string // resolved plugin dependencies, keyed by name
}

// Command is one ordered (setting, value) pair destined for the instrument
// driver. Driver return values are not surfaced back to the plugin.
type Command struct {
	Setting string
	Value   any
}

// Recorder is a CommandBus that records every command it is asked to send.
// The simulated pipeline and the merger tests use it in place of a driver.
type Recorder struct {
	mu   sync.Mutex
	sent []Command

	// FailSettings lists setting names whose submission should fail,
	// for exercising the merger's continue-on-error behavior.
	FailSettings map[string]bool
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Send appends the command to the record. It returns an error for settings
// listed in FailSettings and nil otherwise.
func (r *Recorder) Send(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailSettings[cmd.Setting] {
		return &RejectedError{Setting: cmd.Setting}
	}
	r.sent = append(r.sent, cmd)
	return nil
}

// Sent returns a copy of all successfully sent commands, in send order.
func (r *Recorder) Sent() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.sent))
	copy(out, r.sent)
	return out
}

// RejectedError reports a command the driver refused.
type RejectedError struct {
	Setting string
}

func (e *RejectedError) Error() string {
	return "device rejected setting " + e.Setting
}
