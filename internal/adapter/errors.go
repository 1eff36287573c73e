package adapter

import "fmt"

// ConfigurationError reports a Configure call that raised or returned an
// invalid Configuration. The plugin is marked unusable; the message is
// surfaced to the user once.
type ConfigurationError struct {
	Plugin string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("plugin %q configuration failed: %v", e.Plugin, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ConnectError reports a failed Connect. The instance is marked failed and
// receives no requests until the host re-activates it.
type ConnectError struct {
	Plugin string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("plugin %q failed to connect: %v", e.Plugin, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProcessingFault reports a Submit that returned an error or panicked for
// one request. Crashed faults disable further dispatch; plain faults leave
// the instance active.
type ProcessingFault struct {
	Plugin    string
	RequestID int64
	Crashed   bool
	Err       error
}

func (e *ProcessingFault) Error() string {
	kind := "fault"
	if e.Crashed {
		kind = "crash"
	}
	return fmt.Sprintf("plugin %q submit %s on request %d: %v", e.Plugin, kind, e.RequestID, e.Err)
}

func (e *ProcessingFault) Unwrap() error { return e.Err }
