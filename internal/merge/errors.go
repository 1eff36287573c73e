package merge

import "fmt"

// ValidationError reports one rejected part of a plugin response. The
// rest of the response is still applied.
type ValidationError struct {
	Plugin    string
	RequestID int64
	Part      string // "commands", "metadata", "overrides", "series", "outputs"
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plugin %q response %d: invalid %s: %s",
		e.Plugin, e.RequestID, e.Part, e.Reason)
}

// StaleResponseError reports a response whose request id was never issued
// or was already consumed. The response is discarded whole.
type StaleResponseError struct {
	Plugin    string
	RequestID int64
}

func (e *StaleResponseError) Error() string {
	return fmt.Sprintf("plugin %q response %d is stale or unknown, discarded",
		e.Plugin, e.RequestID)
}
