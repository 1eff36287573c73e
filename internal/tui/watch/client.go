package watch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/spectral-works/prism/internal/api"
)

// --- Message types ---

type healthMsg api.HealthzResponse

type rosterMsg api.PluginsResponse

type eventsMsg api.EventsResponse

type tickMsg time.Time

// errMsg records which poll failed so only that poll chain is retried.
type errMsg struct {
	source string
	err    error
}

const (
	sourceHealth = "health"
	sourceRoster = "roster"
	sourceEvents = "events"
)

// --- Commands ---

// fetchHealth queries the /healthz endpoint.
func fetchHealth(apiURL string) tea.Msg {
	var h healthMsg
	if err := getJSON(apiURL+"/healthz", &h); err != nil {
		return errMsg{source: sourceHealth, err: err}
	}
	return h
}

// fetchRoster queries the plugin roster.
func fetchRoster(apiURL string) tea.Msg {
	var r rosterMsg
	if err := getJSON(apiURL+"/v1/plugins", &r); err != nil {
		return errMsg{source: sourceRoster, err: err}
	}
	return r
}

// fetchEvents backfills events published after lastID.
func fetchEvents(apiURL string, lastID int64) tea.Cmd {
	return func() tea.Msg {
		var e eventsMsg
		url := fmt.Sprintf("%s/v1/events?since=%d", apiURL, lastID)
		if err := getJSON(url, &e); err != nil {
			return errMsg{source: sourceEvents, err: err}
		}
		return e
	}
}

func getJSON(url string, out any) error {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
