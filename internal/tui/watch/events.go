package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spectral-works/prism/internal/events"
)

func renderEventStream(eventLog []events.Event, theme Theme, width int) string {
	innerWidth := width - 4

	if len(eventLog) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("EVENT STREAM"),
			theme.Dim.Render("  Waiting for events..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	var lines []string
	for i, e := range eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, formatEvent(e, theme))
	}

	eventsText := lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("EVENT STREAM"),
		eventsText,
	)

	return theme.Border.Width(innerWidth).Render(content)
}

func formatEvent(e events.Event, theme Theme) string {
	ts := theme.Dim.Render(e.At.Local().Format("15:04:05"))

	// Color the event type based on category
	var typeStyle lipgloss.Style
	switch e.Type {
	case events.TypeResponseMerged, events.TypePluginActivated:
		typeStyle = theme.StatusOK
	case events.TypePluginFailed, events.TypeRequestTimeout, events.TypeResponseDiscarded:
		typeStyle = theme.StatusFailed
	case events.TypeUserTrigger:
		typeStyle = theme.Highlight
	default:
		typeStyle = theme.Dim
	}

	typeName := typeStyle.Render(fmt.Sprintf("%-20s", e.Type))

	return fmt.Sprintf("%s %s %s", ts, typeName, extractEventDesc(e))
}

func extractEventDesc(e events.Event) string {
	data := make(map[string]any)
	_ = json.Unmarshal(e.Data, &data)

	var parts []string

	if plugin, ok := data["plugin"].(string); ok {
		parts = append(parts, plugin)
	}

	// JSON numbers decode as float64.
	if id, ok := data["request_id"].(float64); ok {
		parts = append(parts, fmt.Sprintf("[req %d]", int64(id)))
	}

	if id, ok := data["measurement_id"].(string); ok {
		if len(id) > 8 {
			id = id[:8]
		}
		parts = append(parts, fmt.Sprintf("[%s]", id))
	}

	if reason, ok := data["reason"].(string); ok {
		parts = append(parts, reason)
	}

	if len(parts) == 0 {
		raw := string(e.Data)
		if len(raw) > 60 {
			raw = raw[:60] + "..."
		}
		return raw
	}

	return strings.Join(parts, " ")
}
