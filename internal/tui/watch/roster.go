package watch

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/spectral-works/prism/internal/host"
)

func newRosterTable() table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ST", Width: 2},
			{Title: "Plugin", Width: 20},
			{Title: "Mode", Width: 8},
			{Title: "Merged", Width: 8},
			{Title: "Discarded", Width: 9},
			{Title: "Rejected", Width: 8},
			{Title: "Message", Width: 32},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

func rosterRows(plugins []host.PluginStatus, theme Theme) []table.Row {
	rows := make([]table.Row, 0, len(plugins))
	for _, p := range plugins {
		rows = append(rows, table.Row{
			stateSymbol(p.State, theme),
			p.Name,
			p.Mode,
			fmt.Sprintf("%d", p.Stats.Merged),
			fmt.Sprintf("%d", p.Stats.Discarded),
			fmt.Sprintf("%d", p.Stats.Rejected),
			p.LastMessage,
		})
	}
	return rows
}

func stateSymbol(state string, theme Theme) string {
	switch state {
	case "active":
		return theme.StatusOK.Render("●")
	case "connected", "configured":
		return theme.StatusRunning.Render("◉")
	case "failed":
		return theme.StatusFailed.Render("∅")
	case "disconnected":
		return theme.StatusIdle.Render("◔")
	default:
		return theme.StatusIdle.Render("○")
	}
}

func renderRoster(t table.Model, count int, theme Theme, width int) string {
	innerWidth := width - 4

	if count == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			theme.Title.Render("PLUGINS"),
			theme.Dim.Render("  No plugins activated yet..."),
		)
		return theme.Border.Width(innerWidth).Render(content)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("PLUGINS"),
		t.View(),
	)
	return theme.Border.Width(innerWidth).Render(content)
}
