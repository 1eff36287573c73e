package watch

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spectral-works/prism/internal/events"
	"github.com/spectral-works/prism/internal/host"
)

// Model is the main BubbleTea model for the watch TUI. It polls the
// status API instead of holding a live connection, so it survives host
// restarts and can attach to an already-running session.
type Model struct {
	apiURL string

	width  int
	height int

	// State
	health      HealthState
	plugins     []host.PluginStatus
	eventLog    []events.Event
	lastEventID int64

	// Live indicators
	ticker  Ticker
	spinner Spinner

	// UI state
	theme       Theme
	rosterTable table.Model

	// Error display
	lastError string
}

// New creates a new watch TUI model.
func New(apiURL string) *Model {
	return &Model{
		apiURL:      apiURL,
		eventLog:    make([]events.Event, 0),
		ticker:      NewTicker(),
		spinner:     NewSpinner(),
		theme:       NewDefaultTheme(),
		rosterTable: newRosterTable(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return fetchHealth(m.apiURL) },
		func() tea.Msg { return fetchRoster(m.apiURL) },
		fetchEvents(m.apiURL, 0),
		tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) }),
		tea.EnterAltScreen,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rosterTable.SetWidth(m.width - 6)

	case tickMsg:
		m.ticker.Tick()
		m.spinner.Decay()
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })

	case healthMsg:
		m.health.Status = msg.Status
		m.health.UptimeSeconds = msg.UptimeSeconds
		m.health.PluginsActive = msg.PluginsActive
		m.health.Connected = true
		m.health.LastCheck = time.Now()
		m.lastError = ""

		return m, tea.Tick(5*time.Second, func(t time.Time) tea.Msg {
			return fetchHealth(m.apiURL)
		})

	case rosterMsg:
		m.plugins = msg.Plugins
		m.rosterTable.SetRows(rosterRows(m.plugins, m.theme))
		return m, tea.Tick(time.Second, func(t time.Time) tea.Msg {
			return fetchRoster(m.apiURL)
		})

	case eventsMsg:
		// Backfill arrives oldest-first; the log shows newest first.
		for _, e := range msg.Events {
			m.eventLog = append([]events.Event{e}, m.eventLog...)
			if e.ID > m.lastEventID {
				m.lastEventID = e.ID
			}
		}
		if len(m.eventLog) > 50 {
			m.eventLog = m.eventLog[:50]
		}
		if len(msg.Events) > 0 {
			m.spinner.OnEvent()
		}
		return m, tea.Tick(time.Second, func(time.Time) tea.Msg {
			return fetchEvents(m.apiURL, m.lastEventID)()
		})

	case errMsg:
		m.health.Connected = false
		m.lastError = msg.err.Error()
		// Back off, then retry only the chain that failed.
		return m, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			switch msg.source {
			case sourceRoster:
				return fetchRoster(m.apiURL)
			case sourceEvents:
				return fetchEvents(m.apiURL, m.lastEventID)()
			default:
				return fetchHealth(m.apiURL)
			}
		})
	}

	m.rosterTable, cmd = m.rosterTable.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing watch..."
	}

	header := renderHeader(m.health, m.ticker, m.spinner, m.theme, m.width)
	roster := renderRoster(m.rosterTable, len(m.plugins), m.theme, m.width)
	eventStream := renderEventStream(m.eventLog, m.theme, m.width)

	// Error bar
	var errBar string
	if m.lastError != "" {
		errBar = m.theme.StatusFailed.Render(fmt.Sprintf(" ⚠ %s", m.lastError))
	}

	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" [q] Quit • [↑/↓] Navigate Plugins")

	parts := []string{header, roster, eventStream}
	if errBar != "" {
		parts = append(parts, errBar)
	}
	parts = append(parts, help)

	return lipgloss.NewStyle().Margin(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}
