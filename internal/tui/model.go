// Package tui renders a live dashboard for the watch loop. It receives
// watcher events through a Bridge and shows the current phase, the last
// change, and a scrollable list of recent build sessions.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bindery/galley/internal/ui"
	"github.com/bindery/galley/internal/watch"
)

const maxSessions = 100

// ChangeMsg reports the path whose modification opened a debounce window.
type ChangeMsg struct {
	Path string
}

// PhaseMsg reports a watcher phase transition.
type PhaseMsg struct {
	Phase watch.Phase
}

// SessionMsg carries a finished build session.
type SessionMsg struct {
	Result watch.Result
}

// sessionRow is a SessionMsg with its arrival time attached.
type sessionRow struct {
	at     time.Time
	result watch.Result
}

// Model is the dashboard state.
type Model struct {
	Document string
	Files    int

	phase      watch.Phase
	lastChange string
	sessions   []sessionRow

	spin     spinner.Model
	vp       viewport.Model
	width    int
	height   int
	ready    bool
	quitting bool
}

// NewModel builds a dashboard for the named document watching the given
// number of files.
func NewModel(document string, files int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleStatusLabel
	return Model{
		Document: document,
		Files:    files,
		phase:    watch.PhaseIdle,
		spin:     sp,
	}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chrome := 4 // status bar, change line, blank, help
		if !m.ready {
			m.vp = viewport.New(msg.Width, max(msg.Height-chrome, 1))
			m.ready = true
		} else {
			m.vp.Width = msg.Width
			m.vp.Height = max(msg.Height-chrome, 1)
		}
		m.vp.SetContent(m.sessionLines())
	case ChangeMsg:
		m.lastChange = msg.Path
	case PhaseMsg:
		m.phase = msg.Phase
	case SessionMsg:
		m.sessions = append(m.sessions, sessionRow{at: time.Now(), result: msg.Result})
		if len(m.sessions) > maxSessions {
			m.sessions = m.sessions[len(m.sessions)-maxSessions:]
		}
		if m.ready {
			m.vp.SetContent(m.sessionLines())
			m.vp.GotoBottom()
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.ready {
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	if m.lastChange != "" {
		b.WriteString(styleMuted.Render("last change: " + m.lastChange))
	}
	b.WriteString("\n")
	if m.ready {
		b.WriteString(m.vp.View())
	} else {
		b.WriteString(m.sessionLines())
	}
	b.WriteString("\n")
	b.WriteString(styleHelp.Render("q quit · arrows scroll"))
	return b.String()
}

func (m Model) statusBar() string {
	icon := iconWaiting
	switch m.phase {
	case watch.PhaseBuilding, watch.PhaseRecovering:
		icon = m.spin.View()
	case watch.PhaseDebouncing:
		icon = iconWorking
	}
	line := fmt.Sprintf("%s galley · %s · %d files · %s", icon, m.Document, m.Files, m.phase)
	return styleStatusBar.Width(max(m.width, len(line)+2)).Render(line)
}

func (m Model) sessionLines() string {
	if len(m.sessions) == 0 {
		return styleMuted.Render("  no builds yet")
	}
	var lines []string
	for _, row := range m.sessions {
		lines = append(lines, renderSession(row))
	}
	return strings.Join(lines, "\n")
}

func renderSession(row sessionRow) string {
	r := row.result
	var icon, label string
	switch r.Outcome {
	case watch.OutcomeOK:
		icon = styleOK.Render(iconDone)
		label = styleOK.Render("ok")
	case watch.OutcomeRecovered:
		icon = styleRecovered.Render(iconDone)
		label = styleRecovered.Render("recovered")
	default:
		icon = styleFailed.Render(iconFailed)
		label = styleFailed.Render(string(r.Outcome))
	}
	stamp := styleMuted.Render(row.at.Format("15:04:05"))
	return fmt.Sprintf("  %s %s %s %s %s",
		icon, stamp, label, r.Trigger,
		styleMuted.Render(ui.FormatDuration(time.Duration(r.DurationMs)*time.Millisecond)))
}
