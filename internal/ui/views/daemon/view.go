package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	hostdto "callrec/internal/modules/host/dto"
	"callrec/internal/ui/theme"
)

const maxEvents = 50

type DaemonPort interface {
	DaemonStatus(ctx context.Context) (hostdto.DaemonStatusOutput, error)
}

type StatusMsg struct {
	Status hostdto.DaemonStatusOutput
	Err    error
}

// EventMsg carries one completed recording announced by the daemon.
type EventMsg struct {
	Event hostdto.Event
}

type Model struct {
	port   DaemonPort
	status hostdto.DaemonStatusOutput
	err    error
	events []hostdto.Event
	log    viewport.Model
	width  int
	height int
}

func New(port DaemonPort) Model {
	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(0, 1)
	return Model{port: port, log: vp}
}

func (m Model) Init() tea.Cmd {
	return m.Refresh()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.log.Width = msg.Width - 4
		m.log.Height = max(msg.Height-10, 3)
	case StatusMsg:
		m.status, m.err = msg.Status, msg.Err
	case EventMsg:
		m.events = append([]hostdto.Event{msg.Event}, m.events...)
		if len(m.events) > maxEvents {
			m.events = m.events[:maxEvents]
		}
		m.log.SetContent(m.renderEvents())
	}
	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Daemon") + "\n\n")
	switch {
	case m.port == nil:
		sb.WriteString(theme.Muted.Render("daemon adapter not configured") + "\n")
	case m.err != nil:
		sb.WriteString(theme.Muted.Render("status: ") + m.err.Error() + "\n")
	default:
		state := theme.Muted.Render("stopped")
		if m.status.Running {
			state = theme.Hot.Render(fmt.Sprintf("running pid=%d", m.status.PID))
		}
		sb.WriteString(theme.Muted.Render("state:  ") + state + "\n")
		sb.WriteString(theme.Muted.Render("host:   ") + m.status.HostAddress + "\n")
		sb.WriteString(theme.Muted.Render("socket: ") + m.status.SignalSocket + "\n")
		if live := m.status.Live; live != nil {
			rec := "idle"
			if live.Recording {
				rec = "recording (" + live.AudioSource + ")"
			}
			sb.WriteString(theme.Muted.Render("call:   ") + rec + "\n")
			sb.WriteString(fmt.Sprintf("%s%t\n", theme.Muted.Render("auto:   "), live.AutoRecord))
		}
	}
	sb.WriteString("\n" + theme.Title.Render("Completed recordings") + "\n")
	pane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Render(m.log.View())
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(sb.String() + pane)
}

// Running reports the daemon state from the last status refresh.
func (m Model) Running() bool { return m.status.Running }

func (m Model) Refresh() tea.Cmd {
	if m.port == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		status, err := m.port.DaemonStatus(ctx)
		return StatusMsg{Status: status, Err: err}
	}
}

func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return theme.Muted.Render("waiting for calls…")
	}
	var sb strings.Builder
	for _, e := range m.events {
		at := time.UnixMilli(e.Timestamp).Format("15:04:05")
		fmt.Fprintf(&sb, "%s  %-8s %-16s %4ds  %s\n", at, e.CallType, e.PhoneNumber, e.Duration, e.AudioSource)
	}
	return sb.String()
}
