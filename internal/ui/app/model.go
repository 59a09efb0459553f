package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	archivedto "callrec/internal/modules/archive/dto"
	hostdto "callrec/internal/modules/host/dto"
	settingsdto "callrec/internal/modules/settings/dto"
	apperrors "callrec/internal/platform/errors"
	"callrec/internal/ui/components"
	"callrec/internal/ui/theme"
	daemonview "callrec/internal/ui/views/daemon"
	recordingsview "callrec/internal/ui/views/recordings"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type archivePort interface {
	List(ctx context.Context) ([]archivedto.RecordingOutput, error)
	Delete(ctx context.Context, filePath string) (archivedto.DeleteOutput, error)
}

type settingsPort interface {
	AutoRecord(ctx context.Context) (bool, error)
	SetAutoRecord(ctx context.Context, enabled bool) (settingsdto.AutoRecordOutput, error)
}

type hostPort interface {
	DaemonStatus(ctx context.Context) (hostdto.DaemonStatusOutput, error)
	WatchEvents(ctx context.Context, fn func(hostdto.Event)) error
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabRecordings tabID = iota
	tabDaemon
	tabCount
)

var tabLabels = [tabCount]string{"Recordings", "Daemon"}

// ─── async messages ──────────────────────────────────────────────────────────

type autoRecordMsg struct {
	enabled bool
	err     error
}

// eventsClosedMsg ends the event subscription; err is nil on a clean close.
type eventsClosedMsg struct{ err error }

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Refresh key.Binding
	Delete  key.Binding
	Auto    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete recording")),
		Auto:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "toggle auto-record")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh},
		{k.Delete, k.Auto},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. Deletion asks for a y/n confirmation
// before it reaches the archive.
type Model struct {
	dataPath string

	settings settingsPort
	host     hostPort
	events   chan hostdto.Event
	ctx      context.Context
	stop     context.CancelFunc

	recView    recordingsview.Model
	daemonView daemonview.Model

	activeTab  tabID
	keys       keyMap
	help       help.Model
	showHelp   bool
	palette    components.Palette
	confirm    string
	autoRecord bool
	status     string
	width      int
	height     int
}

func NewModel(dataPath string, archive archivePort, settings settingsPort, host hostPort) Model {
	ctx, stop := context.WithCancel(context.Background())
	var daemonV daemonview.Model
	if host != nil {
		daemonV = daemonview.New(host)
	} else {
		daemonV = daemonview.New(nil)
	}
	return Model{
		dataPath:   dataPath,
		settings:   settings,
		host:       host,
		events:     make(chan hostdto.Event, 16),
		ctx:        ctx,
		stop:       stop,
		recView:    recordingsview.New(archive),
		daemonView: daemonV,
		activeTab:  tabRecordings,
		keys:       defaultKeys(),
		help:       help.New(),
		palette:    components.NewPalette(),
		status:     "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.recView.Init(),
		m.daemonView.Init(),
		m.loadAutoRecordCmd(),
		m.watchEventsCmd(),
		m.nextEventCmd(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case autoRecordMsg:
		if msg.err != nil {
			m.status = "auto-record: " + msg.err.Error()
		} else {
			m.autoRecord = msg.enabled
		}

	case recordingsview.DeletedMsg:
		switch {
		case msg.Err != nil:
			m.status = "delete failed: " + msg.Err.Error()
		case msg.Deleted:
			m.status = "deleted " + msg.FilePath
		default:
			m.status = "already gone: " + msg.FilePath
		}

	case daemonview.EventMsg:
		m.status = fmt.Sprintf("recorded %s call with %s", msg.Event.CallType, msg.Event.PhoneNumber)
		var cmd tea.Cmd
		m.daemonView, cmd = m.daemonView.Update(msg)
		return m, tea.Batch(cmd, m.recView.Reload(), m.nextEventCmd())

	case eventsClosedMsg:
		if msg.err != nil && !errors.Is(msg.err, apperrors.ErrDaemonNotRunning) {
			m.status = "events: " + msg.err.Error()
		}
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.confirm != "" {
			path := m.confirm
			m.confirm = ""
			if msg.String() == "y" {
				m.status = "deleting " + path
				return m, m.recView.DeleteSelected()
			}
			m.status = "delete cancelled"
			return m, nil
		}
		if m.activeTab == tabRecordings && m.recView.Filtering() {
			break
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case msg.String() == "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil
		case key.Matches(msg, m.keys.Palette):
			return m, m.palette.Open(m.paletteContext())
		case key.Matches(msg, m.keys.Refresh):
			return m, tea.Batch(m.recView.Reload(), m.daemonView.Refresh())
		case key.Matches(msg, m.keys.Auto):
			return m, m.setAutoRecordCmd(!m.autoRecord)
		case key.Matches(msg, m.keys.Delete):
			if m.activeTab == tabRecordings {
				if path, ok := m.recView.SelectedPath(); ok {
					m.confirm = path
					m.status = "delete " + path + "? (y/n)"
				}
			}
			return m, nil
		}
	}

	var tabCmd tea.Cmd
	switch msg.(type) {
	case daemonview.StatusMsg:
		m.daemonView, tabCmd = m.daemonView.Update(msg)
		return m, tabCmd
	case recordingsview.LoadedMsg, recordingsview.DeletedMsg:
		m.recView, tabCmd = m.recView.Update(msg)
		return m, tabCmd
	}
	switch m.activeTab {
	case tabRecordings:
		m.recView, tabCmd = m.recView.Update(msg)
	case tabDaemon:
		m.daemonView, tabCmd = m.daemonView.Update(msg)
	}
	cmds = append(cmds, tabCmd)
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabDaemon:
		content = m.daemonView.View()
	default:
		content = m.recView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "callrec  " + strings.Join(parts, theme.Muted.Render(" │ ")) + "  " + theme.Muted.Render(m.dataPath)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	auto := theme.Muted.Render("auto-record off")
	if m.autoRecord {
		auto = theme.Live.Render("● auto-record")
	}
	left := auto + "  " + m.status
	right := theme.Muted.Render("?:help  tab:switch  ::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	switch strings.TrimSpace(input) {
	case "":
		return m, nil
	case "recordings:refresh":
		m.activeTab = tabRecordings
		return m, m.recView.Reload()
	case "recordings:delete":
		path, ok := m.recView.SelectedPath()
		if !ok {
			m.status = "no recording selected"
			return m, nil
		}
		m.confirm = path
		m.status = "delete " + path + "? (y/n)"
		return m, nil
	case "auto-record:on":
		return m, m.setAutoRecordCmd(true)
	case "auto-record:off":
		return m, m.setAutoRecordCmd(false)
	case "daemon:refresh":
		m.activeTab = tabDaemon
		return m, m.daemonView.Refresh()
	default:
		m.status = "unknown command: " + strings.Fields(input)[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) paletteContext() components.PaletteContext {
	selected, _ := m.recView.SelectedPath()
	return components.PaletteContext{
		Selected:      selected,
		AutoRecord:    m.autoRecord,
		DaemonRunning: m.daemonView.Running(),
	}
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.recView, _ = m.recView.Update(sz)
	m.daemonView, _ = m.daemonView.Update(sz)
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) loadAutoRecordCmd() tea.Cmd {
	if m.settings == nil {
		return nil
	}
	return func() tea.Msg {
		enabled, err := m.settings.AutoRecord(context.Background())
		return autoRecordMsg{enabled: enabled, err: err}
	}
}

func (m Model) setAutoRecordCmd(enabled bool) tea.Cmd {
	if m.settings == nil {
		return nil
	}
	return func() tea.Msg {
		out, err := m.settings.SetAutoRecord(context.Background(), enabled)
		return autoRecordMsg{enabled: out.Enabled, err: err}
	}
}

// watchEventsCmd streams completion events from the daemon into m.events
// until the stream ends. A daemon that is not running closes it at once.
func (m Model) watchEventsCmd() tea.Cmd {
	if m.host == nil {
		return nil
	}
	ctx, host, events := m.ctx, m.host, m.events
	return func() tea.Msg {
		err := host.WatchEvents(ctx, func(e hostdto.Event) {
			select {
			case events <- e:
			case <-ctx.Done():
			}
		})
		if ctx.Err() != nil {
			err = nil
		}
		return eventsClosedMsg{err: err}
	}
}

func (m Model) nextEventCmd() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return daemonview.EventMsg{Event: <-events}
	}
}
