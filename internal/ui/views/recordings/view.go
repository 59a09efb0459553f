package recordings

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	archivedto "callrec/internal/modules/archive/dto"
	"callrec/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type RecordingsPort interface {
	List(ctx context.Context) ([]archivedto.RecordingOutput, error)
	Delete(ctx context.Context, filePath string) (archivedto.DeleteOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Recordings []archivedto.RecordingOutput
	Err        error
}

type DeletedMsg struct {
	FilePath string
	Deleted  bool
	Err      error
}

// ─── list item ───────────────────────────────────────────────────────────────

type recordingItem struct {
	rec archivedto.RecordingOutput
}

func (i recordingItem) Title() string {
	if i.rec.PhoneNumber != "" {
		return i.rec.PhoneNumber
	}
	return i.rec.FileName
}

func (i recordingItem) Description() string {
	desc := i.rec.LastModified.Format("2006-01-02 15:04") + "  " + humanSize(i.rec.FileSize)
	if i.rec.DurationSeconds > 0 {
		desc += "  " + formatDuration(i.rec.DurationSeconds)
	}
	return desc
}

func (i recordingItem) FilterValue() string { return i.rec.FileName + " " + i.rec.PhoneNumber }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    RecordingsPort
	list    list.Model
	preview viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port RecordingsPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Recordings"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		preview: vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Recordings: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Recordings"
		items := make([]list.Item, len(msg.Recordings))
		for i, r := range msg.Recordings {
			items[i] = recordingItem{rec: r}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.preview.SetContent(m.renderDetail())

	case DeletedMsg:
		if msg.Err == nil && msg.Deleted {
			cmds = append(cmds, m.Reload())
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var lCmd tea.Cmd
		prevIdx := m.list.Index()
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.preview.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading recordings…")
	}

	listW := m.width * 5 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Reload fetches the merged listing again.
func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		recs, err := m.port.List(context.Background())
		return LoadedMsg{Recordings: recs, Err: err}
	}
}

// DeleteSelected removes the highlighted file. It returns nil when nothing
// is selected.
func (m Model) DeleteSelected() tea.Cmd {
	path, ok := m.SelectedPath()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		out, err := m.port.Delete(context.Background(), path)
		return DeletedMsg{FilePath: path, Deleted: out.Deleted, Err: err}
	}
}

func (m Model) SelectedPath() (string, bool) {
	if item, ok := m.list.SelectedItem().(recordingItem); ok {
		return item.rec.FilePath, true
	}
	return "", false
}

// Filtering reports whether the list's search filter is currently active.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width * 5 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) renderDetail() string {
	item, ok := m.list.SelectedItem().(recordingItem)
	if !ok {
		return theme.Muted.Render("No recordings yet")
	}
	r := item.rec
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(r.FileName) + "\n\n")
	sb.WriteString(theme.Muted.Render("path:     ") + r.FilePath + "\n")
	sb.WriteString(theme.Muted.Render("size:     ") + humanSize(r.FileSize) + "\n")
	sb.WriteString(theme.Muted.Render("modified: ") + r.LastModified.Format("2006-01-02 15:04:05") + "\n")
	if r.PhoneNumber != "" {
		sb.WriteString(theme.Muted.Render("number:   ") + r.PhoneNumber + "\n")
	}
	if r.CallType != "" {
		sb.WriteString(theme.Muted.Render("call:     ") + r.CallType + "\n")
	}
	if r.DurationSeconds > 0 {
		sb.WriteString(theme.Muted.Render("duration: ") + formatDuration(r.DurationSeconds) + "\n")
	}
	if r.AudioSource != "" {
		sb.WriteString(theme.Muted.Render("source:   ") + r.AudioSource + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("d: delete  r: refresh  /: filter"))
	return sb.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
