package components

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"callrec/internal/ui/theme"
)

const maxHints = 4

// PaletteSubmitMsg is emitted when the user confirms a command.
type PaletteSubmitMsg struct{ Input string }

// PaletteCancelMsg is emitted when the user presses esc.
type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Lavender).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// PaletteContext is the state the hints are computed from. The root model
// refreshes it every time the palette opens.
type PaletteContext struct {
	Selected      string
	AutoRecord    bool
	DaemonRunning bool
}

// PaletteHint is one suggested command. Detail is shown dimmed after it.
type PaletteHint struct {
	Command string
	Detail  string
}

// Hints lists the commands that make sense for ctx. Names must stay in sync
// with the switch in app/model.go executePalette.
func Hints(ctx PaletteContext) []PaletteHint {
	hints := []PaletteHint{{Command: "recordings:refresh", Detail: "rescan recording folders"}}
	if ctx.Selected != "" {
		hints = append(hints, PaletteHint{Command: "recordings:delete", Detail: filepath.Base(ctx.Selected)})
	}
	if ctx.AutoRecord {
		hints = append(hints, PaletteHint{Command: "auto-record:off", Detail: "currently on"})
	} else {
		hints = append(hints, PaletteHint{Command: "auto-record:on", Detail: "currently off"})
	}
	detail := "daemon stopped"
	if ctx.DaemonRunning {
		detail = "daemon running"
	}
	return append(hints, PaletteHint{Command: "daemon:refresh", Detail: detail})
}

// Palette is a command-palette overlay backed by bubbles/textinput.
type Palette struct {
	input   textinput.Model
	ctx     PaletteContext
	visible bool
	width   int
}

// NewPalette creates an inactive Palette ready to be opened.
func NewPalette() Palette {
	ti := textinput.New()
	ti.Placeholder = "type a command…"
	ti.CharLimit = 256
	return Palette{input: ti}
}

// Visible reports whether the palette is currently shown.
func (p Palette) Visible() bool { return p.visible }

// Open shows the palette for ctx, clears the input, and returns the focus
// command.
func (p *Palette) Open(ctx PaletteContext) tea.Cmd {
	p.ctx = ctx
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

// SetWidth sets the render width for the overlay.
func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteCancelMsg{} }
		case "tab":
			if m := p.matching(); len(m) > 0 {
				p.input.SetValue(m[0].Command)
				p.input.CursorEnd()
			}
			return p, nil
		case "enter":
			val := strings.TrimSpace(p.input.Value())
			p.visible = false
			p.input.Blur()
			return p, func() tea.Msg { return PaletteSubmitMsg{Input: val} }
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	matching := p.matching()
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command Palette") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if len(matching) > 0 {
		sb.WriteString("\n")
		for _, h := range matching {
			sb.WriteString("  " + h.Command + "  " + hintStyle.Render(h.Detail) + "\n")
		}
	}

	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}

func (p Palette) matching() []PaletteHint {
	prefix := strings.ToLower(strings.TrimSpace(p.input.Value()))
	var out []PaletteHint
	for _, h := range Hints(p.ctx) {
		if strings.HasPrefix(h.Command, prefix) {
			out = append(out, h)
			if len(out) == maxHints {
				break
			}
		}
	}
	return out
}
