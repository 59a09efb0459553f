package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func commands(hints []PaletteHint) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		out = append(out, h.Command)
	}
	return out
}

func TestHintsFollowSelectionAndAutoRecord(t *testing.T) {
	t.Parallel()
	hints := Hints(PaletteContext{AutoRecord: true})
	got := commands(hints)
	want := []string{"recordings:refresh", "auto-record:off", "daemon:refresh"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	hints = Hints(PaletteContext{Selected: "/data/callrecording/call_+1_20260314_090005.m4a"})
	if hints[1].Command != "recordings:delete" || hints[1].Detail != "call_+1_20260314_090005.m4a" {
		t.Fatalf("expected delete hint naming the selected file, got %+v", hints[1])
	}
	if hints[2].Command != "auto-record:on" {
		t.Fatalf("expected auto-record:on while disabled, got %+v", hints[2])
	}
}

func TestPaletteTabCompletesFirstMatch(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	p.Open(PaletteContext{Selected: "/rec/a.m4a"})
	for _, r := range "recordings:d" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	p, _ = p.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected submit command")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "recordings:delete" {
		t.Fatalf("expected completed delete command, got %#v", msg)
	}
}
