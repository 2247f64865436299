package browse

import (
	"bytes"
	"strings"
	"testing"

	"github.com/eiannone/keyboard"

	"github.com/chmdznr/gnome-l10n-sync/internal/sync"
	"github.com/chmdznr/gnome-l10n-sync/internal/view"
	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

func TestHandleKeyCommands(t *testing.T) {
	tests := []struct {
		name   string
		ch     rune
		key    keyboard.Key
		action Action
		check  func(m *Model) bool
	}{
		{"sort cycles", 's', 0, ActionRedraw, func(m *Model) bool { return m.Query.Sort == view.SortPctDesc }},
		{"filter cycles", 'f', 0, ActionRedraw, func(m *Model) bool { return m.Query.Filter == view.FilterIncomplete }},
		{"slash edits", '/', 0, ActionRedraw, func(m *Model) bool { return m.Editing }},
		{"refresh", 'r', 0, ActionRefresh, func(m *Model) bool { return true }},
		{"q quits", 'q', 0, ActionQuit, func(m *Model) bool { return true }},
		{"esc quits", 0, keyboard.KeyEsc, ActionQuit, func(m *Model) bool { return true }},
		{"ctrl-c quits", 0, keyboard.KeyCtrlC, ActionQuit, func(m *Model) bool { return true }},
		{"unbound key", 'z', 0, ActionNone, func(m *Model) bool { return m.Query.Text == "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(10)
			if got := m.HandleKey(tt.ch, tt.key, 0); got != tt.action {
				t.Errorf("HandleKey(%q, %v) = %v; want %v", tt.ch, tt.key, got, tt.action)
			}
			if !tt.check(m) {
				t.Errorf("HandleKey(%q, %v) left model %+v", tt.ch, tt.key, m)
			}
		})
	}
}

func TestQueryEditing(t *testing.T) {
	m := NewModel(10)
	m.HandleKey('/', 0, 0)
	for _, ch := range "gtkx" {
		m.HandleKey(ch, 0, 0)
	}
	m.HandleKey(0, keyboard.KeyBackspace2, 0)
	m.HandleKey(0, keyboard.KeySpace, 0)
	if m.Query.Text != "gtk " {
		t.Errorf("Query.Text = %q; want %q", m.Query.Text, "gtk ")
	}
	// q and s are text while editing
	m.HandleKey('q', 0, 0)
	if m.Query.Text != "gtk q" || !m.Editing {
		t.Errorf("after q: text %q editing %v", m.Query.Text, m.Editing)
	}
	m.HandleKey(0, keyboard.KeyEnter, 0)
	if m.Editing {
		t.Error("Enter did not leave editing")
	}
	if got := m.HandleKey('q', 0, 0); got != ActionQuit {
		t.Errorf("q after editing = %v; want quit", got)
	}
}

func TestScrollBounds(t *testing.T) {
	m := NewModel(10)
	m.HandleKey(0, keyboard.KeyArrowUp, 25)
	if m.Offset != 0 {
		t.Errorf("Offset = %d after up at top; want 0", m.Offset)
	}
	m.HandleKey(0, keyboard.KeyPgdn, 25)
	m.HandleKey(0, keyboard.KeyPgdn, 25)
	if m.Offset != 15 {
		t.Errorf("Offset = %d after two page downs; want 15", m.Offset)
	}
	m.HandleKey(0, keyboard.KeyArrowDown, 25)
	if m.Offset != 15 {
		t.Errorf("Offset = %d past the end; want 15", m.Offset)
	}
	m.HandleKey('s', 0, 25)
	if m.Offset != 0 {
		t.Errorf("Offset = %d after sort change; want 0", m.Offset)
	}
	m.HandleKey(0, keyboard.KeyArrowDown, 3)
	if m.Offset != 0 {
		t.Errorf("Offset = %d with fewer entries than a page; want 0", m.Offset)
	}
}

func TestRender(t *testing.T) {
	stats := []models.ModuleStat{
		{Module: "gnome-shell", Branch: "main", State: "Translating", Translated: 5, Untranslated: 5},
		{Module: "nautilus", Branch: "main", Translated: 10},
	}
	m := NewModel(1)
	var buf bytes.Buffer
	Render(&buf, Frame{
		Target: sync.Target{Release: "gnome-49", Language: "sv"},
		View:   view.Compute(stats, m.Query),
		Model:  m,
		Status: "2 modules fetched",
	})
	out := buf.String()
	for _, want := range []string{"gnome-49 / sv", "2 modules | 1 complete", "75.0% (15/20)", "gnome-shell", "50.0%", "2 modules fetched"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "nautilus") {
		t.Errorf("Render() drew past the page size:\n%s", out)
	}
}

func TestRenderLoading(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, Frame{Model: NewModel(5), Loading: &sync.Progress{Done: 3, Total: 7}})
	if !strings.Contains(buf.String(), "loading 3/7") {
		t.Errorf("Render() = %q; want loading line", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in       string
		n        int
		expected string
	}{
		{"gtk", 5, "gtk"},
		{"gnome-control-center", 8, "gnome-c~"},
		{"åäöåäö", 4, "åäö~"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.n, got, tt.expected)
		}
	}
}
