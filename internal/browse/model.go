// Package browse is the interactive terminal view over a stats set.
package browse

import (
	"github.com/eiannone/keyboard"

	"github.com/chmdznr/gnome-l10n-sync/internal/view"
)

// Action tells the loop what to do after a key press
type Action int

const (
	ActionNone Action = iota
	ActionRedraw
	ActionRefresh
	ActionQuit
)

// Model is the browser's UI state
type Model struct {
	Query    view.Query
	Editing  bool // typing into the query
	Offset   int
	PageSize int
}

// NewModel starts with every entry shown, lowest completion first
func NewModel(pageSize int) *Model {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Model{
		Query:    view.Query{Filter: view.FilterAll, Sort: view.SortPctAsc},
		PageSize: pageSize,
	}
}

// HandleKey applies one key press. shown is the number of entries currently
// displayed and bounds scrolling.
func (m *Model) HandleKey(ch rune, key keyboard.Key, shown int) Action {
	if key == keyboard.KeyCtrlC {
		return ActionQuit
	}
	if m.Editing {
		return m.editKey(ch, key)
	}

	switch {
	case key == keyboard.KeyEsc, ch == 'q':
		return ActionQuit
	case ch == 's':
		m.Query.Sort = m.Query.Sort.Next()
		m.Offset = 0
	case ch == 'f':
		m.Query.Filter = m.Query.Filter.Next()
		m.Offset = 0
	case ch == '/':
		m.Editing = true
	case ch == 'r':
		m.Offset = 0
		return ActionRefresh
	case key == keyboard.KeyArrowDown, ch == 'j':
		m.scroll(1, shown)
	case key == keyboard.KeyArrowUp, ch == 'k':
		m.scroll(-1, shown)
	case key == keyboard.KeyPgdn, key == keyboard.KeySpace:
		m.scroll(m.PageSize, shown)
	case key == keyboard.KeyPgup:
		m.scroll(-m.PageSize, shown)
	default:
		return ActionNone
	}
	return ActionRedraw
}

func (m *Model) editKey(ch rune, key keyboard.Key) Action {
	switch key {
	case keyboard.KeyEnter, keyboard.KeyEsc:
		m.Editing = false
	case keyboard.KeyBackspace, keyboard.KeyBackspace2:
		if r := []rune(m.Query.Text); len(r) > 0 {
			m.Query.Text = string(r[:len(r)-1])
		}
	case keyboard.KeySpace:
		m.Query.Text += " "
	default:
		if ch == 0 {
			return ActionNone
		}
		m.Query.Text += string(ch)
	}
	m.Offset = 0
	return ActionRedraw
}

func (m *Model) scroll(delta, shown int) {
	m.Offset += delta
	if last := shown - m.PageSize; m.Offset > last {
		m.Offset = last
	}
	if m.Offset < 0 {
		m.Offset = 0
	}
}
