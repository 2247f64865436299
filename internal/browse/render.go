package browse

import (
	"fmt"
	"io"
	"strings"

	"github.com/chmdznr/gnome-l10n-sync/internal/sync"
	"github.com/chmdznr/gnome-l10n-sync/internal/view"
	"github.com/chmdznr/gnome-l10n-sync/pkg/utils"
)

const clearScreen = "\033[H\033[2J"

// Frame is everything drawn on one screen
type Frame struct {
	Target  sync.Target
	View    view.View
	Model   *Model
	Loading *sync.Progress // nil when idle
	Status  string
}

// Render writes the frame. The terminal is in raw mode, so lines end in \r\n.
func Render(w io.Writer, f Frame) {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("%s / %s   filter: %s   sort: %s", f.Target.Release, f.Target.Language, f.Model.Query.Filter, f.Model.Query.Sort)
	query := f.Model.Query.Text
	if f.Model.Editing {
		query += "_"
	}
	line("search: %s", query)
	line("%s   %s   showing %d of %d",
		view.CountsLine(f.View.Summary), view.PercentLine(f.View.Summary), f.View.Summary.Shown, f.View.Summary.ModuleCount)
	line("")

	switch {
	case f.Loading != nil:
		line("loading %d/%d ...", f.Loading.Done, f.Loading.Total)
	case len(f.View.Entries) == 0:
		line("no modules")
	default:
		line("%-32s %-16s %-12s %7s %6s %6s %6s", "MODULE", "BRANCH", "STATE", "DONE", "TRANS", "FUZZY", "UNTR")
		end := f.Model.Offset + f.Model.PageSize
		if end > len(f.View.Entries) {
			end = len(f.View.Entries)
		}
		for _, m := range f.View.Entries[f.Model.Offset:end] {
			line("%-32s %-16s %-12s %7s %6d %6d %6d",
				truncate(m.Module, 32), truncate(m.Branch, 16), truncate(m.State, 12),
				utils.FormatPercent(m.Pct()), m.Translated, m.Fuzzy, m.Untranslated)
		}
	}

	line("")
	if f.Status != "" {
		line("%s", f.Status)
	}
	line("s sort  f filter  / search  r refresh  up/down scroll  q quit")

	io.WriteString(w, clearScreen+b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
