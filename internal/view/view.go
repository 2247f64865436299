// Package view derives the displayed entries and the summary from a stats set.
package view

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
	"github.com/chmdznr/gnome-l10n-sync/pkg/utils"
)

// Filter selects which entries are shown
type Filter string

const (
	FilterAll             Filter = "all"
	FilterIncomplete      Filter = "incomplete"
	FilterComplete        Filter = "complete"
	FilterFuzzy           Filter = "fuzzy"
	FilterStateTranslated Filter = "state_translated"
)

// Filters lists every filter in presentation order
var Filters = []Filter{FilterAll, FilterIncomplete, FilterComplete, FilterFuzzy, FilterStateTranslated}

// SortKey orders the shown entries
type SortKey string

const (
	SortPctAsc      SortKey = "pct_asc"
	SortPctDesc     SortKey = "pct_desc"
	SortNameAsc     SortKey = "name_asc"
	SortNameDesc    SortKey = "name_desc"
	SortUntransDesc SortKey = "untrans_desc"
	SortFuzzyDesc   SortKey = "fuzzy_desc"
	SortTotalDesc   SortKey = "total_desc"
	SortState       SortKey = "state"
)

// SortKeys lists every sort key in presentation order
var SortKeys = []SortKey{SortPctAsc, SortPctDesc, SortNameAsc, SortNameDesc, SortUntransDesc, SortFuzzyDesc, SortTotalDesc, SortState}

// ParseFilter validates a filter name; "" means all
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

// ParseSort validates a sort key name; "" means pct_asc
func ParseSort(s string) (SortKey, error) {
	if s == "" {
		return SortPctAsc, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Query describes what to show
type Query struct {
	Filter Filter
	Text   string // case-insensitive substring of the module name
	Sort   SortKey
}

// View is the derived, ordered display sequence plus the summary of the full set
type View struct {
	Entries []models.ModuleStat
	Summary models.Summary
}

// Compute applies q to stats. stats is not modified.
func Compute(stats []models.ModuleStat, q Query) View {
	fold := cases.Fold()
	text := fold.String(strings.TrimSpace(q.Text))

	shown := make([]models.ModuleStat, 0, len(stats))
	for _, m := range stats {
		if !keep(m, q.Filter) {
			continue
		}
		if text != "" && !strings.Contains(fold.String(m.Module), text) {
			continue
		}
		shown = append(shown, m)
	}
	Sort(shown, q.Sort)

	sum := Summarize(stats)
	sum.Shown = len(shown)
	return View{Entries: shown, Summary: sum}
}

func keep(m models.ModuleStat, f Filter) bool {
	switch f {
	case FilterIncomplete:
		return !m.Complete()
	case FilterComplete:
		return m.Complete()
	case FilterFuzzy:
		return m.Fuzzy > 0
	case FilterStateTranslated:
		return strings.EqualFold(m.State, "translated")
	default:
		return true
	}
}

// Sort orders entries in place by key. Ties keep their original order.
func Sort(entries []models.ModuleStat, key SortKey) {
	fold := cases.Fold()
	var less func(a, b models.ModuleStat) bool
	switch key {
	case SortPctDesc:
		less = func(a, b models.ModuleStat) bool { return a.Pct() > b.Pct() }
	case SortNameAsc:
		less = func(a, b models.ModuleStat) bool { return fold.String(a.Module) < fold.String(b.Module) }
	case SortNameDesc:
		less = func(a, b models.ModuleStat) bool { return fold.String(a.Module) > fold.String(b.Module) }
	case SortUntransDesc:
		less = func(a, b models.ModuleStat) bool { return a.Untranslated > b.Untranslated }
	case SortFuzzyDesc:
		less = func(a, b models.ModuleStat) bool { return a.Fuzzy > b.Fuzzy }
	case SortTotalDesc:
		less = func(a, b models.ModuleStat) bool { return a.Total() > b.Total() }
	case SortState:
		less = func(a, b models.ModuleStat) bool {
			// empty states go last
			switch {
			case a.State == "":
				return false
			case b.State == "":
				return true
			}
			return fold.String(a.State) < fold.String(b.State)
		}
	default:
		less = func(a, b models.ModuleStat) bool { return a.Pct() < b.Pct() }
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}

// Summarize aggregates the whole set
func Summarize(stats []models.ModuleStat) models.Summary {
	var s models.Summary
	s.ModuleCount = len(stats)
	for _, m := range stats {
		if m.Complete() {
			s.CompleteCount++
		}
		s.TotalTranslated += m.Translated
		s.TotalFuzzy += m.Fuzzy
		s.TotalUntranslated += m.Untranslated
	}
	if total := s.TotalStrings(); total > 0 {
		s.OverallPct = float64(s.TotalTranslated) / float64(total) * 100
	}
	s.Shown = len(stats)
	return s
}

// Next returns the filter after f, wrapping around
func (f Filter) Next() Filter {
	for i, v := range Filters {
		if v == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}

// Next returns the sort key after k, wrapping around
func (k SortKey) Next() SortKey {
	for i, v := range SortKeys {
		if v == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortPctAsc
}

// CountsLine is "<n> modules | <c> complete | <f> fuzzy | <u> untranslated"
func CountsLine(s models.Summary) string {
	return fmt.Sprintf("%d modules | %d complete | %d fuzzy | %d untranslated",
		s.ModuleCount, s.CompleteCount, s.TotalFuzzy, s.TotalUntranslated)
}

// PercentLine is "<pct>% (<translated>/<total>)"
func PercentLine(s models.Summary) string {
	return fmt.Sprintf("%s (%d/%d)", utils.FormatPercent(s.OverallPct), s.TotalTranslated, s.TotalStrings())
}
