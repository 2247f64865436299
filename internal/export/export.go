// Package export renders a stats set as a downloadable report.
package export

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
	"github.com/chmdznr/gnome-l10n-sync/pkg/version"
)

// Header is the column row shared by every format
var Header = []string{"Module", "Branch", "Domain", "State", "Translated", "Fuzzy", "Untranslated", "Total", "Percent", "Vertimus URL"}

// Report is what gets exported
type Report struct {
	Release  string
	Language string
	SiteBase string // used for the Vertimus links
	Entries  []models.ModuleStat
}

// Exporter renders a report in one format
type Exporter interface {
	Format() string
	ContentType() string
	Export(r Report) ([]byte, error)
}

// Registry maps format names to exporters
type Registry struct{ byFormat map[string]Exporter }

// NewRegistry returns an empty registry
func NewRegistry() *Registry { return &Registry{byFormat: map[string]Exporter{}} }

// Default returns a registry with the csv and xlsx exporters
func Default() *Registry {
	r := NewRegistry()
	r.Register(NewCSV())
	r.Register(NewXLSX())
	return r
}

func (r *Registry) Register(e Exporter) { r.byFormat[e.Format()] = e }

func (r *Registry) Get(format string) (Exporter, bool) { e, ok := r.byFormat[format]; return e, ok }

// Formats returns the registered format names, sorted
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// DefaultFileName is gnome-l10n-<release>-<language>.<format>
func DefaultFileName(release, language, format string) string {
	return fmt.Sprintf("gnome-l10n-%s-%s.%s", release, language, format)
}

// Footer names the tool that produced the report
func Footer() string {
	return "GNOME L10n v" + version.Version
}

func row(m models.ModuleStat, site string) []string {
	return []string{
		m.Module,
		m.Branch,
		m.Domain,
		m.State,
		strconv.Itoa(m.Translated),
		strconv.Itoa(m.Fuzzy),
		strconv.Itoa(m.Untranslated),
		strconv.Itoa(m.Total()),
		strconv.FormatFloat(m.Pct(), 'f', 1, 64),
		m.VertimusURL(site),
	}
}
