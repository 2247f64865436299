package models

import "testing"

func TestModuleStatDerived(t *testing.T) {
	tests := []struct {
		name     string
		stat     ModuleStat
		total    int
		pct      float64
		complete bool
	}{
		{
			name:     "no strings",
			stat:     ModuleStat{},
			total:    0,
			pct:      0.0,
			complete: false,
		},
		{
			name:     "fully translated",
			stat:     ModuleStat{Translated: 40},
			total:    40,
			pct:      100,
			complete: true,
		},
		{
			name:     "fuzzy only",
			stat:     ModuleStat{Translated: 3, Fuzzy: 1},
			total:    4,
			pct:      75,
			complete: false,
		},
		{
			name:     "untranslated only",
			stat:     ModuleStat{Untranslated: 5},
			total:    5,
			pct:      0,
			complete: false,
		},
		{
			name:     "mixed",
			stat:     ModuleStat{Translated: 1, Fuzzy: 1, Untranslated: 2},
			total:    4,
			pct:      25,
			complete: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stat.Total(); got != tt.total {
				t.Errorf("Total() = %d; want %d", got, tt.total)
			}
			if got := tt.stat.Pct(); got != tt.pct {
				t.Errorf("Pct() = %v; want %v", got, tt.pct)
			}
			if got := tt.stat.Complete(); got != tt.complete {
				t.Errorf("Complete() = %v; want %v", got, tt.complete)
			}
		})
	}
}

func TestModuleStatURLs(t *testing.T) {
	m := ModuleStat{
		Module:   "gnome-shell",
		Branch:   "main",
		Domain:   "po",
		Language: "sv",
		POFile:   "/POT/gnome-shell.main/gnome-shell.main.sv.po",
	}
	site := "https://l10n.gnome.org/"

	if got, want := m.VertimusURL(site), "https://l10n.gnome.org/vertimus/gnome-shell/main/po/sv/"; got != want {
		t.Errorf("VertimusURL() = %q; want %q", got, want)
	}
	if got, want := m.POURL(site), "https://l10n.gnome.org/POT/gnome-shell.main/gnome-shell.main.sv.po"; got != want {
		t.Errorf("POURL() = %q; want %q", got, want)
	}
	if got := m.POTURL(site); got != "" {
		t.Errorf("POTURL() = %q; want empty", got)
	}
}

func TestLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"sv", "Swedish"},
		{"pt_BR", "Portuguese (Brazil)"},
		{"tlh", "tlh"},
	}
	for _, tt := range tests {
		if got := LanguageName(tt.code); got != tt.expected {
			t.Errorf("LanguageName(%q) = %q; want %q", tt.code, got, tt.expected)
		}
	}
}
