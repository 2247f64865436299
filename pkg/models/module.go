package models

import "strings"

// DefaultDomain is the catalog used when the service omits one.
const DefaultDomain = "po"

// ModuleStat represents translation statistics for one module/branch/domain/language
type ModuleStat struct {
	Module       string `json:"module"`
	Branch       string `json:"branch"`
	Domain       string `json:"domain"`
	Language     string `json:"language"`
	Translated   int    `json:"translated"`
	Fuzzy        int    `json:"fuzzy"`
	Untranslated int    `json:"untranslated"`
	State        string `json:"state"`
	POFile       string `json:"po_file"`
	POTFile      string `json:"pot_file"`
}

// Total returns the number of translatable strings
func (m ModuleStat) Total() int {
	return m.Translated + m.Fuzzy + m.Untranslated
}

// Pct returns the translated share in percent, 0 when the module has no strings
func (m ModuleStat) Pct() float64 {
	total := m.Total()
	if total == 0 {
		return 0.0
	}
	return float64(m.Translated) / float64(total) * 100
}

// Complete reports whether every string is translated and confirmed
func (m ModuleStat) Complete() bool {
	return m.Fuzzy == 0 && m.Untranslated == 0 && m.Total() > 0
}

// Valid reports whether all counts are non-negative
func (m ModuleStat) Valid() bool {
	return m.Translated >= 0 && m.Fuzzy >= 0 && m.Untranslated >= 0
}

// VertimusURL returns the review workflow page for the module on site
func (m ModuleStat) VertimusURL(site string) string {
	return strings.TrimRight(site, "/") + "/vertimus/" + m.Module + "/" + m.Branch + "/" + m.Domain + "/" + m.Language + "/"
}

// POURL returns the download URL of the translated catalog, or "" if there is none
func (m ModuleStat) POURL(site string) string {
	return resourceURL(site, m.POFile)
}

// POTURL returns the download URL of the template catalog, or "" if there is none
func (m ModuleStat) POTURL(site string) string {
	return resourceURL(site, m.POTFile)
}

func resourceURL(site, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(site, "/") + path
}
