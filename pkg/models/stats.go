package models

// Summary represents aggregate statistics over a full result set
type Summary struct {
	ModuleCount       int     `json:"module_count"`
	CompleteCount     int     `json:"complete_count"`
	TotalTranslated   int     `json:"total_translated"`
	TotalFuzzy        int     `json:"total_fuzzy"`
	TotalUntranslated int     `json:"total_untranslated"`
	OverallPct        float64 `json:"overall_pct"`
	Shown             int     `json:"shown"` // entries left after filtering
}

// TotalStrings returns the sum of all three counters
func (s Summary) TotalStrings() int {
	return s.TotalTranslated + s.TotalFuzzy + s.TotalUntranslated
}
