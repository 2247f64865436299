package export

import (
	"bytes"
	"encoding/csv"
)

// CSV writes the header, one row per entry, a blank row and the footer
type CSV struct{}

func NewCSV() *CSV { return &CSV{} }

func (e *CSV) Format() string { return "csv" }

func (e *CSV) ContentType() string { return "text/csv" }

func (e *CSV) Export(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(Header)
	for _, m := range r.Entries {
		_ = w.Write(row(m, r.SiteBase))
	}
	_ = w.Write([]string{""})
	_ = w.Write([]string{Footer()})
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
