package export

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// XLSX writes the same table as CSV to a single worksheet
type XLSX struct{}

func NewXLSX() *XLSX { return &XLSX{} }

func (e *XLSX) Format() string { return "xlsx" }

func (e *XLSX) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// SheetName is the worksheet holding the report
func SheetName(r Report) string {
	name := r.Release + " " + r.Language
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func (e *XLSX) Export(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(r)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", bold); err != nil {
		return nil, err
	}

	for i, m := range r.Entries {
		pct, _ := strconv.ParseFloat(strconv.FormatFloat(m.Pct(), 'f', 1, 64), 64)
		values := []any{m.Module, m.Branch, m.Domain, m.State, m.Translated, m.Fuzzy, m.Untranslated, m.Total(), pct, m.VertimusURL(r.SiteBase)}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}
	footer := fmt.Sprintf("A%d", len(r.Entries)+3)
	if err := f.SetCellValue(sheet, footer, Footer()); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "J", "J", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
