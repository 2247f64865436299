package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/chmdznr/gnome-l10n-sync/pkg/models"
)

func testReport() Report {
	return Report{
		Release:  "gnome-49",
		Language: "sv",
		SiteBase: "https://l10n.gnome.org",
		Entries: []models.ModuleStat{
			{Module: "gnome-shell", Branch: "main", Domain: "po", Language: "sv", Translated: 2, Fuzzy: 1, Untranslated: 0, State: "Translating"},
			{Module: "empty", Branch: "gnome-49", Domain: "help", Language: "sv"},
		},
	}
}

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{"csv", "gnome-l10n-gnome-49-sv.csv"},
		{"xlsx", "gnome-l10n-gnome-49-sv.xlsx"},
	}
	for _, tt := range tests {
		if got := DefaultFileName("gnome-49", "sv", tt.format); got != tt.expected {
			t.Errorf("DefaultFileName(%q) = %q; want %q", tt.format, got, tt.expected)
		}
	}
}

func TestCSVExport(t *testing.T) {
	b, err := NewCSV().Export(testReport())
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("exported CSV does not parse: %v", err)
	}

	want := [][]string{
		Header,
		{"gnome-shell", "main", "po", "Translating", "2", "1", "0", "3", "66.7", "https://l10n.gnome.org/vertimus/gnome-shell/main/po/sv/"},
		{"empty", "gnome-49", "help", "", "0", "0", "0", "0", "0.0", "https://l10n.gnome.org/vertimus/empty/gnome-49/help/sv/"},
		{Footer()},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("CSV records = %q; want %q", records, want)
	}
	// the reader drops blank lines, so check the separator row on the raw bytes
	if !bytes.Contains(b, []byte("\n\n"+Footer())) {
		t.Errorf("no blank row before footer in %q", b)
	}
}

func TestXLSXExport(t *testing.T) {
	report := testReport()
	b, err := NewXLSX().Export(report)
	if err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("exported XLSX does not open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName(report))
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(rows) < 4 {
		t.Fatalf("len(rows) = %d; want at least 4", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Errorf("header = %q; want %q", rows[0], Header)
	}
	if rows[1][0] != "gnome-shell" || rows[1][7] != "3" || rows[1][8] != "66.7" {
		t.Errorf("first row = %q", rows[1])
	}
	if last := rows[len(rows)-1]; len(last) == 0 || last[0] != Footer() {
		t.Errorf("footer = %q; want %q", last, Footer())
	}
}

func TestRegistry(t *testing.T) {
	r := Default()
	if got, want := r.Formats(), []string{"csv", "xlsx"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Formats() = %v; want %v", got, want)
	}
	if _, ok := r.Get("pdf"); ok {
		t.Error("Get(pdf) found an exporter")
	}
	if e, ok := r.Get("csv"); !ok || e.ContentType() != "text/csv" {
		t.Errorf("Get(csv) = %v, %v", e, ok)
	}
}
