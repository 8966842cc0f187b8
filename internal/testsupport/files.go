package testsupport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"m4dsync/internal/config"
)

// SheetRow is one data row of a site sheet fixture.
type SheetRow struct {
	Site     string
	City     string
	Reseller string
	ISP      string
	Sector   string
}

// SheetHeader returns the default column headers in fixture order.
func SheetHeader() []string {
	sheet := config.Default().Sheet
	return []string{sheet.SiteColumn, sheet.CityColumn, sheet.ResellerColumn, sheet.ISPColumn, sheet.SectorColumn}
}

// SheetCSV renders rows as CSV text under the default header.
func SheetCSV(t testing.TB, rows []SheetRow) string {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(SheetHeader()); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Site, row.City, row.Reseller, row.ISP, row.Sector}); err != nil {
			t.Fatalf("write row: %v", err)
		}
	}
	w.Flush()
	return buf.String()
}

// WriteSheet writes rows as a UTF-8 site sheet with a byte order mark.
func WriteSheet(t testing.TB, path string, rows []SheetRow) {
	t.Helper()
	writeBytes(t, path, append([]byte("\ufeff"), SheetCSV(t, rows)...))
}

// WriteSheetWindows1255 writes rows encoded as Windows-1255.
func WriteSheetWindows1255(t testing.TB, path string, rows []SheetRow) {
	t.Helper()
	encoded, err := charmap.Windows1255.NewEncoder().String(SheetCSV(t, rows))
	if err != nil {
		t.Fatalf("encode windows-1255: %v", err)
	}
	writeBytes(t, path, []byte(encoded))
}

// Dictionaries is the JSON document shape read by the dictionary store.
type Dictionaries struct {
	Cities    map[string]string `json:"cities_dictionary"`
	Resellers map[string]string `json:"reseller_dictionary"`
	ISPs      map[string]string `json:"ISP_dictionary"`
	Sectors   map[string]string `json:"sector_dictionary"`
}

// WriteDictionaries marshals doc to path.
func WriteDictionaries(t testing.TB, path string, doc Dictionaries) {
	t.Helper()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal dictionaries: %v", err)
	}
	writeBytes(t, path, data)
}

// WriteFixtures writes the sheet and dictionaries referenced by cfg.
func WriteFixtures(t testing.TB, cfg *config.Config, rows []SheetRow, doc Dictionaries) {
	t.Helper()
	WriteSheet(t, cfg.Paths.SiteSheet, rows)
	WriteDictionaries(t, cfg.Paths.Dictionaries, doc)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	writeBytes(t, path, []byte(content))
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
