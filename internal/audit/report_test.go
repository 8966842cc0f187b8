package audit_test

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"m4dsync/internal/audit"
	"m4dsync/internal/m4d"
)

func TestFieldChangeStatus(t *testing.T) {
	tests := []struct {
		name   string
		change audit.FieldChange
		want   string
	}{
		{"valid", audit.FieldChange{Original: "TLV"}, "city is valid (TLV)"},
		{"valid empty", audit.FieldChange{}, "city is valid ((empty))"},
		{"changed", audit.FieldChange{Original: "", New: "TLV", Changed: true}, "city changed from (empty) to TLV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.change.Status("city"); got != tt.want {
				t.Fatalf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReportPath(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 2, 0, time.Local)
	got := audit.ReportPath("/out", now)
	want := filepath.Join("/out", "player_validation_results_20240309_070502.csv")
	if got != want {
		t.Fatalf("ReportPath = %q, want %q", got, want)
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	summary := audit.ReportSummary{
		Generated:    time.Date(2024, 3, 9, 7, 5, 2, 0, time.Local),
		TotalPlayers: 40,
		Checked:      10,
	}
	rows := []audit.ReportRow{
		{
			PlayerID:   7,
			Identifier: "200010-LH-H",
			SiteNumber: "200010",
			City:       audit.FieldChange{Original: "X", New: "TLV", Changed: true},
			Reseller:   audit.FieldChange{Original: "ACME"},
			Sector:     audit.FieldChange{Original: "GENERAL"},
		},
		{
			PlayerID:   8,
			Identifier: "lobby",
			Error:      "Could not extract site number from identifier",
		},
	}
	if err := audit.WriteReport(path, summary, rows); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "\ufeffPlayer Validation Results Report\n") {
		t.Fatalf("missing BOM or title: %q", text[:40])
	}
	for _, line := range []string{
		"Generated: 2024-03-09 07:05:02",
		"Total players in system: 40",
		"Players checked in this run: 10",
		"Players in this CSV (with errors or updates): 2",
	} {
		if !strings.Contains(text, line+"\n") {
			t.Fatalf("report missing %q", line)
		}
	}

	marker := "DATA STARTS BELOW\n" + strings.Repeat("=", 100) + "\n\n"
	idx := strings.Index(text, marker)
	if idx < 0 {
		t.Fatalf("report missing data marker")
	}
	records, err := csv.NewReader(strings.NewReader(text[idx+len(marker):])).ReadAll()
	if err != nil {
		t.Fatalf("parse data: %v", err)
	}
	want := [][]string{
		audit.ReportColumns,
		{"7", "200010-LH-H", "200010", "city changed from X to TLV", "reseller is valid (ACME)", "sector is valid (GENERAL)", ""},
		{"8", "lobby", "", "city is valid ((empty))", "reseller is valid ((empty))", "sector is valid ((empty))", "Could not extract site number from identifier"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("records = %#v, want %#v", records, want)
	}
}

func TestMissingAttributes(t *testing.T) {
	complete := m4d.Player{
		ID:          1,
		Coordinates: m4d.Coordinates{City: "TLV"},
		Variables: []m4d.Variable{
			{Name: m4d.VarReseller, Value: "ACME"},
			{Name: m4d.VarISP, Value: "NET"},
			{Name: m4d.VarStreamingHotMuted, Value: "false"},
			{Name: m4d.VarStreamingTripleMuted, Value: "false"},
			{Name: m4d.VarStreamingVerticalHotMuted, Value: "true"},
			{Name: m4d.VarStreamingVerticalTripleMuted, Value: "false"},
		},
	}
	if got := audit.MissingAttributes(complete); got != nil {
		t.Fatalf("complete player reported missing %v", got)
	}

	partial := complete
	partial.Coordinates.City = " "
	partial.Variables = []m4d.Variable{
		{Name: m4d.VarReseller, Value: "ACME"},
		{Name: m4d.VarStreamingHotMuted, Value: ""},
		{Name: m4d.VarStreamingTripleMuted, Value: "false"},
		{Name: m4d.VarStreamingVerticalHotMuted, Value: "false"},
	}
	want := []string{
		audit.AttrCity,
		audit.AttrISP,
		m4d.VarStreamingHotMuted,
		m4d.VarStreamingVerticalTripleMuted,
	}
	if got := audit.MissingAttributes(partial); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingAttributes = %v, want %v", got, want)
	}
}
