package audit

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"m4dsync/internal/fileutil"
	"m4dsync/internal/textutil"
)

const reportTimeLayout = "20060102_150405"

// ReportColumns is the header row of the validation report.
var ReportColumns = []string{
	"Player ID",
	"Player Identifier",
	"Site Number",
	"City Status",
	"Reseller Status",
	"Sector Status",
	"Error Message",
}

// FieldChange tracks one validated attribute.
type FieldChange struct {
	Original string
	New      string
	Changed  bool
}

// Status describes the change for the report, for example
// "city changed from X to Y" or "city is valid (X)".
func (c FieldChange) Status(label string) string {
	original := textutil.OrPlaceholder(c.Original)
	if c.Changed {
		return fmt.Sprintf("%s changed from %s to %s", label, original, textutil.OrPlaceholder(c.New))
	}
	return fmt.Sprintf("%s is valid (%s)", label, original)
}

// ReportRow is one player in the validation report.
type ReportRow struct {
	PlayerID   int64
	Identifier string
	SiteNumber string
	City       FieldChange
	Reseller   FieldChange
	Sector     FieldChange
	Error      string
}

func (r ReportRow) record() []string {
	id := ""
	if r.PlayerID != 0 {
		id = strconv.FormatInt(r.PlayerID, 10)
	}
	return []string{
		id,
		r.Identifier,
		r.SiteNumber,
		r.City.Status("city"),
		r.Reseller.Status("reseller"),
		r.Sector.Status("sector"),
		r.Error,
	}
}

// ReportSummary holds the preamble counts.
type ReportSummary struct {
	Generated    time.Time
	TotalPlayers int
	Checked      int
}

// ReportPath returns the timestamped report location inside dir.
func ReportPath(dir string, now time.Time) string {
	return filepath.Join(dir, "player_validation_results_"+now.Format(reportTimeLayout)+".csv")
}

// WriteReport writes the validation report: a UTF-8 BOM, a human preamble,
// a divider, then CSV rows for the given players.
func WriteReport(path string, summary ReportSummary, rows []ReportRow) error {
	return fileutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		divider := strings.Repeat("=", 100)
		preamble := []string{
			"\ufeffPlayer Validation Results Report",
			"Generated: " + summary.Generated.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("Total players in system: %d", summary.TotalPlayers),
			fmt.Sprintf("Players checked in this run: %d", summary.Checked),
			fmt.Sprintf("Players in this CSV (with errors or updates): %d", len(rows)),
			"",
			"IMPORTANT NOTES:",
			"- This CSV contains ONLY players with ERRORS or UPDATES",
			"- Players that were OK (no changes needed) are NOT included",
			"- Players not checked remain completely untouched in the system",
			"- This run does NOT delete any players - it only updates data",
			"",
			divider,
			"DATA STARTS BELOW",
			divider,
			"",
		}
		for _, line := range preamble {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return err
			}
		}

		writer := csv.NewWriter(w)
		if err := writer.Write(ReportColumns); err != nil {
			return err
		}
		for _, row := range rows {
			if err := writer.Write(row.record()); err != nil {
				return err
			}
		}
		writer.Flush()
		return writer.Error()
	})
}
