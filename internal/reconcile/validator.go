package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"m4dsync/internal/audit"
	"m4dsync/internal/dictionary"
	"m4dsync/internal/journal"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/players"
	"m4dsync/internal/services"
	"m4dsync/internal/sitesheet"
)

// ErrNoPlayers reports an empty fleet.
var ErrNoPlayers = errors.New("no players found in the system")

// ValidationResult is the outcome for one player.
type ValidationResult struct {
	Row             audit.ReportRow
	CityInvalid     bool
	ResellerInvalid bool
	SectorInvalid   bool
	Updated         bool
}

// NeedsCorrection reports whether any field was invalid.
func (r ValidationResult) NeedsCorrection() bool {
	return r.CityInvalid || r.ResellerInvalid || r.SectorInvalid
}

// ValidateSummary reports a validation run.
type ValidateSummary struct {
	TotalPlayers    int
	Checked         int
	Corrected       int
	Errors          int
	InvalidCity     int
	InvalidReseller int
	InvalidSector   int
	Results         []ValidationResult
	ReportPath      string
}

// Validator checks the fleet's city, reseller and sector codes and corrects
// the invalid ones from the sheet.
type Validator struct {
	env    Env
	logger *slog.Logger
	now    func() time.Time
}

// NewValidator validates env and returns a Validator.
func NewValidator(env Env) (*Validator, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &Validator{env: env, logger: env.logger(), now: time.Now}, nil
}

// Run validates up to reconcile.validate_limit players (all when zero) and
// writes a report holding only the players that errored or were updated.
func (v *Validator) Run(ctx context.Context) (ValidateSummary, error) {
	ctx = services.WithDriver(ctx, DriverValidate)
	logger := logging.WithContext(ctx, v.logger)
	var summary ValidateSummary

	all, err := v.env.Directory.ListPlayers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list players: %w", err)
	}
	if len(all) == 0 {
		return summary, ErrNoPlayers
	}
	summary.TotalPlayers = len(all)
	if limit := v.env.Config.Reconcile.ValidateLimit; limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	logger.Info("validating players", logging.Int("total", summary.TotalPlayers), logging.Int("selected", len(all)))

	cityCodes := v.env.Dictionaries.ValidCodes(dictionary.City)
	resellerCodes := v.env.Dictionaries.ValidCodes(dictionary.Reseller)

	var runErr error
	for i, player := range all {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if (i+1)%10 == 0 {
			logger.Info("validation progress", logging.Int("processed", i+1), logging.Int("selected", len(all)))
		}
		result := v.validatePlayer(ctx, player, cityCodes, resellerCodes)
		summary.Results = append(summary.Results, result)
		summary.Checked++
		if result.Updated {
			summary.Corrected++
		}
		if result.Row.Error != "" {
			summary.Errors++
		}
		if result.CityInvalid {
			summary.InvalidCity++
		}
		if result.ResellerInvalid {
			summary.InvalidReseller++
		}
		if result.SectorInvalid {
			summary.InvalidSector++
		}
	}

	var rows []audit.ReportRow
	for _, result := range summary.Results {
		if result.Row.Error != "" || result.Updated {
			rows = append(rows, result.Row)
		}
	}
	now := v.now()
	summary.ReportPath = audit.ReportPath(v.env.Config.Paths.OutputDir, now)
	report := audit.ReportSummary{Generated: now, TotalPlayers: summary.TotalPlayers, Checked: summary.Checked}
	if err := audit.WriteReport(summary.ReportPath, report, rows); err != nil {
		return summary, fmt.Errorf("write validation report: %w", err)
	}
	logger.Info("validation finished",
		logging.Int("checked", summary.Checked),
		logging.Int("corrected", summary.Corrected),
		logging.Int("errors", summary.Errors),
		logging.Int("report_rows", len(rows)),
		logging.String("report", summary.ReportPath),
	)
	return summary, runErr
}

func (v *Validator) validatePlayer(ctx context.Context, player m4d.Player, cityCodes, resellerCodes map[string]struct{}) ValidationResult {
	label := player.Label()
	result := ValidationResult{Row: audit.ReportRow{PlayerID: player.ID, Identifier: label}}
	if player.ID == 0 {
		result.Row.Error = "No player ID"
		return result
	}
	ctx = services.WithPlayerID(ctx, player.ID)
	logger := logging.WithContext(ctx, v.logger).With(logging.Player(label))

	err := v.correct(ctx, logger, player.ID, label, &result, cityCodes, resellerCodes)
	entry := journal.Entry{SiteID: result.Row.SiteNumber, PlayerID: player.ID, PlayerLabel: label}
	switch {
	case err != nil:
		result.Row.Error = err.Error()
		logging.WarnWithContext(logger, "player validation failed", "player_validation_failed",
			logging.Error(err),
			logging.Hint("see the Error Message column of the validation report"),
		)
		entry.Outcome = journal.OutcomeFailed
		entry.Note = err.Error()
	case result.Updated:
		entry.Outcome = journal.OutcomeCorrected
		entry.Note = fmt.Sprintf("%s; %s; %s",
			result.Row.City.Status("city"), result.Row.Reseller.Status("reseller"), result.Row.Sector.Status("sector"))
	default:
		logger.Debug("player valid")
		return result
	}
	v.env.record(ctx, entry)
	return result
}

func (v *Validator) correct(ctx context.Context, logger *slog.Logger, id int64, label string, result *ValidationResult, cityCodes, resellerCodes map[string]struct{}) error {
	detail, err := v.env.Directory.GetPlayer(ctx, id)
	if err != nil {
		return err
	}
	row := &result.Row
	row.City.Original = detail.Coordinates.City
	row.Reseller.Original, _ = detail.Variable(m4d.VarReseller)
	row.Sector.Original, _ = detail.Variable(m4d.VarSector)

	result.CityInvalid = !isValidCode(row.City.Original, cityCodes)
	result.ResellerInvalid = !isValidCode(row.Reseller.Original, resellerCodes)

	site, ok := players.ExtractSiteNumber(label)
	row.SiteNumber = site
	expectedSector := ""
	if ok {
		expectedSector = v.expectedSector(site)
		result.SectorInvalid = row.Sector.Original != expectedSector
	}
	logger.Info("player checked",
		logging.Bool("city_valid", !result.CityInvalid),
		logging.Bool("reseller_valid", !result.ResellerInvalid),
		logging.Bool("sector_valid", !result.SectorInvalid),
		logging.String("site_number", site),
	)
	if !result.NeedsCorrection() {
		return nil
	}
	if !ok {
		return errors.New("could not extract site number from identifier")
	}

	city, reseller := "", ""
	if result.CityInvalid {
		if city, err = v.lookup(site, sitesheet.City, dictionary.City); err != nil {
			return err
		}
	}
	if result.ResellerInvalid {
		if reseller, err = v.lookup(site, sitesheet.Reseller, dictionary.Reseller); err != nil {
			return err
		}
	}

	dir := v.env.Directory
	if result.CityInvalid && city != "" {
		if err := dir.PatchCity(ctx, id, city); err != nil {
			return fmt.Errorf("api update failed: %w", err)
		}
		row.City.New, row.City.Changed = city, true
	}
	if result.ResellerInvalid && reseller != "" {
		if err := setVariable(ctx, dir, id, m4d.VarReseller, reseller); err != nil {
			return fmt.Errorf("api update failed: %w", err)
		}
		row.Reseller.New, row.Reseller.Changed = reseller, true
	}
	if result.SectorInvalid && expectedSector != "" {
		if err := setVariable(ctx, dir, id, m4d.VarSector, expectedSector); err != nil {
			return fmt.Errorf("api update failed: %w", err)
		}
		row.Sector.New, row.Sector.Changed = expectedSector, true
	}
	result.Updated = true
	logger.Info("player corrected",
		logging.String("city", row.City.Status("city")),
		logging.String("reseller", row.Reseller.Status("reseller")),
		logging.String("sector", row.Sector.Status("sector")),
	)
	return nil
}

// expectedSector derives the sector code for site, GENERAL when the sheet
// has no usable value.
func (v *Validator) expectedSector(site string) string {
	label, err := v.env.Sheet.Resolve(site, sitesheet.Sector, v.env.Dictionaries.Keys(dictionary.Sector))
	if err != nil {
		return dictionary.DefaultSector
	}
	code, err := v.env.Dictionaries.Translate(dictionary.Sector, label)
	if err != nil {
		return dictionary.DefaultSector
	}
	return code
}

func (v *Validator) lookup(site string, field sitesheet.Field, kind dictionary.Kind) (string, error) {
	label, err := v.env.Sheet.Resolve(site, field, v.env.Dictionaries.Keys(kind))
	if err != nil {
		return "", fmt.Errorf("site number %s not found in sheet for %s: %w", site, field, err)
	}
	return v.env.Dictionaries.Translate(kind, label)
}

func isValidCode(value string, codes map[string]struct{}) bool {
	if value == "" {
		return false
	}
	_, ok := codes[value]
	return ok
}
