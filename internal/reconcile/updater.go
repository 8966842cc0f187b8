package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"m4dsync/internal/dictionary"
	"m4dsync/internal/journal"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/players"
	"m4dsync/internal/services"
	"m4dsync/internal/sitesheet"
	"m4dsync/internal/streaming"
	"m4dsync/internal/textutil"
)

// SiteValues are the translated codes pushed to every player of a site,
// alongside the sheet labels they came from.
type SiteValues struct {
	City          string
	Reseller      string
	ISP           string
	Sector        string
	CityLabel     string
	ResellerLabel string
	ISPLabel      string
	SectorLabel   string
}

// PlayerResult is the outcome of updating one player.
type PlayerResult struct {
	PlayerID int64
	Label    string
	Class    players.Class
	Flags    streaming.Flags
	Before   *m4d.Player
	After    *m4d.Player
	Skipped  bool
	Err      error
}

// SiteOutcome is the outcome of updating one site. Err is nil only when
// Resolved is true.
type SiteOutcome struct {
	SiteID   string
	Resolved bool
	Note     string
	Values   SiteValues
	Players  []PlayerResult
	Err      error
}

// Failed counts players whose update failed.
func (o SiteOutcome) Failed() int {
	n := 0
	for _, p := range o.Players {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Updater reconciles the players of one site at a time.
type Updater struct {
	env    Env
	logger *slog.Logger
}

// NewUpdater validates env and returns an Updater.
func NewUpdater(env Env) (*Updater, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &Updater{env: env, logger: env.logger()}, nil
}

// ResolveSite looks up and translates the site's fields. City, reseller and
// ISP failures are fatal for the site; sector falls back to GENERAL.
func (u *Updater) ResolveSite(siteID string) (SiteValues, error) {
	var values SiteValues
	mandatory := []struct {
		field sitesheet.Field
		kind  dictionary.Kind
		label *string
		code  *string
	}{
		{sitesheet.City, dictionary.City, &values.CityLabel, &values.City},
		{sitesheet.Reseller, dictionary.Reseller, &values.ResellerLabel, &values.Reseller},
		{sitesheet.ISP, dictionary.ISP, &values.ISPLabel, &values.ISP},
	}
	for _, m := range mandatory {
		label, err := u.env.Sheet.Resolve(siteID, m.field, u.env.Dictionaries.Keys(m.kind))
		if err != nil {
			return SiteValues{}, &lookupError{siteID: siteID, err: err}
		}
		*m.label = label
	}
	for _, m := range mandatory {
		code, err := u.env.Dictionaries.Translate(m.kind, *m.label)
		if err != nil {
			return SiteValues{}, err
		}
		*m.code = code
	}

	values.Sector = dictionary.DefaultSector
	if label, err := u.env.Sheet.Resolve(siteID, sitesheet.Sector, u.env.Dictionaries.Keys(dictionary.Sector)); err == nil {
		values.SectorLabel = label
		if code, err := u.env.Dictionaries.Translate(dictionary.Sector, label); err == nil {
			values.Sector = code
		}
	}
	return values, nil
}

// UpdateSite brings every player of siteID found in all in line with the
// sheet. Per-player failures are collected; they never stop the site.
func (u *Updater) UpdateSite(ctx context.Context, siteID string, all []m4d.Player) SiteOutcome {
	ctx = services.WithSiteID(ctx, siteID)
	logger := logging.WithContext(ctx, u.logger)
	outcome := SiteOutcome{SiteID: siteID}

	values, err := u.ResolveSite(siteID)
	if err != nil {
		eventType := "site_lookup_failed"
		hint := "check the site id and the sheet columns"
		if errors.Is(err, dictionary.ErrTranslationNotFound) {
			eventType = "translation_failed"
			hint = "add the label to the dictionaries file"
		}
		logging.WarnWithContext(logger, "site values unresolved", eventType,
			logging.Error(err),
			logging.Hint(hint),
		)
		return u.finish(ctx, outcome, err)
	}
	outcome.Values = values
	logger.Info("site values resolved",
		logging.String("city", values.CityLabel+" -> "+values.City),
		logging.String("reseller", values.ResellerLabel+" -> "+values.Reseller),
		logging.String("isp", values.ISPLabel+" -> "+values.ISP),
		logging.String("sector", textutil.OrPlaceholder(values.SectorLabel)+" -> "+values.Sector),
	)

	selected := players.Select(all, siteID)
	if len(selected) == 0 {
		logger.Info("no players matched site; nothing to update")
		return u.finish(ctx, outcome, ErrNoPlayersMatched)
	}
	siteCtx := players.BuildContext(selected)
	logger.Info("players matched",
		logging.Int("count", len(selected)),
		logging.Bool("any_lh_only", siteCtx.AnyLHOnly),
		logging.Bool("any_pv_only", siteCtx.AnyPVOnly),
		logging.Bool("any_combined", siteCtx.AnyCombined),
	)

	for _, player := range selected {
		if err := ctx.Err(); err != nil {
			return u.finish(ctx, outcome, err)
		}
		outcome.Players = append(outcome.Players, u.updatePlayer(ctx, player, values, siteCtx))
	}

	if err := ctx.Err(); err != nil {
		return u.finish(ctx, outcome, err)
	}
	if outcome.Failed() > 0 {
		return u.finish(ctx, outcome, errPlayerFailures)
	}
	return u.finish(ctx, outcome, nil)
}

func (u *Updater) finish(ctx context.Context, outcome SiteOutcome, err error) SiteOutcome {
	outcome.Err = err
	outcome.Resolved = err == nil
	outcome.Note = siteNote(outcome.SiteID, err)

	entry := journal.Entry{SiteID: outcome.SiteID, Outcome: journal.OutcomeResolved}
	if err != nil {
		entry.Outcome = journal.OutcomeUnresolved
		entry.Note = outcome.Note
	}
	u.env.record(ctx, entry)
	return outcome
}

func (u *Updater) updatePlayer(ctx context.Context, player m4d.Player, values SiteValues, siteCtx players.SiteContext) PlayerResult {
	label := player.Label()
	class := players.Classify(label)
	result := PlayerResult{
		PlayerID: player.ID,
		Label:    label,
		Class:    class,
		Flags:    streaming.Decide(label, siteCtx, class),
	}
	if player.ID == 0 {
		result.Skipped = true
		logging.WarnWithContext(logging.WithContext(ctx, u.logger), "skipping player without id", "player_missing_id",
			logging.Player(label),
			logging.Hint("the directory returned a player with neither playerId nor id"),
		)
		return result
	}

	ctx = services.WithPlayerID(ctx, player.ID)
	logger := logging.WithContext(ctx, u.logger).With(logging.Player(label))
	logger.Info("processing player", logging.String("class", class.String()), logging.String("streaming", result.Flags.String()))

	result.Err = u.applyPlayer(ctx, logger, &result, values)
	entry := journal.Entry{PlayerID: player.ID, PlayerLabel: label, Outcome: journal.OutcomeUpdated, Note: result.Flags.String()}
	if result.Err != nil {
		logging.ErrorWithContext(logger, "player update failed", "player_update_failed",
			logging.Error(result.Err),
			logging.Hint("the site stays unresolved; rerun after checking the directory response"),
		)
		entry.Outcome = journal.OutcomeFailed
		entry.Note = services.Category(result.Err) + ": " + result.Err.Error()
	}
	u.env.record(ctx, entry)
	return result
}

func (u *Updater) applyPlayer(ctx context.Context, logger *slog.Logger, result *PlayerResult, values SiteValues) error {
	dir := u.env.Directory
	id := result.PlayerID

	current, err := dir.GetPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch player: %w", err)
	}
	result.Before = current
	logPlayerState(logger, "current player state", current)

	if err := dir.PatchCity(ctx, id, values.City); err != nil {
		return fmt.Errorf("patch city: %w", err)
	}
	if err := setVariable(ctx, dir, id, m4d.VarReseller, values.Reseller); err != nil {
		return err
	}
	if err := setVariable(ctx, dir, id, m4d.VarISP, values.ISP); err != nil {
		return err
	}
	if u.env.Config.Reconcile.WriteSector {
		if err := setVariable(ctx, dir, id, m4d.VarSector, values.Sector); err != nil {
			return err
		}
	}
	if err := dir.SetVariables(ctx, id, result.Flags.Variables()); err != nil {
		return fmt.Errorf("set streaming flags: %w", err)
	}

	updated, err := dir.GetPlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("re-fetch player: %w", err)
	}
	result.After = updated
	logPlayerState(logger, "updated player state", updated)
	return nil
}

// setVariable writes one variable, skipping empty values.
func setVariable(ctx context.Context, dir m4d.Directory, id int64, name, value string) error {
	if value == "" {
		return nil
	}
	if err := dir.SetVariables(ctx, id, []m4d.Variable{{Name: name, Value: value}}); err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	return nil
}

func logPlayerState(logger *slog.Logger, msg string, p *m4d.Player) {
	attrs := []logging.Attr{logging.String("city", textutil.OrPlaceholder(p.Coordinates.City))}
	names := append([]string{m4d.VarReseller, m4d.VarISP, m4d.VarSector}, m4d.StreamingVariables()...)
	for _, name := range names {
		value, ok := p.Variable(name)
		if !ok {
			value = "(unset)"
		}
		attrs = append(attrs, logging.String(name, value))
	}
	logger.Info(msg, logging.Args(attrs...)...)
}
