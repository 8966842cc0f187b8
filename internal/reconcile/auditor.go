package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"m4dsync/internal/audit"
	"m4dsync/internal/journal"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/players"
	"m4dsync/internal/services"
)

// AuditSummary reports an audit run.
type AuditSummary struct {
	SitesChecked int
	Flagged      []audit.Entry
	Path         string
}

// Auditor flags sites whose players miss mandatory attributes.
type Auditor struct {
	env    Env
	logger *slog.Logger
}

// NewAuditor validates env and returns an Auditor.
func NewAuditor(env Env) (*Auditor, error) {
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &Auditor{env: env, logger: env.logger()}, nil
}

// Run checks every site in the sheet and writes the flagged ones to the
// backlog file, which the batch driver consumes. A site is flagged by the
// first incomplete player found; sites with no players are not flagged.
func (a *Auditor) Run(ctx context.Context) (AuditSummary, error) {
	ctx = services.WithDriver(ctx, DriverAudit)
	logger := logging.WithContext(ctx, a.logger)
	summary := AuditSummary{Path: a.env.Config.Paths.Backlog}

	all, err := a.env.Directory.ListPlayers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list players: %w", err)
	}
	logger.Info("player list fetched", logging.Int("players", len(all)))

	for _, siteID := range a.env.Sheet.SiteIDs() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.SitesChecked++
		if note, flagged := a.checkSite(ctx, siteID, players.Select(all, siteID)); flagged {
			summary.Flagged = append(summary.Flagged, audit.Entry{SiteID: siteID, Note: note})
		}
	}

	unlock, err := audit.Lock(summary.Path)
	if err != nil {
		return summary, err
	}
	defer func() { _ = unlock() }()
	if err := audit.WriteBacklog(summary.Path, a.env.Config.Sheet.SiteColumn, summary.Flagged); err != nil {
		return summary, fmt.Errorf("write missing sites: %w", err)
	}
	logger.Info("audit finished",
		logging.Int("sites_checked", summary.SitesChecked),
		logging.Int("sites_flagged", len(summary.Flagged)),
		logging.String("path", summary.Path),
	)
	return summary, nil
}

func (a *Auditor) checkSite(ctx context.Context, siteID string, selected []m4d.Player) (string, bool) {
	ctx = services.WithSiteID(ctx, siteID)
	logger := logging.WithContext(ctx, a.logger)
	for _, player := range selected {
		if player.ID == 0 {
			continue
		}
		label := player.Label()
		detail, err := a.env.Directory.GetPlayer(ctx, player.ID)
		if err != nil {
			logging.WarnWithContext(logger, "player fetch failed; skipping", "player_fetch_failed",
				logging.PlayerID(player.ID),
				logging.Player(label),
				logging.Error(err),
			)
			continue
		}
		missing := audit.MissingAttributes(*detail)
		if len(missing) == 0 {
			continue
		}
		note := fmt.Sprintf("player %s (id %d) missing: %s", label, player.ID, strings.Join(missing, ", "))
		logger.Info("site flagged", logging.Player(label), logging.String("missing", strings.Join(missing, ",")))
		a.env.record(ctx, journal.Entry{PlayerID: player.ID, PlayerLabel: label, Outcome: journal.OutcomeMissing, Note: note})
		return note, true
	}
	return "", false
}
