package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"m4dsync/internal/audit"
	"m4dsync/internal/fileutil"
	"m4dsync/internal/logging"
	"m4dsync/internal/services"
)

// BatchSummary reports a backlog run.
type BatchSummary struct {
	Processed int
	Resolved  int
	Remaining []audit.Entry
	Outcomes  []SiteOutcome
	Backup    string
}

// Batch replays the Updater over every site in the backlog file.
type Batch struct {
	env     Env
	updater *Updater
	logger  *slog.Logger
}

// NewBatch validates env and returns a Batch.
func NewBatch(env Env) (*Batch, error) {
	updater, err := NewUpdater(env)
	if err != nil {
		return nil, err
	}
	return &Batch{env: env, updater: updater, logger: env.logger()}, nil
}

// Run processes the backlog and rewrites it with the unresolved sites. The
// backlog is locked for the whole run and backed up beside itself first. On
// cancellation the sites not yet processed are kept with their old notes and
// the context error is returned after the rewrite.
func (b *Batch) Run(ctx context.Context) (BatchSummary, error) {
	ctx = services.WithDriver(ctx, DriverBatch)
	logger := logging.WithContext(ctx, b.logger)
	path := b.env.Config.Paths.Backlog
	var summary BatchSummary

	unlock, err := audit.Lock(path)
	if err != nil {
		return summary, err
	}
	defer func() {
		if err := unlock(); err != nil {
			logger.Debug("backlog unlock failed", logging.Error(err))
		}
	}()

	entries, err := audit.ReadBacklog(path)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "reconcile", "read backlog", path, err)
	}
	logger.Info("backlog loaded", logging.String("path", path), logging.Int("sites", len(entries)))

	if _, statErr := os.Stat(path); statErr == nil {
		summary.Backup = path + ".bak"
		if err := fileutil.CopyFile(path, summary.Backup); err != nil {
			return summary, fmt.Errorf("back up backlog: %w", err)
		}
	}

	all, err := b.env.Directory.ListPlayers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list players: %w", err)
	}
	logger.Info("player list fetched", logging.Int("players", len(all)))

	var runErr error
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			summary.Remaining = append(summary.Remaining, entries[i:]...)
			runErr = err
			break
		}
		outcome := b.updater.UpdateSite(ctx, entry.SiteID, all)
		summary.Processed++
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Resolved {
			summary.Resolved++
			continue
		}
		if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
			summary.Remaining = append(summary.Remaining, entries[i:]...)
			runErr = outcome.Err
			break
		}
		note := outcome.Note
		if note == "" {
			note = entry.Note
		}
		summary.Remaining = append(summary.Remaining, audit.Entry{SiteID: entry.SiteID, Note: note})
	}

	if err := audit.WriteBacklog(path, b.env.Config.Sheet.SiteColumn, summary.Remaining); err != nil {
		return summary, fmt.Errorf("rewrite backlog: %w", err)
	}
	logger.Info("batch finished",
		logging.Int("processed", summary.Processed),
		logging.Int("resolved", summary.Resolved),
		logging.Int("remaining", len(summary.Remaining)),
	)
	return summary, runErr
}
