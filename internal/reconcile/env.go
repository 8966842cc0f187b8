package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"m4dsync/internal/config"
	"m4dsync/internal/dictionary"
	"m4dsync/internal/journal"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/services"
	"m4dsync/internal/sitesheet"
)

// Driver names stamped on logs and journal entries.
const (
	DriverUpdate   = "update"
	DriverBatch    = "batch"
	DriverAudit    = "audit"
	DriverValidate = "validate"
	DriverFetch    = "fetch"
)

// Env carries the collaborators every driver needs. Journal may be nil.
type Env struct {
	Config       *config.Config
	Dictionaries *dictionary.Store
	Sheet        *sitesheet.Index
	Directory    m4d.Directory
	Journal      *journal.Journal
	Logger       *slog.Logger
}

func (e Env) validate() error {
	switch {
	case e.Config == nil:
		return errors.New("reconcile: config required")
	case e.Dictionaries == nil:
		return errors.New("reconcile: dictionaries required")
	case e.Sheet == nil:
		return errors.New("reconcile: site sheet required")
	case e.Directory == nil:
		return errors.New("reconcile: directory client required")
	}
	return nil
}

func (e Env) logger() *slog.Logger {
	return logging.NewComponentLogger(e.Logger, "reconcile")
}

// record stores an outcome, stamping run and driver from ctx. Journal
// failures are logged and otherwise ignored.
func (e Env) record(ctx context.Context, entry journal.Entry) {
	if e.Journal == nil {
		return
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		entry.RunID = id
	}
	if driver, ok := services.DriverFromContext(ctx); ok {
		entry.Driver = driver
	}
	if entry.SiteID == "" {
		entry.SiteID, _ = services.SiteIDFromContext(ctx)
	}
	if err := e.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, e.logger()), "journal write failed", "journal_write_failed",
			logging.Error(err),
			logging.Hint("check journal.path permissions or disable the journal"),
		)
	}
}
