package logging

import (
	"context"
	"log/slog"

	"m4dsync/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID correlates every line emitted by one CLI invocation.
	FieldRunID = "run_id"
	// FieldDriver names the reconciliation driver (update, batch, audit, validate).
	FieldDriver = "driver"
	// FieldSiteID is the site-sheet identifier being reconciled.
	FieldSiteID = "site_id"
	// FieldPlayerID is the directory player identifier.
	FieldPlayerID = "player_id"
	// FieldPlayer is the player's display label.
	FieldPlayer = "player"
	// FieldEventType classifies warnings and errors for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if driver, ok := services.DriverFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDriver, driver))
	}
	if site, ok := services.SiteIDFromContext(ctx); ok {
		fields = append(fields, SiteID(site))
	}
	if id, ok := services.PlayerIDFromContext(ctx); ok {
		fields = append(fields, PlayerID(id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
