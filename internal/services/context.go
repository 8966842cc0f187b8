package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	driverKey   contextKey = "driver"
	siteIDKey   contextKey = "site_id"
	playerIDKey contextKey = "player_id"
)

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDriver annotates context with the reconciliation driver name.
func WithDriver(ctx context.Context, driver string) context.Context {
	if driver == "" {
		return ctx
	}
	return context.WithValue(ctx, driverKey, driver)
}

// DriverFromContext returns the driver name if present.
func DriverFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(driverKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithSiteID annotates context with the site being reconciled.
func WithSiteID(ctx context.Context, siteID string) context.Context {
	if siteID == "" {
		return ctx
	}
	return context.WithValue(ctx, siteIDKey, siteID)
}

// SiteIDFromContext returns the site id if present.
func SiteIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(siteIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithPlayerID annotates context with the player being updated.
func WithPlayerID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, playerIDKey, id)
}

// PlayerIDFromContext extracts the player identifier if present.
func PlayerIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(playerIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}
