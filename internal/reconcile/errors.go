package reconcile

import (
	"errors"
	"fmt"
)

// ErrNoPlayersMatched reports a site whose id matched no player. It marks a
// "nothing to do" outcome rather than a failure.
var ErrNoPlayersMatched = errors.New("no players matched")

// errPlayerFailures marks a site where at least one player update failed.
var errPlayerFailures = errors.New("one or more players failed to update")

// lookupError wraps a site sheet failure for a site.
type lookupError struct {
	siteID string
	err    error
}

func (e *lookupError) Error() string {
	return fmt.Sprintf("read sheet data for site %s: %v", e.siteID, e.err)
}

func (e *lookupError) Unwrap() error { return e.err }

// siteNote renders the backlog note for a site-level failure.
func siteNote(siteID string, err error) string {
	var lookup *lookupError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPlayersMatched):
		return fmt.Sprintf("No players found containing '%s'. Nothing to update.", siteID)
	case errors.Is(err, errPlayerFailures):
		return "One or more players failed to update"
	case errors.As(err, &lookup):
		return fmt.Sprintf("Failed to read CSV data for site %s: %v", siteID, lookup.err)
	default:
		return err.Error()
	}
}
