package testsupport

import (
	"testing"

	"m4dsync/internal/config"
	"m4dsync/internal/journal"
)

// MustOpenJournal opens the configured outcome journal for tests and
// registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Journal {
	t.Helper()

	j, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}
