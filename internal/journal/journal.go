package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Outcome labels stored with each entry.
const (
	OutcomeResolved   = "resolved"
	OutcomeUnresolved = "unresolved"
	OutcomeUpdated    = "updated"
	OutcomeFailed     = "failed"
	OutcomeMissing    = "missing"
	OutcomeCorrected  = "corrected"
)

// Entry is one recorded outcome. PlayerID is zero for site-level entries.
type Entry struct {
	ID          int64
	RunID       string
	Driver      string
	SiteID      string
	PlayerID    int64
	PlayerLabel string
	Outcome     string
	Note        string
	RecordedAt  time.Time
}

// Filter narrows Recent queries. Zero values match everything.
type Filter struct {
	SiteID string
	RunID  string
	Limit  int
}

// Journal is the SQLite-backed outcome store. A nil *Journal accepts
// records and discards them.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the journal database at path.
func Open(path string) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("journal path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	j := &Journal{db: db, path: path}
	if err := j.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Path returns the database location.
func (j *Journal) Path() string {
	if j == nil {
		return ""
	}
	return j.path
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores an outcome. RecordedAt defaults to now.
func (j *Journal) Record(ctx context.Context, entry Entry) error {
	if j == nil || j.db == nil {
		return nil
	}
	if strings.TrimSpace(entry.Outcome) == "" {
		return errors.New("journal entry requires an outcome")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now()
	}
	_, err := j.db.ExecContext(
		ctx,
		`INSERT INTO outcomes (
            run_id, driver, site_id, player_id, player_label, outcome, note, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Driver,
		nullableString(entry.SiteID),
		nullableInt(entry.PlayerID),
		nullableString(entry.PlayerLabel),
		entry.Outcome,
		nullableString(entry.Note),
		entry.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// Recent returns matching entries, newest first.
func (j *Journal) Recent(ctx context.Context, filter Filter) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	query := `SELECT id, run_id, driver, site_id, player_id, player_label, outcome, note, recorded_at FROM outcomes`
	var (
		clauses []string
		args    []any
	)
	if site := strings.TrimSpace(filter.SiteID); site != "" {
		clauses = append(clauses, "site_id = ?")
		args = append(args, site)
	}
	if run := strings.TrimSpace(filter.RunID); run != "" {
		clauses = append(clauses, "run_id = ?")
		args = append(args, run)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (j *Journal) initSchema(ctx context.Context) error {
	var tableExists int
	err := j.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return j.createSchema(ctx)
	}

	var version int
	if err := j.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: journal has version %d, expected %d (delete %s to reset it)",
			ErrSchemaMismatch, version, schemaVersion, j.path)
	}
	return nil
}

func (j *Journal) createSchema(ctx context.Context) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry       Entry
		siteID      sql.NullString
		playerID    sql.NullInt64
		playerLabel sql.NullString
		note        sql.NullString
		recordedRaw string
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.RunID,
		&entry.Driver,
		&siteID,
		&playerID,
		&playerLabel,
		&entry.Outcome,
		&note,
		&recordedRaw,
	); err != nil {
		return Entry{}, fmt.Errorf("scan outcome: %w", err)
	}
	entry.SiteID = siteID.String
	entry.PlayerID = playerID.Int64
	entry.PlayerLabel = playerLabel.String
	entry.Note = note.String
	if ts, err := time.Parse(time.RFC3339Nano, recordedRaw); err == nil {
		entry.RecordedAt = ts
	}
	return entry, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}
