package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"m4dsync/internal/config"
	"m4dsync/internal/logging"
	"m4dsync/internal/services"
)

func TestConsoleLineCarriesComponentAndSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithSiteID(context.Background(), "123456")
	ctx = services.WithPlayerID(ctx, 42)
	ctx = services.WithRunID(ctx, "run-1")
	log := logging.WithContext(ctx, logging.NewComponentLogger(logger, "reconcile"))
	log.Info("city patched", logging.String("city", "TLV"))

	line := buf.String()
	for _, want := range []string{"INFO [reconcile] site 123456 · player 42 – city patched", "city=TLV"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, "run_id") {
		t.Fatalf("info console line should not carry run_id: %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no source location at info level: %q", line)
	}
}

func TestConsoleQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("lookup", logging.String("label", "תל אביב"), logging.String("empty", ""))

	line := buf.String()
	if !strings.Contains(line, `label="תל אביב"`) {
		t.Fatalf("expected quoted label, got %q", line)
	}
	if !strings.Contains(line, `empty=""`) {
		t.Fatalf("expected quoted empty value, got %q", line)
	}
	if !strings.Contains(line, ".go:") {
		t.Fatalf("expected source location at debug level, got %q", line)
	}
}

func TestLevelFiltersRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hello", logging.Int("count", 3))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v (%q)", err, buf.String())
	}
	if payload["level"] != "info" || payload["msg"] != "hello" {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key in %#v", payload)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFileMirrorsConsoleAsJSON(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "m4dsync.log")
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf, FilePath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("mirrored", logging.String(logging.FieldRunID, "abc"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"run_id":"abc"`) {
		t.Fatalf("expected json record in file, got %q", data)
	}
	if !strings.Contains(buf.String(), "mirrored") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestNewFromConfigUsesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.ToFile = true
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, io.Discard)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("to file")

	if _, err := os.Stat(filepath.Join(cfg.Paths.LogDir, "m4dsync.log")); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "lookup failed", "site_lookup_failed", logging.Error(errors.New("boom")))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldEventType] != "site_lookup_failed" {
		t.Fatalf("event_type = %v", payload[logging.FieldEventType])
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatal("expected error_hint default")
	}

	buf.Reset()
	logging.ErrorWithContext(logger, "patch failed", "player_update_failed", logging.Hint("retry later"))
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldErrorHint] != "retry later" {
		t.Fatalf("explicit hint overwritten: %v", payload[logging.FieldErrorHint])
	}
}

func TestDomainAttrsUseStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("player processed",
		logging.SiteID("200010"),
		logging.PlayerID(42),
		logging.Player("200010-LH-H"),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldSiteID] != "200010" {
		t.Fatalf("site_id = %v", payload[logging.FieldSiteID])
	}
	if payload[logging.FieldPlayerID] != float64(42) {
		t.Fatalf("player_id = %v", payload[logging.FieldPlayerID])
	}
	if payload[logging.FieldPlayer] != "200010-LH-H" {
		t.Fatalf("player = %v", payload[logging.FieldPlayer])
	}
}

func TestWithContextWithoutFieldsReturnsLogger(t *testing.T) {
	base := logging.NewNop()
	if got := logging.WithContext(context.Background(), base); got != base {
		t.Fatal("expected same logger when context carries no fields")
	}
}
