package reconcile_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"m4dsync/internal/dictionary"
	"m4dsync/internal/journal"
	"m4dsync/internal/m4d"
	"m4dsync/internal/players"
	"m4dsync/internal/reconcile"
	"m4dsync/internal/services"
	"m4dsync/internal/sitesheet"
	"m4dsync/internal/testsupport"
)

func TestResolveSite(t *testing.T) {
	env, _ := newEnv(t, newFakeDirectory())
	updater, err := reconcile.NewUpdater(env)
	if err != nil {
		t.Fatalf("NewUpdater: %v", err)
	}

	values, err := updater.ResolveSite("200010")
	if err != nil {
		t.Fatalf("ResolveSite: %v", err)
	}
	if values.City != "TLV" || values.Reseller != "ACME" || values.ISP != "BEZEQ" || values.Sector != "FOOD" {
		t.Fatalf("unexpected values %+v", values)
	}

	values, err = updater.ResolveSite("200012")
	if err != nil {
		t.Fatalf("ResolveSite without sector: %v", err)
	}
	if values.Sector != dictionary.DefaultSector {
		t.Fatalf("sector = %q, want GENERAL", values.Sector)
	}

	if _, err := updater.ResolveSite("200011"); !errors.Is(err, dictionary.ErrTranslationNotFound) {
		t.Fatalf("unknown city error = %v", err)
	}
	if _, err := updater.ResolveSite("999999"); !errors.Is(err, sitesheet.ErrNotFound) {
		t.Fatalf("unknown site error = %v", err)
	}
}

func TestNewUpdaterRequiresCollaborators(t *testing.T) {
	if _, err := reconcile.NewUpdater(reconcile.Env{}); err == nil {
		t.Fatal("expected error for empty env")
	}
}

func TestUpdateSiteWritesEveryPlayer(t *testing.T) {
	dir := newFakeDirectory(
		m4d.Player{ID: 1, Identifier: "200010-LH-H"},
		m4d.Player{ID: 2, Identifier: "200010-PV-T"},
		m4d.Player{ID: 3, Identifier: "300000-LH-H"},
	)
	env, _ := newEnv(t, dir)
	updater, err := reconcile.NewUpdater(env)
	if err != nil {
		t.Fatalf("NewUpdater: %v", err)
	}
	all, _ := dir.ListPlayers(context.Background())

	outcome := updater.UpdateSite(context.Background(), "200010", all)
	if !outcome.Resolved || outcome.Err != nil || outcome.Note != "" {
		t.Fatalf("expected resolved outcome, got %+v", outcome)
	}
	if len(outcome.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(outcome.Players))
	}
	if outcome.Players[0].Class != players.LHOnly || !outcome.Players[0].Flags.Hot {
		t.Fatalf("LH player result = %+v", outcome.Players[0])
	}
	if outcome.Players[1].Flags.Count() != 0 {
		t.Fatalf("PV player should have no flags, got %s", outcome.Players[1].Flags)
	}
	if outcome.Players[0].After == nil || outcome.Players[0].After.Coordinates.City != "TLV" {
		t.Fatalf("expected re-fetched state, got %+v", outcome.Players[0].After)
	}

	lh := dir.player(t, 1)
	if lh.Coordinates.City != "TLV" {
		t.Fatalf("city = %q", lh.Coordinates.City)
	}
	for name, want := range map[string]string{
		m4d.VarReseller:                     "ACME",
		m4d.VarISP:                          "BEZEQ",
		m4d.VarSector:                       "FOOD",
		m4d.VarStreamingHotMuted:            "true",
		m4d.VarStreamingTripleMuted:         "false",
		m4d.VarStreamingVerticalHotMuted:    "false",
		m4d.VarStreamingVerticalTripleMuted: "false",
	} {
		if got := variable(t, lh, name); got != want {
			t.Fatalf("%s = %q, want %q", name, got, want)
		}
	}
	if got := variable(t, dir.player(t, 2), m4d.VarStreamingTripleMuted); got != "false" {
		t.Fatalf("PV triple flag = %q", got)
	}
	if dir.called("get:3") {
		t.Fatal("player of another site was touched")
	}

	writes := dir.vars[1]
	if len(writes) != 4 {
		t.Fatalf("expected 4 variable writes, got %d", len(writes))
	}
	if len(writes[3]) != 4 || writes[3][0].Name != m4d.VarStreamingHotMuted {
		t.Fatalf("streaming flags must be written in one call, got %+v", writes[3])
	}
}

func TestUpdateSiteSkipsSectorWhenDisabled(t *testing.T) {
	dir := newFakeDirectory(m4d.Player{ID: 1, Identifier: "200010-LH-H"})
	env, cfg := newEnv(t, dir)
	cfg.Reconcile.WriteSector = false
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	if outcome := updater.UpdateSite(context.Background(), "200010", all); !outcome.Resolved {
		t.Fatalf("expected resolved, got %+v", outcome)
	}
	if _, ok := dir.player(t, 1).Variable(m4d.VarSector); ok {
		t.Fatal("sector written while disabled")
	}
}

func TestUpdateSiteTranslationFailure(t *testing.T) {
	dir := newFakeDirectory(m4d.Player{ID: 1, Identifier: "200011-LH-H"})
	env, _ := newEnv(t, dir)
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	outcome := updater.UpdateSite(context.Background(), "200011", all)
	if outcome.Resolved || !errors.Is(outcome.Err, dictionary.ErrTranslationNotFound) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !strings.Contains(outcome.Note, "cities_dictionary") {
		t.Fatalf("note should name the dictionary: %q", outcome.Note)
	}
	if dir.called("get:1") {
		t.Fatal("no player calls expected after a translation failure")
	}
}

func TestUpdateSiteLookupFailureNote(t *testing.T) {
	env, _ := newEnv(t, newFakeDirectory())
	updater, _ := reconcile.NewUpdater(env)

	outcome := updater.UpdateSite(context.Background(), "999999", nil)
	if outcome.Resolved || !errors.Is(outcome.Err, services.ErrNotFound) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if !strings.HasPrefix(outcome.Note, "Failed to read CSV data for site 999999: ") {
		t.Fatalf("note = %q", outcome.Note)
	}
}

func TestUpdateSiteNoPlayersMatched(t *testing.T) {
	dir := newFakeDirectory(m4d.Player{ID: 1, Identifier: "300000-LH-H"})
	env, _ := newEnv(t, dir)
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	outcome := updater.UpdateSite(context.Background(), "200010", all)
	if outcome.Resolved || !errors.Is(outcome.Err, reconcile.ErrNoPlayersMatched) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Note != "No players found containing '200010'. Nothing to update." {
		t.Fatalf("note = %q", outcome.Note)
	}
}

func TestUpdateSitePlayerFailureDoesNotStopSite(t *testing.T) {
	dir := newFakeDirectory(
		m4d.Player{ID: 1, Identifier: "200010-LH-H"},
		m4d.Player{ID: 2, Identifier: "200010-PV-T"},
	)
	dir.failOn("patch", 1)
	env, _ := newEnv(t, dir, testsupport.WithJournal())
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	ctx := services.WithRunID(services.WithDriver(context.Background(), reconcile.DriverUpdate), "run-42")
	outcome := updater.UpdateSite(ctx, "200010", all)
	if outcome.Resolved {
		t.Fatal("site with a failed player must stay unresolved")
	}
	if outcome.Note != "One or more players failed to update" {
		t.Fatalf("note = %q", outcome.Note)
	}
	if outcome.Failed() != 1 || outcome.Players[1].Err != nil {
		t.Fatalf("unexpected player results %+v", outcome.Players)
	}
	if dir.player(t, 2).Coordinates.City != "TLV" {
		t.Fatal("second player should still be updated")
	}

	entries, err := env.Journal.Recent(context.Background(), journal.Filter{RunID: "run-42"})
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 journal entries, got %d", len(entries))
	}
	if entries[0].Outcome != journal.OutcomeUnresolved || entries[0].Driver != reconcile.DriverUpdate {
		t.Fatalf("site entry = %+v", entries[0])
	}
	if entries[2].Outcome != journal.OutcomeFailed || entries[2].PlayerID != 1 || !strings.HasPrefix(entries[2].Note, "directory: ") {
		t.Fatalf("failed player entry = %+v", entries[2])
	}
}

func TestUpdateSiteSkipsPlayerWithoutID(t *testing.T) {
	dir := newFakeDirectory(
		m4d.Player{Identifier: "200010-LH-H"},
		m4d.Player{ID: 2, Identifier: "200010-PV-T"},
	)
	env, _ := newEnv(t, dir)
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	outcome := updater.UpdateSite(context.Background(), "200010", all)
	if !outcome.Resolved {
		t.Fatalf("skipped players are not failures: %+v", outcome)
	}
	if !outcome.Players[0].Skipped {
		t.Fatal("expected first player to be skipped")
	}
}

func TestUpdateSiteStopsOnCancel(t *testing.T) {
	dir := newFakeDirectory(m4d.Player{ID: 1, Identifier: "200010-LH-H"})
	env, _ := newEnv(t, dir)
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := updater.UpdateSite(ctx, "200010", all)
	if outcome.Resolved || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if dir.called("get:1") {
		t.Fatal("no player calls expected after cancellation")
	}
}

func TestUpdateSiteCancelDuringLastPlayer(t *testing.T) {
	dir := newFakeDirectory(
		m4d.Player{ID: 1, Identifier: "200010-LH-H"},
		m4d.Player{ID: 2, Identifier: "200010-PV-T"},
	)
	env, _ := newEnv(t, dir)
	updater, _ := reconcile.NewUpdater(env)
	all, _ := dir.ListPlayers(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir.afterCall = func(call string) {
		if call == "patch:2" {
			cancel()
		}
	}
	outcome := updater.UpdateSite(ctx, "200010", all)
	if outcome.Resolved || !errors.Is(outcome.Err, context.Canceled) {
		t.Fatalf("interrupted site must report cancellation, got %+v", outcome)
	}
	if outcome.Failed() != 0 || len(outcome.Players) != 2 {
		t.Fatalf("unexpected player results %+v", outcome.Players)
	}
	if outcome.Note == "One or more players failed to update" {
		t.Fatalf("note = %q", outcome.Note)
	}
}
