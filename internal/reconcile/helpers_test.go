package reconcile_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"m4dsync/internal/config"
	"m4dsync/internal/dictionary"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/reconcile"
	"m4dsync/internal/sitesheet"
	"m4dsync/internal/testsupport"
)

var fixtureRows = []testsupport.SheetRow{
	{Site: "200010", City: "תל אביב", Reseller: "ספק א", ISP: "בזק", Sector: "מסעדות"},
	{Site: "200011", City: "עיר לא ידועה", Reseller: "ספק א", ISP: "בזק"},
	{Site: "200012", City: "תל אביב", Reseller: "ספק א", ISP: "בזק"},
}

var fixtureDictionaries = testsupport.Dictionaries{
	Cities:    map[string]string{"תל אביב": "TLV", "חיפה": "HFA"},
	Resellers: map[string]string{"ספק א": "ACME"},
	ISPs:      map[string]string{"בזק": "BEZEQ"},
	Sectors:   map[string]string{"מסעדות": "FOOD"},
}

// newEnv writes the fixtures and wires an Env around dir.
func newEnv(t *testing.T, dir m4d.Directory, opts ...testsupport.ConfigOption) (reconcile.Env, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	testsupport.WriteFixtures(t, cfg, fixtureRows, fixtureDictionaries)

	dicts, err := dictionary.Load(cfg.Paths.Dictionaries)
	if err != nil {
		t.Fatalf("dictionary.Load: %v", err)
	}
	sheet, err := sitesheet.Load(cfg.Paths.SiteSheet, sitesheet.OptionsFromConfig(cfg.Sheet))
	if err != nil {
		t.Fatalf("sitesheet.Load: %v", err)
	}
	env := reconcile.Env{
		Config:       cfg,
		Dictionaries: dicts,
		Sheet:        sheet,
		Directory:    dir,
		Logger:       logging.NewNop(),
	}
	if cfg.Journal.Enabled {
		env.Journal = testsupport.MustOpenJournal(t, cfg)
	}
	return env, cfg
}

// fakeDirectory is an in-memory m4d.Directory. Variable writes upsert into
// the stored player so re-fetches observe them.
type fakeDirectory struct {
	mu      sync.Mutex
	players map[int64]*m4d.Player
	order   []m4d.Player
	fail    map[string]error
	calls   []string
	vars    map[int64][][]m4d.Variable
	// afterCall, when set, runs after each successful player call.
	afterCall func(call string)
}

func newFakeDirectory(players ...m4d.Player) *fakeDirectory {
	d := &fakeDirectory{
		players: make(map[int64]*m4d.Player),
		fail:    make(map[string]error),
		vars:    make(map[int64][][]m4d.Variable),
	}
	for _, p := range players {
		p := clonePlayer(p)
		d.order = append(d.order, p)
		if p.ID != 0 {
			d.players[p.ID] = &p
		}
	}
	return d
}

func (d *fakeDirectory) failOn(op string, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[fmt.Sprintf("%s:%d", op, id)] = &m4d.APIError{Method: op, Path: fmt.Sprintf("/v1/players/%d", id), StatusCode: http.StatusInternalServerError, Body: "boom"}
}

func (d *fakeDirectory) check(op string, id int64) error {
	call := fmt.Sprintf("%s:%d", op, id)
	d.calls = append(d.calls, call)
	if err := d.fail[call]; err != nil {
		return err
	}
	if d.afterCall != nil {
		d.afterCall(call)
	}
	return nil
}

func (d *fakeDirectory) ListPlayers(context.Context) ([]m4d.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "list")
	if err := d.fail["list:0"]; err != nil {
		return nil, err
	}
	out := make([]m4d.Player, 0, len(d.order))
	for _, p := range d.order {
		out = append(out, m4d.Player{ID: p.ID, Identifier: p.Identifier, Name: p.Name})
	}
	return out, nil
}

func (d *fakeDirectory) GetPlayer(_ context.Context, id int64) (*m4d.Player, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check("get", id); err != nil {
		return nil, err
	}
	p, ok := d.players[id]
	if !ok {
		return nil, &m4d.APIError{Method: http.MethodGet, Path: fmt.Sprintf("/v1/players/%d", id), StatusCode: http.StatusNotFound}
	}
	clone := clonePlayer(*p)
	return &clone, nil
}

func (d *fakeDirectory) PatchCity(_ context.Context, id int64, city string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check("patch", id); err != nil {
		return err
	}
	d.players[id].Coordinates.City = city
	return nil
}

func (d *fakeDirectory) SetVariables(_ context.Context, id int64, vars []m4d.Variable) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.check("vars", id); err != nil {
		return err
	}
	d.vars[id] = append(d.vars[id], append([]m4d.Variable(nil), vars...))
	p := d.players[id]
	for _, v := range vars {
		replaced := false
		for i := range p.Variables {
			if p.Variables[i].Name == v.Name {
				p.Variables[i].Value = v.Value
				replaced = true
			}
		}
		if !replaced {
			p.Variables = append(p.Variables, v)
		}
	}
	return nil
}

// player returns the stored state of id.
func (d *fakeDirectory) player(t *testing.T, id int64) m4d.Player {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.players[id]
	if !ok {
		t.Fatalf("player %d not stored", id)
	}
	return clonePlayer(*p)
}

func (d *fakeDirectory) called(call string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, c := range d.calls {
		if c == call {
			return true
		}
	}
	return false
}

func clonePlayer(p m4d.Player) m4d.Player {
	p.Variables = append([]m4d.Variable(nil), p.Variables...)
	return p
}

func variable(t *testing.T, p m4d.Player, name string) string {
	t.Helper()
	value, ok := p.Variable(name)
	if !ok {
		t.Fatalf("player %d has no %s", p.ID, name)
	}
	return value
}

func completePlayer(id int64, identifier string) m4d.Player {
	return m4d.Player{
		ID:          id,
		Identifier:  identifier,
		Coordinates: m4d.Coordinates{City: "TLV"},
		Variables: []m4d.Variable{
			{Name: m4d.VarReseller, Value: "ACME"},
			{Name: m4d.VarISP, Value: "BEZEQ"},
			{Name: m4d.VarSector, Value: "FOOD"},
			{Name: m4d.VarStreamingHotMuted, Value: "false"},
			{Name: m4d.VarStreamingTripleMuted, Value: "false"},
			{Name: m4d.VarStreamingVerticalHotMuted, Value: "false"},
			{Name: m4d.VarStreamingVerticalTripleMuted, Value: "false"},
		},
	}
}
