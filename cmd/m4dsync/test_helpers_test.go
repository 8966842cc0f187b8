package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"m4dsync/internal/config"
	"m4dsync/internal/m4d"
	"m4dsync/internal/testsupport"
)

var cliSheetRows = []testsupport.SheetRow{
	{Site: "200010", City: "תל אביב", Reseller: "ספק א", ISP: "בזק", Sector: "מסעדות"},
	{Site: "200011", City: "עיר לא ידועה", Reseller: "ספק א", ISP: "בזק"},
}

var cliDictionaries = testsupport.Dictionaries{
	Cities:    map[string]string{"תל אביב": "TLV"},
	Resellers: map[string]string{"ספק א": "ACME"},
	ISPs:      map[string]string{"בזק": "BEZEQ"},
	Sectors:   map[string]string{"מסעדות": "FOOD"},
}

// fakeM4D serves the directory endpoints from an in-memory player set.
type fakeM4D struct {
	mu      sync.Mutex
	players map[int64]*m4d.Player
	order   []int64
	patches int
}

func newFakeM4D(players ...m4d.Player) *fakeM4D {
	f := &fakeM4D{players: make(map[int64]*m4d.Player)}
	for i := range players {
		p := players[i]
		f.players[p.ID] = &p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeM4D) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/v1/token" {
		_, _ = io.WriteString(w, `"tok"`)
		return
	}
	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.URL.Path == "/v1/players" {
		list := make([]m4d.Player, 0, len(f.order))
		for _, id := range f.order {
			list = append(list, *f.players[id])
		}
		_ = json.NewEncoder(w).Encode(list)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/players/")
	idText, sub, _ := strings.Cut(rest, "/")
	id, _ := strconv.ParseInt(idText, 10, 64)
	player, ok := f.players[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"player not found"}`)
		return
	}
	switch {
	case r.Method == http.MethodGet && sub == "":
		_ = json.NewEncoder(w).Encode(player)
	case r.Method == http.MethodPatch && sub == "":
		var ops []map[string]string
		_ = json.NewDecoder(r.Body).Decode(&ops)
		for _, op := range ops {
			if op["path"] == "/coordinates/city" {
				player.Coordinates.City = op["value"]
			}
		}
		f.patches++
		w.WriteHeader(http.StatusNoContent)
	case r.Method == http.MethodPost && sub == "variables":
		var vars []m4d.Variable
		_ = json.NewDecoder(r.Body).Decode(&vars)
		player.Variables = append(player.Variables, vars...)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeM4D) player(id int64) m4d.Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.players[id]
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	server     *httptest.Server
	directory  *fakeM4D
}

func setupCLITestEnv(t *testing.T, opts []testsupport.ConfigOption, players ...m4d.Player) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("M4D_ORG", "")
	t.Setenv("M4D_API_KEY", "")

	directory := newFakeM4D(players...)
	server := httptest.NewServer(directory)
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBaseURL(server.URL)}, opts...)...)
	testsupport.WriteFixtures(t, cfg, cliSheetRows, cliDictionaries)
	if err := os.MkdirAll(cfg.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, server: server, directory: directory}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithInput(strings.NewReader(""))
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func sitePlayer(id int64, identifier string) m4d.Player {
	return m4d.Player{ID: id, Identifier: identifier, Name: identifier}
}

func completePlayer(id int64, identifier string) m4d.Player {
	p := sitePlayer(id, identifier)
	p.Coordinates.City = "TLV"
	p.Variables = []m4d.Variable{
		{Name: m4d.VarReseller, Value: "ACME"},
		{Name: m4d.VarISP, Value: "BEZEQ"},
		{Name: m4d.VarSector, Value: "FOOD"},
	}
	for _, name := range m4d.StreamingVariables() {
		p.Variables = append(p.Variables, m4d.Variable{Name: name, Value: "false"})
	}
	return p
}
