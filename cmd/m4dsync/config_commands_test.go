package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitCreatesSample(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "m4dsync.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout, "Wrote sample configuration to "+target)
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config: %v", err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsInputs(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, stdout, "Config path: "+env.configPath)
	requireContains(t, stdout, "Site sheet")
	requireContains(t, stdout, "Dictionaries")
	requireContains(t, stdout, "Configuration valid")
}

func TestConfigValidateChecksAPI(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	stdout, _, err := runCLI(t, []string{"config", "validate", "--check-api"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate --check-api: %v", err)
	}
	requireContains(t, stdout, "Media4Display API")
	requireContains(t, stdout, "token issued")
}

func TestConfigValidateFailsOnMissingDictionaries(t *testing.T) {
	env := setupCLITestEnv(t, nil)
	if err := os.Remove(env.cfg.Paths.Dictionaries); err != nil {
		t.Fatalf("remove dictionaries: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err == nil {
		t.Fatal("expected validation failure")
	}
	requireContains(t, stdout, "file not found")
	requireContains(t, err.Error(), "Dictionaries")
}

func TestConfigShowMasksAPIKey(t *testing.T) {
	env := setupCLITestEnv(t, nil)

	stdout, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, stdout, "********")
	requireContains(t, stdout, env.server.URL)
	if strings.Contains(stdout, "test-key") {
		t.Fatalf("api key leaked in output:\n%s", stdout)
	}
}
