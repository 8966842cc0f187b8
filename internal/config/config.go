package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Token policies understood by the Media4Display client.
const (
	TokenPolicyPerRequest     = "per_request"
	TokenPolicyOnUnauthorized = "on_unauthorized"
)

// Paths contains input and output file locations.
type Paths struct {
	SiteSheet    string `toml:"site_sheet"`
	Dictionaries string `toml:"dictionaries"`
	Backlog      string `toml:"backlog"`
	OutputDir    string `toml:"output_dir"`
	LogDir       string `toml:"log_dir"`
	JournalPath  string `toml:"journal_path"`
}

// API contains Media4Display connection settings. Timeouts are in seconds.
type API struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Organization   string `toml:"organization"`
	TokenPolicy    string `toml:"token_policy"`
	TokenTimeout   int    `toml:"token_timeout"`
	RequestTimeout int    `toml:"request_timeout"`
	ListTimeout    int    `toml:"list_timeout"`
}

// Sheet describes the spreadsheet export: candidate text encodings in
// preference order and the header names of the columns we read.
type Sheet struct {
	Encodings      []string `toml:"encodings"`
	SiteColumn     string   `toml:"site_column"`
	CityColumn     string   `toml:"city_column"`
	ResellerColumn string   `toml:"reseller_column"`
	ISPColumn      string   `toml:"isp_column"`
	SectorColumn   string   `toml:"sector_column"`
}

// Reconcile contains driver behaviour switches.
type Reconcile struct {
	// WriteSector pushes M4DS_Sector during site updates (GENERAL when the
	// sheet value has no dictionary entry).
	WriteSector bool `toml:"write_sector"`
	// ValidateLimit caps how many players the validate command processes.
	// Zero processes the whole fleet.
	ValidateLimit int `toml:"validate_limit"`
}

// Journal controls the SQLite outcome journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	ToFile bool   `toml:"to_file"`
}

// Config encapsulates all configuration values for m4dsync.
//
// Configuration sections by subsystem:
//   - Paths: spreadsheet, dictionaries, backlog, outputs, logs, journal
//   - API: Media4Display base URL, credentials, token policy, timeouts
//   - Sheet: encodings and column headers of the spreadsheet export
//   - Reconcile: driver switches
//   - Journal: outcome journal toggle
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	API       API       `toml:"api"`
	Sheet     Sheet     `toml:"sheet"`
	Reconcile Reconcile `toml:"reconcile"`
	Journal   Journal   `toml:"journal"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/m4dsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/m4dsync/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("m4dsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output directory and, when enabled, the log
// and journal directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.OutputDir}
	if c.Logging.ToFile {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.Journal.Enabled {
		dirs = append(dirs, filepath.Dir(c.Paths.JournalPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DirectoryConfig contains the resolved settings for the Media4Display client.
type DirectoryConfig struct {
	BaseURL        string
	APIKey         string
	Organization   string
	TokenPolicy    string
	TokenTimeout   time.Duration
	RequestTimeout time.Duration
	ListTimeout    time.Duration
}

// Directory returns the Media4Display client settings with timeouts converted
// to durations.
func (c *Config) Directory() DirectoryConfig {
	return DirectoryConfig{
		BaseURL:        strings.TrimSpace(c.API.BaseURL),
		APIKey:         strings.TrimSpace(c.API.APIKey),
		Organization:   strings.TrimSpace(c.API.Organization),
		TokenPolicy:    c.API.TokenPolicy,
		TokenTimeout:   time.Duration(c.API.TokenTimeout) * time.Second,
		RequestTimeout: time.Duration(c.API.RequestTimeout) * time.Second,
		ListTimeout:    time.Duration(c.API.ListTimeout) * time.Second,
	}
}

// LogFilePath returns the log file location, or "" when file logging is off.
func (c *Config) LogFilePath() string {
	if !c.Logging.ToFile || strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "m4dsync.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
