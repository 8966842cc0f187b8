package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeSheet()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SiteSheet, err = expandPath(strings.TrimSpace(c.Paths.SiteSheet)); err != nil {
		return fmt.Errorf("paths.site_sheet: %w", err)
	}
	if c.Paths.Dictionaries, err = expandPath(strings.TrimSpace(c.Paths.Dictionaries)); err != nil {
		return fmt.Errorf("paths.dictionaries: %w", err)
	}
	if c.Paths.Backlog, err = expandPath(strings.TrimSpace(c.Paths.Backlog)); err != nil {
		return fmt.Errorf("paths.backlog: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.JournalPath) == "" {
		c.Paths.JournalPath = defaultJournalPath
	}
	if c.Paths.JournalPath, err = expandPath(c.Paths.JournalPath); err != nil {
		return fmt.Errorf("paths.journal_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultBaseURL
	}
	c.API.APIKey = strings.TrimSpace(c.API.APIKey)
	if c.API.APIKey == "" {
		if value, ok := os.LookupEnv("M4D_API_KEY"); ok {
			c.API.APIKey = strings.TrimSpace(value)
		}
	}
	// M4D_ORG wins over the file so operators can switch organizations per run.
	if value, ok := os.LookupEnv("M4D_ORG"); ok && strings.TrimSpace(value) != "" {
		c.API.Organization = strings.TrimSpace(value)
	}
	c.API.Organization = strings.TrimSpace(c.API.Organization)
	c.API.TokenPolicy = strings.ToLower(strings.TrimSpace(c.API.TokenPolicy))
	c.API.TokenPolicy = strings.ReplaceAll(c.API.TokenPolicy, "-", "_")
	if c.API.TokenPolicy == "" {
		c.API.TokenPolicy = defaultTokenPolicy
	}
}

func (c *Config) normalizeSheet() {
	encodings := make([]string, 0, len(c.Sheet.Encodings))
	for _, enc := range c.Sheet.Encodings {
		enc = strings.ToLower(strings.TrimSpace(enc))
		if enc != "" {
			encodings = append(encodings, enc)
		}
	}
	if len(encodings) == 0 {
		encodings = DefaultEncodings()
	}
	c.Sheet.Encodings = encodings
	c.Sheet.SiteColumn = strings.TrimSpace(c.Sheet.SiteColumn)
	c.Sheet.CityColumn = strings.TrimSpace(c.Sheet.CityColumn)
	c.Sheet.ResellerColumn = strings.TrimSpace(c.Sheet.ResellerColumn)
	c.Sheet.ISPColumn = strings.TrimSpace(c.Sheet.ISPColumn)
	c.Sheet.SectorColumn = strings.TrimSpace(c.Sheet.SectorColumn)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
