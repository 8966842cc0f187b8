package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateSheet(); err != nil {
		return err
	}
	if err := c.validateReconcile(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SiteSheet) == "" {
		return errors.New("paths.site_sheet must be set")
	}
	if strings.TrimSpace(c.Paths.Dictionaries) == "" {
		return errors.New("paths.dictionaries must be set")
	}
	if strings.TrimSpace(c.Paths.Backlog) == "" {
		return errors.New("paths.backlog must be set")
	}
	return nil
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	switch c.API.TokenPolicy {
	case TokenPolicyPerRequest, TokenPolicyOnUnauthorized:
	default:
		return fmt.Errorf("api.token_policy must be %q or %q, got %q", TokenPolicyPerRequest, TokenPolicyOnUnauthorized, c.API.TokenPolicy)
	}
	return ensurePositiveMap(map[string]int{
		"api.token_timeout":   c.API.TokenTimeout,
		"api.request_timeout": c.API.RequestTimeout,
		"api.list_timeout":    c.API.ListTimeout,
	})
}

func (c *Config) validateSheet() error {
	if len(c.Sheet.Encodings) == 0 {
		return errors.New("sheet.encodings must list at least one encoding")
	}
	columns := map[string]string{
		"sheet.site_column":     c.Sheet.SiteColumn,
		"sheet.city_column":     c.Sheet.CityColumn,
		"sheet.reseller_column": c.Sheet.ResellerColumn,
		"sheet.isp_column":      c.Sheet.ISPColumn,
		"sheet.sector_column":   c.Sheet.SectorColumn,
	}
	for key, value := range columns {
		if value == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateReconcile() error {
	if c.Reconcile.ValidateLimit < 0 {
		return errors.New("reconcile.validate_limit must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive (seconds)", key)
		}
	}
	return nil
}
