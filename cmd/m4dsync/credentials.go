package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"m4dsync/internal/config"
	"m4dsync/internal/services"
)

// resolveCredentials fills an empty api key and organization by prompting
// on in. Without a terminal, missing values are a configuration error.
func resolveCredentials(cfg *config.Config, in io.Reader, prompt io.Writer, interactive bool) error {
	cfg.API.APIKey = strings.TrimSpace(cfg.API.APIKey)
	cfg.API.Organization = strings.TrimSpace(cfg.API.Organization)
	if cfg.API.APIKey != "" && cfg.API.Organization != "" {
		return nil
	}
	if !interactive || in == nil {
		var missing []string
		if cfg.API.APIKey == "" {
			missing = append(missing, "api key (set api.api_key or M4D_API_KEY)")
		}
		if cfg.API.Organization == "" {
			missing = append(missing, "organization (set api.organization or M4D_ORG)")
		}
		return services.Wrap(services.ErrConfiguration, "cli", "credentials", "missing "+strings.Join(missing, " and "), nil)
	}

	reader := bufio.NewReader(in)
	if cfg.API.APIKey == "" {
		value, err := promptLine(reader, prompt, "Enter API key: ")
		if err != nil {
			return err
		}
		if value == "" {
			return services.Wrap(services.ErrConfiguration, "cli", "credentials", "API key is required", nil)
		}
		cfg.API.APIKey = value
	}
	if cfg.API.Organization == "" {
		value, err := promptLine(reader, prompt, "Enter organization: ")
		if err != nil {
			return err
		}
		if value == "" {
			return services.Wrap(services.ErrConfiguration, "cli", "credentials", "organization is required", nil)
		}
		cfg.API.Organization = value
	}
	return nil
}

func promptLine(reader *bufio.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func isInteractive(in io.Reader) bool {
	file, ok := in.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
