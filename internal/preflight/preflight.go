package preflight

import (
	"context"
	"fmt"
	"strings"

	"m4dsync/internal/config"
	"m4dsync/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Input names a mandatory input file.
type Input int

const (
	InputSiteSheet Input = iota
	InputDictionaries
	InputBacklog
)

// RunAll checks the requested input files and the output directory.
func RunAll(_ context.Context, cfg *config.Config, inputs ...Input) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, input := range inputs {
		switch input {
		case InputSiteSheet:
			results = append(results, CheckInputFile("Site sheet", cfg.Paths.SiteSheet))
		case InputDictionaries:
			results = append(results, CheckInputFile("Dictionaries", cfg.Paths.Dictionaries))
		case InputBacklog:
			results = append(results, CheckInputFile("Backlog", cfg.Paths.Backlog))
		}
	}

	// Output directory (always checked)
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	return results
}

// Err joins failed results into a configuration error, or returns nil when
// every check passed.
func Err(results []Result) error {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check", strings.Join(failed, "; "), nil)
}
