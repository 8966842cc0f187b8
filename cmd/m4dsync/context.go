package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"m4dsync/internal/config"
	"m4dsync/internal/dictionary"
	"m4dsync/internal/journal"
	"m4dsync/internal/logging"
	"m4dsync/internal/m4d"
	"m4dsync/internal/preflight"
	"m4dsync/internal/reconcile"
	"m4dsync/internal/services"
	"m4dsync/internal/sitesheet"
)

type commandContext struct {
	configFlag *string
	stdin      io.Reader

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, stdin io.Reader) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		stdin:      stdin,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// session holds the collaborators of one driver invocation.
type session struct {
	cfg     *config.Config
	runID   string
	logger  *slog.Logger
	journal *journal.Journal
	client  *m4d.Client
	env     reconcile.Env
}

// openSession runs preflight for inputs, builds the logger, stamps a run id
// on ctx, and loads the sheet and dictionaries when requested. It does not
// touch the network.
func (c *commandContext) openSession(ctx context.Context, cmd *cobra.Command, driver string, inputs ...preflight.Input) (context.Context, *session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ctx, nil, err
	}
	if err := preflight.Err(preflight.RunAll(ctx, cfg, inputs...)); err != nil {
		return ctx, nil, err
	}

	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	if err != nil {
		return ctx, nil, fmt.Errorf("init logger: %w", err)
	}

	s := &session{cfg: cfg, runID: uuid.NewString()}
	ctx = services.WithRunID(ctx, s.runID)
	ctx = services.WithDriver(ctx, driver)
	s.logger = logging.WithContext(ctx, logger)
	s.env = reconcile.Env{Config: cfg, Logger: logger}

	for _, input := range inputs {
		switch input {
		case preflight.InputDictionaries:
			dicts, err := dictionary.Load(cfg.Paths.Dictionaries)
			if err != nil {
				return ctx, nil, err
			}
			s.env.Dictionaries = dicts
			s.logger.Info("dictionaries loaded",
				logging.Int("cities", dicts.Len(dictionary.City)),
				logging.Int("resellers", dicts.Len(dictionary.Reseller)),
				logging.Int("isps", dicts.Len(dictionary.ISP)),
				logging.Int("sectors", dicts.Len(dictionary.Sector)),
			)
		case preflight.InputSiteSheet:
			sheet, err := sitesheet.Load(cfg.Paths.SiteSheet, sitesheet.OptionsFromConfig(cfg.Sheet))
			if err != nil {
				return ctx, nil, err
			}
			s.env.Sheet = sheet
			s.logger.Info("site sheet loaded",
				logging.String("encoding", sheet.Encoding()),
				logging.Int("sites", len(sheet.SiteIDs())),
			)
		}
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Paths.JournalPath)
		if err != nil {
			logging.WarnWithContext(s.logger, "journal unavailable; continuing without it", "journal_open_failed",
				logging.Error(err),
				logging.Hint("check paths.journal_path or set [journal] enabled = false"),
			)
		} else {
			s.journal = j
			s.env.Journal = j
		}
	}
	return ctx, s, nil
}

// connect resolves credentials and builds the directory client.
func (c *commandContext) connect(cmd *cobra.Command, s *session) error {
	if err := resolveCredentials(s.cfg, c.stdin, cmd.ErrOrStderr(), isInteractive(c.stdin)); err != nil {
		return err
	}
	client, err := m4d.New(s.cfg.Directory(), m4d.WithLogger(s.env.Logger))
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "cli", "directory client", "", err)
	}
	s.client = client
	s.env.Directory = client
	return nil
}

// printRunHint points at the journal entries of this run.
func (s *session) printRunHint(w io.Writer) {
	if s == nil || s.journal == nil {
		return
	}
	fmt.Fprintf(w, "Run %s recorded (m4dsync history --run %s)\n", s.runID, s.runID)
}

func (s *session) Close() {
	if s == nil {
		return
	}
	_ = s.journal.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
