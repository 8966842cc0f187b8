package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"m4dsync/internal/preflight"
	"m4dsync/internal/reconcile"
	"m4dsync/internal/services"
	"m4dsync/internal/textutil"
)

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update [site-id]",
		Short: "Update every player of one site from the site sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := ctx.siteIDArg(cmd, args)
			if err != nil {
				return err
			}

			runCtx, stop := withInterrupt(cmd.Context())
			defer stop()
			runCtx, s, err := ctx.openSession(runCtx, cmd, reconcile.DriverUpdate, preflight.InputSiteSheet, preflight.InputDictionaries)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := ctx.connect(cmd, s); err != nil {
				return err
			}
			updater, err := reconcile.NewUpdater(s.env)
			if err != nil {
				return err
			}
			// A site the sheet cannot resolve fails before the fleet is listed.
			if _, err := updater.ResolveSite(siteID); err != nil {
				return err
			}
			all, err := s.client.ListPlayers(runCtx)
			if err != nil {
				return reportInterrupt(cmd.ErrOrStderr(), fmt.Errorf("list players: %w", err))
			}

			outcome := updater.UpdateSite(runCtx, siteID, all)
			out := cmd.OutOrStdout()
			if errors.Is(outcome.Err, reconcile.ErrNoPlayersMatched) {
				fmt.Fprintln(out, outcome.Note)
				return nil
			}
			renderSiteOutcome(cmd, outcome)
			if outcome.Err != nil {
				if errors.Is(outcome.Err, context.Canceled) {
					return reportInterrupt(cmd.ErrOrStderr(), outcome.Err)
				}
				if failed := outcome.Failed(); failed > 0 {
					return fmt.Errorf("site %s: %d of %d player(s) failed to update", siteID, failed, len(outcome.Players))
				}
				return reportInterrupt(cmd.ErrOrStderr(), outcome.Err)
			}
			fmt.Fprintf(out, "Site %s updated: %d player(s)\n", siteID, len(outcome.Players))
			s.printRunHint(out)
			return nil
		},
	}
}

func (c *commandContext) siteIDArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		if id := strings.TrimSpace(args[0]); id != "" {
			return id, nil
		}
	}
	if !isInteractive(c.stdin) {
		return "", services.Wrap(services.ErrValidation, "cli", "update", "site id argument is required", nil)
	}
	id, err := promptLine(bufio.NewReader(c.stdin), cmd.ErrOrStderr(), "Enter site ID: ")
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", services.Wrap(services.ErrValidation, "cli", "update", "site id is required", nil)
	}
	return id, nil
}

func renderSiteOutcome(cmd *cobra.Command, outcome reconcile.SiteOutcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	v := outcome.Values
	fmt.Fprintf(out, "Site %s: city %s, reseller %s, isp %s, sector %s\n",
		outcome.SiteID, textutil.OrPlaceholder(v.City), textutil.OrPlaceholder(v.Reseller),
		textutil.OrPlaceholder(v.ISP), textutil.OrPlaceholder(v.Sector))
	if len(outcome.Players) == 0 {
		return
	}
	rows := make([][]string, 0, len(outcome.Players))
	for _, p := range outcome.Players {
		result := statusCell("updated", true, colorize)
		switch {
		case p.Skipped:
			result = "skipped (no id)"
		case p.Err != nil:
			result = statusCell("failed: "+p.Err.Error(), false, colorize)
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.PlayerID, 10),
			p.Label,
			p.Class.String(),
			streamingLabel(p),
			result,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Player", "Class", "Streaming", "Result"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintln(out)
}

func streamingLabel(p reconcile.PlayerResult) string {
	switch {
	case p.Flags.Hot:
		return "hot"
	case p.Flags.Triple:
		return "triple"
	case p.Flags.VerticalHot:
		return "vertical hot"
	case p.Flags.VerticalTriple:
		return "vertical triple"
	default:
		return "none"
	}
}
