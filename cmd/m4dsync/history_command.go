package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"m4dsync/internal/journal"
	"m4dsync/internal/services"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var filter journal.Filter

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent reconciliation outcomes from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return services.Wrap(services.ErrConfiguration, "cli", "history", "journal is disabled ([journal] enabled = false)", nil)
			}
			j, err := journal.Open(cfg.Paths.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			filter.SiteID = strings.TrimSpace(filter.SiteID)
			filter.RunID = strings.TrimSpace(filter.RunID)
			entries, err := j.Recent(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No journal entries")
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				player := ""
				if e.PlayerID != 0 {
					player = strconv.FormatInt(e.PlayerID, 10)
					if e.PlayerLabel != "" {
						player += " " + e.PlayerLabel
					}
				}
				rows = append(rows, []string{
					e.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					e.Driver,
					e.SiteID,
					player,
					statusCell(e.Outcome, outcomeOK(e.Outcome), colorize),
					e.Note,
				})
			}
			fmt.Fprint(out, renderTable(
				[]string{"Recorded", "Driver", "Site", "Player", "Outcome", "Note"},
				rows,
				nil,
			))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.SiteID, "site", "", "Only show entries for this site")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show entries for this run id")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "Maximum number of entries")
	return cmd
}

func outcomeOK(outcome string) bool {
	switch outcome {
	case journal.OutcomeResolved, journal.OutcomeUpdated, journal.OutcomeCorrected:
		return true
	default:
		return false
	}
}
