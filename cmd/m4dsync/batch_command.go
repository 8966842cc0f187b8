package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"m4dsync/internal/preflight"
	"m4dsync/internal/reconcile"
	"m4dsync/internal/textutil"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Process every site in the backlog and keep the unresolved ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := withInterrupt(cmd.Context())
			defer stop()
			runCtx, s, err := ctx.openSession(runCtx, cmd, reconcile.DriverBatch,
				preflight.InputSiteSheet, preflight.InputDictionaries, preflight.InputBacklog)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := ctx.connect(cmd, s); err != nil {
				return err
			}

			batch, err := reconcile.NewBatch(s.env)
			if err != nil {
				return err
			}
			summary, runErr := batch.Run(runCtx)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if len(summary.Outcomes) > 0 {
				rows := make([][]string, 0, len(summary.Outcomes))
				for _, outcome := range summary.Outcomes {
					result := statusCell(textutil.Ternary(outcome.Resolved, "resolved", "unresolved"), outcome.Resolved, colorize)
					rows = append(rows, []string{
						outcome.SiteID,
						strconv.Itoa(len(outcome.Players)),
						strconv.Itoa(outcome.Failed()),
						result,
						outcome.Note,
					})
				}
				fmt.Fprint(out, renderTable(
					[]string{"Site", "Players", "Failed", "Result", "Note"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				))
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Processed %d site(s): %d resolved, %d remaining in %s\n",
				summary.Processed, summary.Resolved, len(summary.Remaining), s.cfg.Paths.Backlog)
			if summary.Backup != "" {
				fmt.Fprintf(out, "Previous backlog saved to %s\n", summary.Backup)
			}
			s.printRunHint(out)
			return reportInterrupt(cmd.ErrOrStderr(), runErr)
		},
	}
}
