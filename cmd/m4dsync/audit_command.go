package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"m4dsync/internal/preflight"
	"m4dsync/internal/reconcile"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Flag sites whose players miss mandatory attributes",
		Long: "Audit checks every site in the sheet for players missing a city, reseller, ISP\n" +
			"or streaming variable and writes the flagged sites to the backlog for the batch command.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := withInterrupt(cmd.Context())
			defer stop()
			runCtx, s, err := ctx.openSession(runCtx, cmd, reconcile.DriverAudit,
				preflight.InputSiteSheet, preflight.InputDictionaries)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := ctx.connect(cmd, s); err != nil {
				return err
			}

			auditor, err := reconcile.NewAuditor(s.env)
			if err != nil {
				return err
			}
			summary, err := auditor.Run(runCtx)
			if err != nil {
				return reportInterrupt(cmd.ErrOrStderr(), err)
			}

			out := cmd.OutOrStdout()
			if len(summary.Flagged) > 0 {
				rows := make([][]string, 0, len(summary.Flagged))
				for _, entry := range summary.Flagged {
					rows = append(rows, []string{entry.SiteID, entry.Note})
				}
				fmt.Fprint(out, renderTable([]string{"Site", "Note"}, rows, nil))
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Checked %d site(s), %d flagged; written to %s\n",
				summary.SitesChecked, len(summary.Flagged), summary.Path)
			s.printRunHint(out)
			return nil
		},
	}
}
