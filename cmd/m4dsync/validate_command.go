package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"m4dsync/internal/preflight"
	"m4dsync/internal/reconcile"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check city, reseller and sector codes across the fleet and correct invalid ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := withInterrupt(cmd.Context())
			defer stop()
			runCtx, s, err := ctx.openSession(runCtx, cmd, reconcile.DriverValidate,
				preflight.InputSiteSheet, preflight.InputDictionaries)
			if err != nil {
				return err
			}
			defer s.Close()
			if cmd.Flags().Changed("limit") {
				s.cfg.Reconcile.ValidateLimit = limit
			}
			if err := ctx.connect(cmd, s); err != nil {
				return err
			}

			validator, err := reconcile.NewValidator(s.env)
			if err != nil {
				return err
			}
			summary, runErr := validator.Run(runCtx)
			if summary.ReportPath == "" {
				return reportInterrupt(cmd.ErrOrStderr(), runErr)
			}

			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Players in system", strconv.Itoa(summary.TotalPlayers)},
				{"Players checked", strconv.Itoa(summary.Checked)},
				{"Invalid city", strconv.Itoa(summary.InvalidCity)},
				{"Invalid reseller", strconv.Itoa(summary.InvalidReseller)},
				{"Invalid sector", strconv.Itoa(summary.InvalidSector)},
				{"Corrected", strconv.Itoa(summary.Corrected)},
				{"Errors", strconv.Itoa(summary.Errors)},
			}
			fmt.Fprint(out, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Report written to %s\n", summary.ReportPath)
			s.printRunHint(out)
			return reportInterrupt(cmd.ErrOrStderr(), runErr)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Validate at most this many players (0 for all)")
	return cmd
}
