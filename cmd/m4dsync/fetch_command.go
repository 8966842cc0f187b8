package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"m4dsync/internal/reconcile"
	"m4dsync/internal/services"
)

func newFetchPlayerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-player <player-id>",
		Short: "Print the raw directory reply for one player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "fetch-player", fmt.Sprintf("invalid player id %q", args[0]), nil)
			}

			runCtx, stop := withInterrupt(cmd.Context())
			defer stop()
			runCtx, s, err := ctx.openSession(runCtx, cmd, reconcile.DriverFetch)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := ctx.connect(cmd, s); err != nil {
				return err
			}
			return reconcile.DumpPlayer(runCtx, s.client, id, cmd.OutOrStdout())
		},
	}
}
