package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// withInterrupt cancels ctx on SIGINT or SIGTERM.
func withInterrupt(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// reportInterrupt prints a notice when err is a cancellation and returns err
// unchanged.
func reportInterrupt(w io.Writer, err error) error {
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, "Interrupted; partial results were saved.")
	}
	return err
}
