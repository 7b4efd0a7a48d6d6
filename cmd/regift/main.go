package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"regift/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !interrupted(err) {
			fmt.Fprintln(os.Stderr, "regift:", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for requests regift rejected, 130 for interrupts, and 1 for
// every other failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrInvalidRequest):
		return 2
	case interrupted(err):
		return 130
	default:
		return 1
	}
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, services.ErrCanceled)
}
