package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/gamelogs/internal/app"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(app.ExitCode(err))
}
