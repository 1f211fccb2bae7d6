package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rsl-dev/rslpkg/cmd/rslpkg/internal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	internal.Execute(ctx)
}
