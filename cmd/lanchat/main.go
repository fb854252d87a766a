package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/templui/lanchat/cmd/lanchat/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
