package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/devtv/devtv/internal/client/cli"
	"github.com/devtv/devtv/internal/client/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	cmd := cli.NewRootCmd(cfg, cli.OpenAuthService, os.Stdin)

	if err := cli.Execute(ctx, cmd); err != nil {
		stop()
		os.Exit(1)
	}
}
