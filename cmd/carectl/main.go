// Package main is the entry point for carectl, the operator CLI of the
// schedule engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"carecal/internal/app"
	"carecal/internal/cli"
	"carecal/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "carectl:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Command output goes to stdout; logs stay on stderr and default to warn.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: app.ParseLevel(level)}))

	root := cli.NewRootCommand(cli.DefaultOpener(logger), config.NewBuildInfo().String())
	return root.ExecuteContext(ctx)
}
