// Package main implements the entry point for the flashcards server, which
// serves decks, cards, study sessions, statistics and backups over HTTP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// run wires the application from command-line args and serves until ctx is
// canceled.
func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("scry-flashcards", pflag.ContinueOnError)
	cfg, err := loadAppConfig(flags, args)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.startHTTPServer(ctx, app.setupRouter())
}
