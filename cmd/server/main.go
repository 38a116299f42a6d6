// Package main implements the entry point for the to-do API server.
// It loads configuration, connects to PostgreSQL, wires the services and
// serves the HTTP API until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/todo-api/internal/platform/postgres"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("todo-api: %v", err)
	}
}

// run parses args, then either applies a migration command and returns or
// serves until SIGINT/SIGTERM.
func run(args []string) error {
	fs := pflag.NewFlagSet("todo-api", pflag.ContinueOnError)
	migrate := registerServerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAppConfig(fs)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *migrate != "" {
		defer func() { _ = db.Close() }()
		if err := postgres.Migrate(ctx, db, *migrate, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	}

	checkSchema(ctx, db, logger)

	app, err := newApplication(cfg, logger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
