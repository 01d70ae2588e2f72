package main

import (
	"context"
	"errors"
	"os"

	"github.com/tannerhaus/vdx/internal/api"
	"github.com/tannerhaus/vdx/internal/repositories"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	opts := RunnerOpts{Config: config, Logger: logger}

	// The cache database is optional: commands that need it fail with a
	// clear error, everything else works without it.
	if db, err := shared.NewDatabase(config.Database.Path); err == nil {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("cache migrations failed", "error", err)
		} else {
			opts.DB = db
			opts.Settings = repositories.NewSettingsRepository(db)
			opts.Snapshots = repositories.NewSnapshotRepository(db)
		}
	} else {
		logger.Debug("cache database unavailable", "path", config.Database.Path, "error", err)
	}

	override := ""
	if opts.Settings != nil {
		if stored, err := opts.Settings.OriginOverride(); err == nil {
			override = stored
		}
	}
	opts.Origin = config.ResolveOrigin(override)
	opts.API = api.NewClient(opts.Origin, nil)

	runner := NewRunner(opts)

	app := &cli.Command{
		Name:     "vdx",
		Usage:    "Follow and inspect a video download server from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
