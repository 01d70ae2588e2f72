// submodule setup initializes local configuration and the cache database
package main

import (
	"context"
	"fmt"

	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the embedded example and initializes the
// local cache database with its schema.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "created %s\n", path)

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config

	db := r.db
	if db == nil {
		db, err = shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open cache database: %w", err)
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		r.db = db
	}

	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to migrate cache database: %w", err)
	}
	fmt.Fprintf(r.output, "cache database ready at %s\n", config.Database.Path)

	return nil
}
