// submodule admin contains origin, cache, open, and mock command actions
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/tannerhaus/vdx/internal/server"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/urfave/cli/v3"
)

// OriginGet prints the resolved API origin and where it came from.
func (r *Runner) OriginGet(ctx context.Context, cmd *cli.Command) error {
	source := "default"
	override := ""

	if r.settings != nil {
		stored, err := r.settings.OriginOverride()
		if err != nil {
			return err
		}
		override = stored
	}

	switch {
	case override != "":
		source = "override"
	case os.Getenv(shared.EnvOrigin) != "":
		source = "environment"
	case r.config.API.Origin != "":
		source = "config"
	}

	fmt.Fprintf(r.output, "%s (%s)\n", r.config.ResolveOrigin(override), source)
	return nil
}

// OriginSet stores a local API origin override in the cache database.
func (r *Runner) OriginSet(ctx context.Context, cmd *cli.Command) error {
	raw := cmd.StringArg("url")
	if raw == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if err := r.requireCache(); err != nil {
		return err
	}

	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %q", shared.ErrInvalidOrigin, raw)
	}

	origin := strings.TrimRight(raw, "/")
	if err := r.settings.SetOriginOverride(origin); err != nil {
		return err
	}
	fmt.Fprintf(r.output, "origin override set to %s\n", origin)
	return nil
}

// OriginClear removes the local API origin override.
func (r *Runner) OriginClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}
	if err := r.settings.ClearOriginOverride(); err != nil {
		return err
	}
	fmt.Fprintln(r.output, "origin override cleared")
	return nil
}

// CacheShow lists cached resource snapshots.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	infos, err := r.snapshots.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(r.output, "no cached snapshots")
		return nil
	}
	for _, info := range infos {
		fmt.Fprintf(r.output, "%s\t%s\n", info.Resource, info.FetchedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// CacheClear drops all cached snapshots.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}
	if err := r.snapshots.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(r.output, "cache cleared")
	return nil
}

// Open opens the download server's web dashboard in the system browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	dashboard := shared.DashboardURL(r.origin)
	r.logger.Info("opening dashboard", "url", dashboard)
	return shared.OpenBrowser(dashboard)
}

// Mock runs the development stub server until interrupted.
func (r *Runner) Mock(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	srv := server.New(server.Opts{
		Addr:        cmd.String("addr"),
		Logger:      r.logger,
		Tick:        cmd.Duration("tick"),
		IdleTimeout: cmd.Duration("idle-timeout"),
	})
	return srv.ListenAndServe(ctx)
}
