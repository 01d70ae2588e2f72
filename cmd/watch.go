// submodule watch launches the live terminal dashboard
package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tannerhaus/vdx/internal/progress"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/tannerhaus/vdx/internal/stream"
	"github.com/tannerhaus/vdx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Watch starts the bubbletea dashboard. Logging is redirected to a file
// while the TUI owns the terminal, and the shared progress store is shut
// down when the program exits.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	logPath := r.config.UI.LogFile
	if logPath == "" {
		logPath = "tmp/vdx.log"
	}
	logger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return err
	}
	r.SetLogger(logger)

	// Terminal focus drives stream gating; assume focused at startup.
	activity := stream.NewSignal(true)

	store := progress.NewStore(progress.StoreOpts{
		Client:             r.streams,
		Origin:             r.origin,
		Activity:           activity,
		Logger:             logger,
		MinConnectInterval: r.config.Stream.ReconnectMinInterval(),
	})
	defer store.Shutdown()

	model := ui.NewModel(ui.Deps{
		API:            r.api,
		Streams:        r.streams,
		Store:          store,
		Activity:       activity,
		Logger:         logger,
		Origin:         r.origin,
		PageSize:       r.config.UI.PageSize,
		ReconnectDelay: r.config.Stream.ReconnectDelay(),
	})

	program := tea.NewProgram(model,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard exited with error: %w", err)
	}
	return nil
}
