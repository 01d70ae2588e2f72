// submodule views contains one-shot resource command actions
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/tannerhaus/vdx/internal/formatter"
	"github.com/tannerhaus/vdx/internal/models"
	"github.com/tannerhaus/vdx/internal/progress"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/tannerhaus/vdx/internal/stream"
	"github.com/urfave/cli/v3"
)

// Lists fetches video lists and renders them as a table, CSV, or JSON.
func (r *Runner) Lists(ctx context.Context, cmd *cli.Command) error {
	var page models.VideoListPage
	if err := r.fetchResource(ctx, cmd, "lists", &page, func(ctx context.Context) (any, error) {
		return r.api.FetchLists(ctx, filtersFromFlags(cmd), paginationFromFlags(cmd))
	}); err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"), cmd.Bool("pretty"):
		return r.writeJSON(page, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.ListsToCSV(&page)
		if err != nil {
			return err
		}
		fmt.Fprint(r.output, string(data))
		return nil
	default:
		fmt.Fprint(r.output, formatter.ListsToTable(&page))
		return nil
	}
}

// Videos fetches one list's videos.
func (r *Runner) Videos(ctx context.Context, cmd *cli.Command) error {
	listID := cmd.Int("list")
	resource := fmt.Sprintf("lists/%d/videos", listID)

	var page models.VideoPage
	if err := r.fetchResource(ctx, cmd, resource, &page, func(ctx context.Context) (any, error) {
		return r.api.FetchListVideos(ctx, int64(listID), filtersFromFlags(cmd), paginationFromFlags(cmd))
	}); err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"), cmd.Bool("pretty"):
		return r.writeJSON(page, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.VideosToCSV(&page)
		if err != nil {
			return err
		}
		fmt.Fprint(r.output, string(data))
		return nil
	default:
		fmt.Fprint(r.output, formatter.VideosToTable(&page))
		return nil
	}
}

// Tasks fetches the task queues.
func (r *Runner) Tasks(ctx context.Context, cmd *cli.Command) error {
	var page models.TaskPage
	if err := r.fetchResource(ctx, cmd, "tasks", &page, func(ctx context.Context) (any, error) {
		return r.api.FetchTasks(ctx, filtersFromFlags(cmd), paginationFromFlags(cmd))
	}); err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"), cmd.Bool("pretty"):
		return r.writeJSON(page, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.TasksToCSV(&page)
		if err != nil {
			return err
		}
		fmt.Fprint(r.output, string(data))
		return nil
	default:
		fmt.Fprint(r.output, formatter.TasksToTable(&page))
		return nil
	}
}

// History fetches finished runs.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	var page models.HistoryPage
	if err := r.fetchResource(ctx, cmd, "history", &page, func(ctx context.Context) (any, error) {
		return r.api.FetchHistory(ctx, filtersFromFlags(cmd), paginationFromFlags(cmd))
	}); err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"), cmd.Bool("pretty"):
		return r.writeJSON(page, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.HistoryToCSV(&page)
		if err != nil {
			return err
		}
		fmt.Fprint(r.output, string(data))
		return nil
	default:
		fmt.Fprint(r.output, formatter.HistoryToTable(&page))
		return nil
	}
}

// Progress prints the current download progress map, or with --follow stays
// subscribed to the progress stream and reprints on every update.
func (r *Runner) Progress(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("follow") {
		m, err := r.api.FetchProgress(ctx)
		if err != nil {
			return err
		}
		if cmd.Bool("json") || cmd.Bool("pretty") {
			return r.writeJSON(m, cmd.Bool("pretty"))
		}
		fmt.Fprint(r.output, formatter.ProgressToTable(m))
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	store := progress.NewStore(progress.StoreOpts{
		Client:             r.streams,
		Origin:             r.origin,
		Activity:           stream.AlwaysActive(),
		Logger:             r.logger,
		MinConnectInterval: r.config.Stream.ReconnectMinInterval(),
	})
	defer store.Shutdown()

	handle := store.Subscribe()
	defer handle.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-handle.Updates():
			if !ok {
				return nil
			}
			if cmd.Bool("json") || cmd.Bool("pretty") {
				if err := r.writeJSON(m, cmd.Bool("pretty")); err != nil {
					return err
				}
				continue
			}
			fmt.Fprint(r.output, formatter.ProgressToTable(m))
		}
	}
}

// fetchResource runs a one-shot fetch, caches the result, and falls back to
// the cached snapshot when the server is unreachable. With --cached the fetch
// is skipped entirely. The fetched or cached payload ends up in dst.
func (r *Runner) fetchResource(ctx context.Context, cmd *cli.Command, resource string, dst any, fetch func(context.Context) (any, error)) error {
	if cmd.Bool("cached") {
		return r.loadSnapshot(resource, dst)
	}

	page, err := fetch(ctx)
	if err != nil {
		if r.snapshots == nil {
			return err
		}
		r.logger.Warn("fetch failed, trying cached snapshot", "resource", resource, "error", err)
		if cacheErr := r.loadSnapshot(resource, dst); cacheErr != nil {
			return err
		}
		return nil
	}

	if r.snapshots != nil {
		if err := r.snapshots.Save(resource, page); err != nil {
			r.logger.Warn("failed to cache snapshot", "resource", resource, "error", err)
		}
	}
	return copyPayload(page, dst)
}

func (r *Runner) loadSnapshot(resource string, dst any) error {
	if err := r.requireCache(); err != nil {
		return err
	}
	fetchedAt, err := r.snapshots.Load(resource, dst)
	if err != nil {
		return err
	}
	r.logger.Info("showing cached snapshot", "resource", resource, "fetched_at", fetchedAt)
	return nil
}

// copyPayload moves a fetched *Page value into the caller-typed destination.
func copyPayload(src, dst any) error {
	switch s := src.(type) {
	case *models.VideoListPage:
		*dst.(*models.VideoListPage) = *s
	case *models.VideoPage:
		*dst.(*models.VideoPage) = *s
	case *models.TaskPage:
		*dst.(*models.TaskPage) = *s
	case *models.HistoryPage:
		*dst.(*models.HistoryPage) = *s
	default:
		return fmt.Errorf("%w: unexpected payload type %T", shared.ErrAPIRequest, src)
	}
	return nil
}
