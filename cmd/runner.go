package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tannerhaus/vdx/internal/api"
	"github.com/tannerhaus/vdx/internal/repositories"
	"github.com/tannerhaus/vdx/internal/shared"
	"github.com/tannerhaus/vdx/internal/stream"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config    *shared.Config
	origin    string
	api       *api.Client
	streams   *stream.Client
	logger    *log.Logger
	output    io.Writer
	db        *sql.DB
	settings  *repositories.SettingsRepository
	snapshots *repositories.SnapshotRepository
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Origin     string
	API        *api.Client
	Streams    *stream.Client
	Logger     *log.Logger
	Output     io.Writer
	DB         *sql.DB
	Settings   *repositories.SettingsRepository
	Snapshots  *repositories.SnapshotRepository
	HTTPClient *http.Client
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Origin == "" {
		opts.Origin = opts.Config.ResolveOrigin("")
	}
	if opts.API == nil {
		opts.API = api.NewClient(opts.Origin, opts.HTTPClient)
	}
	if opts.Streams == nil {
		// Stream connections are long-lived: no client timeout.
		opts.Streams = stream.NewClient(&http.Client{}, opts.Logger)
	}

	return &Runner{
		config:    opts.Config,
		origin:    opts.Origin,
		api:       opts.API,
		streams:   opts.Streams,
		logger:    opts.Logger,
		output:    opts.Output,
		db:        opts.DB,
		settings:  opts.Settings,
		snapshots: opts.Snapshots,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, watchCommand, listsCommand, videosCommand, tasksCommand,
		historyCommand, progressCommand, originCommand, cacheCommand,
		openCommand, mockCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. for file logging while the TUI
// owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	fmt.Fprintln(r.output, string(output))
	return nil
}

// requireCache returns the local cache repositories or an error when the
// database could not be opened at startup.
func (r *Runner) requireCache() error {
	if r.db == nil || r.settings == nil || r.snapshots == nil {
		return fmt.Errorf("%w: local cache database unavailable", shared.ErrServiceUnavailable)
	}
	return nil
}

// filtersFromFlags assembles [api.Filters] from the common query flags.
func filtersFromFlags(cmd *cli.Command) api.Filters {
	f := api.Filters{
		Search:     cmd.String("search"),
		Status:     cmd.String("status"),
		EntityType: cmd.String("type"),
	}
	if cmd.IsSet("downloaded") {
		f.Downloaded = api.Bool(cmd.Bool("downloaded"))
	}
	if cmd.IsSet("failed") {
		f.Failed = api.Bool(cmd.Bool("failed"))
	}
	if cmd.IsSet("blacklisted") {
		f.Blacklisted = api.Bool(cmd.Bool("blacklisted"))
	}
	return f
}

func paginationFromFlags(cmd *cli.Command) api.Pagination {
	return api.Pagination{
		Page:     int(cmd.Int("page")),
		PageSize: int(cmd.Int("page-size")),
	}
}
