// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// queryFlags are shared by every collection command.
func queryFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "search",
			Aliases: []string{"s"},
			Usage:   "Free-text search",
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number",
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Entries per page",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
		&cli.BoolFlag{
			Name:  "csv",
			Usage: "Output CSV",
		},
		&cli.BoolFlag{
			Name:  "cached",
			Usage: "Show the last cached snapshot instead of fetching",
		},
	}
	return append(flags, extra...)
}

// setupCommand initializes local configuration and the cache database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create config.toml and initialize the local cache database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// watchCommand launches the live dashboard
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Live terminal dashboard following the download server",
		Action:  r.Watch,
	}
}

// listsCommand shows video lists
func listsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "lists",
		Usage: "Show video lists with stats",
		Flags: queryFlags(
			&cli.StringFlag{
				Name:  "type",
				Usage: "Filter by entity type (channel, playlist)",
			},
		),
		Action: r.Lists,
	}
}

// videosCommand shows one list's videos
func videosCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "videos",
		Usage: "Show videos of one list",
		Flags: queryFlags(
			&cli.IntFlag{
				Name:     "list",
				Aliases:  []string{"l"},
				Usage:    "List ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by download status",
			},
			&cli.BoolFlag{
				Name:  "downloaded",
				Usage: "Filter by downloaded state",
			},
			&cli.BoolFlag{
				Name:  "failed",
				Usage: "Filter by failed state",
			},
			&cli.BoolFlag{
				Name:  "blacklisted",
				Usage: "Filter by blacklisted state",
			},
		),
		Action: r.Videos,
	}
}

// tasksCommand shows the task queues
func tasksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "Show queued and running tasks",
		Flags: queryFlags(
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by task status (pending, running)",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Filter by task type (sync, download)",
			},
		),
		Action: r.Tasks,
	}
}

// historyCommand shows finished runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show download and sync history",
		Flags: queryFlags(
			&cli.StringFlag{
				Name:  "status",
				Usage: "Filter by final status",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "Filter by task type (sync, download)",
			},
		),
		Action: r.History,
	}
}

// progressCommand shows or follows the live progress map
func progressCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show the current download progress map",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "follow",
				Aliases: []string{"f"},
				Usage:   "Stay subscribed and reprint on every update",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
			},
		},
		Action: r.Progress,
	}
}

// originCommand manages the local API-origin override
func originCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "origin",
		Usage: "Manage the API origin override",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print the resolved API origin and its source",
				Action: r.OriginGet,
			},
			{
				Name:  "set",
				Usage: "Store a local API origin override",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "url"},
				},
				Action: r.OriginSet,
			},
			{
				Name:   "clear",
				Usage:  "Remove the local API origin override",
				Action: r.OriginClear,
			},
		},
	}
}

// cacheCommand manages cached snapshots
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage cached resource snapshots",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "List cached snapshots",
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Drop all cached snapshots",
				Action: r.CacheClear,
			},
		},
	}
}

// openCommand opens the server's web dashboard
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "open",
		Usage:  "Open the download server's web dashboard in a browser",
		Action: r.Open,
	}
}

// mockCommand runs the development stub server
func mockCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "mock",
		Usage: "Run a mock download server with synthetic data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "127.0.0.1:8080",
			},
			&cli.DurationFlag{
				Name:  "tick",
				Usage: "Interval between stream pushes",
			},
			&cli.DurationFlag{
				Name:  "idle-timeout",
				Usage: "Stream lifetime before the timeout sentinel",
			},
		},
		Action: r.Mock,
	}
}
