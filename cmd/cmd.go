// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage OpenStreetMap authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with OpenStreetMap using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state (calls user details)",
				Action: r.AuthStatus,
			},
		},
	}
}

// tracesCommand handles remote trace operations
func tracesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "traces",
		Aliases: []string{"tr"},
		Usage:   "Remote GPS trace operations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List traces on the remote account",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of traces to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.TracesList,
			},
		},
	}
}

// uploadFlags are shared by every command that performs uploads.
func uploadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "visibility",
			Usage: "Trace visibility (public, identifiable, trackable, private)",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Description appended after the trace name",
		},
		&cli.StringSliceFlag{
			Name:  "tag",
			Usage: "Tag applied to uploaded traces (repeatable)",
		},
	}
}

// uploadCommand handles trace upload operations
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload local GPX files, skipping traces already on the remote",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Reconcile a directory of GPX files against the remote account",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: append([]cli.Flag{
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Resolve verdicts without uploading",
					},
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write a run report (csv, markdown or text)",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Base path for the report file(s)",
					},
				}, uploadFlags()...),
				Action: r.UploadRun,
			},
			{
				Name:  "status",
				Usage: "Show per-file verdicts without uploading",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "dir"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.UploadStatus,
			},
		},
	}
}

// historyCommand shows the local upload log
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show locally recorded uploads",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "visibility",
				Usage: "Filter by visibility",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path for the configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive uploads.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for trace uploads",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "dir"},
		},
		Flags:  uploadFlags(),
		Action: r.TUI,
	}
}
