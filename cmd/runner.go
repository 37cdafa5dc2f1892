package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gpxup/internal/repositories"
	"github.com/desertthunder/gpxup/internal/services"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/desertthunder/gpxup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	service    services.TraceService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.TraceService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, tracesCommand, uploadCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newEngine builds an UploadEngine wired to the upload history database.
//
// History recording is best effort: if the database cannot be opened the
// engine runs without a recorder and the run proceeds. The returned cleanup
// function closes the database and is safe to call unconditionally.
func (r *Runner) newEngine(opts tasks.UploadOptions) (*tasks.UploadEngine, func()) {
	cleanup := func() {}

	var recorder tasks.UploadRecorder
	if !opts.DryRun && r.config.Database.Path != "" {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			r.logger.Warn("upload history unavailable", "error", err)
		} else if err := shared.RunMigrations(db); err != nil {
			r.logger.Warn("upload history unavailable", "error", err)
			db.Close()
		} else {
			shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
			recorder = repositories.NewUploadLogAdapter(repositories.NewUploadRepository(db))
			cleanup = func() { db.Close() }
		}
	}

	return tasks.NewUploadEngine(r.service, opts, recorder), cleanup
}

// uploadOptions resolves per-run upload settings from config plus command flags.
func (r *Runner) uploadOptions(cmd *cli.Command) (tasks.UploadOptions, error) {
	visibility := r.config.Upload.Visibility
	if v := cmd.String("visibility"); v != "" {
		visibility = v
	}

	parsed, err := services.ParseVisibility(visibility)
	if err != nil {
		return tasks.UploadOptions{}, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	description := r.config.Upload.Description
	if d := cmd.String("description"); d != "" {
		description = d
	}

	tags := r.config.Upload.Tags
	if t := cmd.StringSlice("tag"); len(t) > 0 {
		tags = t
	}

	return tasks.UploadOptions{
		Visibility:  parsed,
		Description: description,
		Tags:        tags,
		DryRun:      cmd.Bool("dry-run"),
	}, nil
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
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
