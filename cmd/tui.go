package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/desertthunder/gpxup/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for trace uploads.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		dir = "."
	}

	if r.service == nil {
		return fmt.Errorf("%w: OSM service not initialized", shared.ErrServiceUnavailable)
	}

	opts, err := r.uploadOptions(cmd)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/gpxup-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	engine, cleanup := r.newEngine(opts)
	defer cleanup()

	previewOpts := opts
	previewOpts.DryRun = true
	preview, previewCleanup := r.newEngine(previewOpts)
	defer previewCleanup()

	model := ui.NewModel(ctx, dir, engine, preview)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
