package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/desertthunder/gpxup/internal/formatter"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/desertthunder/gpxup/internal/tasks"
	"github.com/urfave/cli/v3"
)

// UploadRun reconciles a directory of GPX files against the remote account.
func (r *Runner) UploadRun(ctx context.Context, cmd *cli.Command) error {
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

	r.logger.Info("starting upload run", "dir", dir, "dry_run", opts.DryRun)
	if opts.DryRun {
		r.writePlain("Dry run: resolving verdicts for %s...\n\n", dir)
	} else {
		r.writePlain("Uploading GPX files from %s...\n\n", dir)
	}

	engine, cleanup := r.newEngine(opts)
	defer cleanup()

	// Progress goroutine prints updates as they arrive
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.ScanFiles:
				r.writePlain("📂 %s\n", update.Message)
			case tasks.FetchIndex:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Examine, tasks.Upload:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := engine.Reconcile(ctx, dir, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	if opts.DryRun {
		r.writePlainHeader("Dry Run Complete")
	} else {
		r.writePlainHeader("Upload Complete")
	}
	r.writePlain("Files: %d\n", result.Total)
	r.writePlain("Uploaded: %d\n", result.Uploaded)
	r.writePlain("Skipped: %d\n", result.Skipped)
	r.writePlain("Failed: %d\n", result.Failed)

	if result.Failed > 0 {
		r.writePlain("\n%d file(s) failed:\n", result.Failed)
		for _, fr := range result.Results {
			if fr.Err != nil {
				r.writePlain("  - %s: %v\n", filepath.Base(fr.File), fr.Err)
			}
		}
	}

	if report := cmd.String("report"); report != "" {
		if err := r.writeReport(result, report, cmd.String("output")); err != nil {
			return err
		}
	}

	return nil
}

// UploadStatus shows per-file verdicts without uploading anything.
func (r *Runner) UploadStatus(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.StringArg("dir")
	if dir == "" {
		dir = "."
	}

	if r.service == nil {
		return fmt.Errorf("%w: OSM service not initialized", shared.ErrServiceUnavailable)
	}

	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	opts := tasks.UploadOptions{DryRun: true}
	engine, cleanup := r.newEngine(opts)
	defer cleanup()

	r.logger.Info("resolving verdicts", "dir", dir)

	result, err := engine.Reconcile(ctx, dir, nil)
	if err != nil {
		return err
	}

	if useJSON {
		type verdict struct {
			File      string `json:"file"`
			TraceName string `json:"trace_name,omitempty"`
			Outcome   string `json:"outcome"`
			Error     string `json:"error,omitempty"`
		}
		verdicts := make([]verdict, 0, len(result.Results))
		for _, fr := range result.Results {
			v := verdict{File: fr.File, TraceName: fr.TraceName}
			if fr.Err != nil {
				v.Error = fr.Err.Error()
			}
			switch fr.Outcome {
			case tasks.OutcomeUploaded:
				v.Outcome = "pending"
			case tasks.OutcomeSkipped:
				v.Outcome = "skipped"
			case tasks.OutcomeFailed:
				v.Outcome = "unreadable"
			}
			verdicts = append(verdicts, v)
		}
		return r.writeJSON(verdicts, pretty)
	}

	r.writePlain("Found %d GPX file(s) in %s:\n\n", result.Total, dir)
	for _, fr := range result.Results {
		switch fr.Outcome {
		case tasks.OutcomeUploaded:
			r.writePlain("  ↑ %s (%s) will upload\n", filepath.Base(fr.File), fr.TraceName)
		case tasks.OutcomeSkipped:
			r.writePlain("  = %s (%s) already uploaded\n", filepath.Base(fr.File), fr.TraceName)
		case tasks.OutcomeFailed:
			r.writePlain("  ✗ %s unreadable: %v\n", filepath.Base(fr.File), fr.Err)
		}
	}
	r.writePlain("\nTo upload: %d, already uploaded: %d, unreadable: %d\n", result.Uploaded, result.Skipped, result.Failed)

	return nil
}

// writeReport exports the run result in the requested format.
func (r *Runner) writeReport(result *tasks.ReconcileResult, format, output string) error {
	switch format {
	case "csv":
		written, err := formatter.WriteCSVExport(result, output)
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Report written to %s and %s\n", written.ResultsFile, written.SummaryFile)
	case "markdown", "md":
		path := output
		if path != "" {
			path += ".md"
		}
		written, err := formatter.WriteMarkdownExport(result, path, "")
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Report written to %s\n", written)
	case "text", "txt":
		path := output
		if path != "" {
			path += ".txt"
		}
		written, err := formatter.WriteTextExport(result, path)
		if err != nil {
			return err
		}
		r.writePlain("\n✓ Report written to %s\n", written)
	default:
		return fmt.Errorf("%w: unknown report format %q (must be csv, markdown or text)", shared.ErrInvalidFlag, format)
	}

	return nil
}
