package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/gpxup/internal/repositories"
	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists locally recorded uploads, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	visibility := cmd.String("visibility")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open upload history: %w (run 'gpxup setup database' first)", err)
	}
	defer db.Close()

	repo := repositories.NewUploadRepository(db)

	criteria := map[string]any{}
	if limit > 0 {
		criteria["limit"] = int(limit)
	}
	if visibility != "" {
		criteria["visibility"] = visibility
	}

	uploads, err := repo.List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list uploads: %w", err)
	}

	if useJSON {
		type entry struct {
			TraceName  string `json:"trace_name"`
			File       string `json:"file"`
			RemoteID   string `json:"remote_id"`
			Visibility string `json:"visibility"`
			UploadedAt string `json:"uploaded_at"`
		}
		entries := make([]entry, 0, len(uploads))
		for _, u := range uploads {
			entries = append(entries, entry{
				TraceName:  u.TraceName(),
				File:       u.File(),
				RemoteID:   u.RemoteID(),
				Visibility: u.Visibility(),
				UploadedAt: u.CreatedAt().Format("2006-01-02 15:04:05"),
			})
		}
		return r.writeJSON(entries, pretty)
	}

	if len(uploads) == 0 {
		r.writePlain("No uploads recorded yet.\n")
		return nil
	}

	r.writePlain("Recorded %d upload(s):\n\n", len(uploads))
	for i, u := range uploads {
		r.writePlain("%d. %s\n", i+1, u.TraceName())
		r.writePlain("   File: %s\n", u.File())
		r.writePlain("   Remote ID: %s\n", u.RemoteID())
		r.writePlain("   Visibility: %s\n", u.Visibility())
		r.writePlain("   Uploaded: %s\n\n", u.CreatedAt().Format("2006-01-02 15:04:05"))
	}

	return nil
}
