package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/urfave/cli/v3"
)

// TracesList lists the remote account's traces with an optional limit.
func (r *Runner) TracesList(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.service == nil {
		return fmt.Errorf("%w: OSM service not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("listing remote traces with limit %v", limit)

	traces, err := r.service.ListTraces(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && int(limit) < len(traces) {
		traces = traces[:limit]
	}

	if useJSON {
		return r.writeJSON(traces, pretty)
	}

	r.writePlain("Found %d trace(s):\n\n", len(traces))
	for i, t := range traces {
		r.writePlain("%d. %s\n", i+1, t.Name)
		if t.Description != "" {
			r.writePlain("   Description: %s\n", t.Description)
		}
		r.writePlain("   ID: %d\n", t.ID)
		r.writePlain("   Visibility: %s\n", t.Visibility)
		if len(t.Tags) > 0 {
			r.writePlain("   Tags: %s\n", strings.Join(t.Tags, ", "))
		}
		if !t.Timestamp.IsZero() {
			r.writePlain("   Uploaded: %s\n", t.Timestamp.Format("2006-01-02 15:04"))
		}
		if t.Pending {
			r.writePlain("   Status: pending import\n")
		}
		r.writePlain("\n")
	}

	return nil
}
