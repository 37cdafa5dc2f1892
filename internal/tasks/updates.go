package tasks

import (
	"fmt"
	"path/filepath"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ScanFiles Phase = iota
	FetchIndex
	Examine
	Upload
)

func (p Phase) String() string {
	switch p {
	case ScanFiles:
		return "scan_files"
	case FetchIndex:
		return "fetch_index"
	case Examine:
		return "examine"
	case Upload:
		return "upload"
	default:
		return ""
	}
}

func scanUpdate(dir string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d GPX file(s) in %s", count, dir),
	}
}

func fetchIndexUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchIndex,
		Step:    1,
		Total:   2,
		Message: "Fetching existing traces...",
	}
}

func indexBuiltUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchIndex,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("%d existing trace(s) indexed", count),
		Data:    count,
	}
}

func examineUpdate(step, total int, file string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Examine,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, filepath.Base(file)),
	}
}

func skippedUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Examine,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s already uploaded, skipping", step, total, name),
	}
}

func uploadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading %s...", step, total, name),
	}
}

func uploadedUpdate(step, total int, name, remoteID string) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, name)
	if remoteID != "" {
		msg = fmt.Sprintf("%s (ID: %s)", msg, remoteID)
	}
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    remoteID,
	}
}

func failedUpdate(step, total int, file string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, filepath.Base(file), err),
	}
}
