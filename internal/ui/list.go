package ui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/gpxup/internal/tasks"
)

var (
	_ list.Item = verdictItem{}
)

// verdictItem wraps [tasks.FileResult] to implement [list.Item].
//
// Verdicts come from a dry-run pass, so OutcomeUploaded means "will upload".
type verdictItem struct {
	result tasks.FileResult
}

func (i verdictItem) FilterValue() string { return filepath.Base(i.result.File) }
func (i verdictItem) Title() string       { return filepath.Base(i.result.File) }
func (i verdictItem) Description() string {
	switch i.result.Outcome {
	case tasks.OutcomeUploaded:
		return fmt.Sprintf("%s • will upload", i.result.TraceName)
	case tasks.OutcomeSkipped:
		return fmt.Sprintf("%s • already uploaded", i.result.TraceName)
	case tasks.OutcomeFailed:
		return fmt.Sprintf("unreadable • %v", i.result.Err)
	default:
		return ""
	}
}
