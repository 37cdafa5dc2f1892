// package formatter provides functions to export upload run results to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/gpxup/internal/shared"
	"github.com/desertthunder/gpxup/internal/tasks"
)

func errorString(r tasks.FileResult) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

// ExportToCSV converts a ReconcileResult to CSV format with columns: File, Trace Name, Outcome, Remote ID, Error
func ExportToCSV(result *tasks.ReconcileResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"File", "Trace Name", "Outcome", "Remote ID", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range result.Results {
		record := []string{
			r.File,
			r.TraceName,
			r.Outcome.String(),
			r.RemoteID,
			errorString(r),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ReconcileResult to Markdown format with a summary header and per-file table
func ExportToMarkdown(result *tasks.ReconcileResult, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Upload Report"
	}

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Files**: %d\n", result.Total))
	buf.WriteString(fmt.Sprintf("**Uploaded**: %d\n", result.Uploaded))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", result.Skipped))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n\n", result.Failed))

	buf.WriteString("## Files\n\n")
	buf.WriteString("| File | Trace Name | Outcome | Remote ID | Error |\n")
	buf.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, r := range result.Results {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			r.File, r.TraceName, r.Outcome, r.RemoteID, errorString(r)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a ReconcileResult to plain text format
func ExportToText(result *tasks.ReconcileResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Files: %d\n", result.Total))
	buf.WriteString(fmt.Sprintf("Uploaded: %d, Skipped: %d, Failed: %d\n\n", result.Uploaded, result.Skipped, result.Failed))

	for i, r := range result.Results {
		line := fmt.Sprintf("%d. [%s] %s", i+1, r.Outcome, r.File)
		if r.TraceName != "" {
			line += fmt.Sprintf(" (%s)", r.TraceName)
		}
		if r.RemoteID != "" {
			line += fmt.Sprintf(" id=%s", r.RemoteID)
		}
		if r.Err != nil {
			line += fmt.Sprintf(": %v", r.Err)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ToSummaryJSON generates a JSON representation of the run counters (without per-file results)
func ToSummaryJSON(result *tasks.ReconcileResult) ([]byte, error) {
	summary := map[string]int{
		"total":    result.Total,
		"uploaded": result.Uploaded,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}
	return shared.MarshalJSON(summary, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	ResultsFile string
	SummaryFile string
}

// WriteCSVExport exports a run report to CSV format with an accompanying summary JSON file.
//
// Defaults to "upload_report" as the base filename & creates {base}_results.csv and {base}_summary.json
func WriteCSVExport(result *tasks.ReconcileResult, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = "upload_report"
	}

	csvData, err := ExportToCSV(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	resultsFile := baseFilepath + "_results.csv"
	if err := os.WriteFile(resultsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	summaryJSON, err := ToSummaryJSON(result)
	if err != nil {
		return nil, fmt.Errorf("failed to generate summary JSON: %w", err)
	}

	summaryFile := baseFilepath + "_summary.json"
	if err := os.WriteFile(summaryFile, summaryJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary file: %w", err)
	}

	return &CSVExportResult{
		ResultsFile: resultsFile,
		SummaryFile: summaryFile,
	}, nil
}

// WriteMarkdownExport exports a run report to a Markdown file.
//
// Defaults to "upload_report.md" as the filename.
func WriteMarkdownExport(result *tasks.ReconcileResult, filepath string, title string) (string, error) {
	if filepath == "" {
		filepath = "upload_report.md"
	}

	mdData, err := ExportToMarkdown(result, title)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports a run report to plain text format.
//
// Defaults to "upload_report.txt" as the filename.
func WriteTextExport(result *tasks.ReconcileResult, filepath string) (string, error) {
	if filepath == "" {
		filepath = "upload_report.txt"
	}

	textData, err := ExportToText(result)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
