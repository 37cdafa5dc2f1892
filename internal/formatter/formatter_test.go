package formatter

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/gpxup/internal/tasks"
	th "github.com/desertthunder/gpxup/internal/testing"
)

func sampleResult() *tasks.ReconcileResult {
	return &tasks.ReconcileResult{
		Results: []tasks.FileResult{
			{
				File:      "morning_ride.gpx",
				TraceName: "20240315 - 09:23",
				Outcome:   tasks.OutcomeUploaded,
				RemoteID:  "12345",
			},
			{
				File:      "afternoon_walk.gpx",
				TraceName: "20240315 - 14:02",
				Outcome:   tasks.OutcomeSkipped,
			},
			{
				File:      "broken.gpx",
				TraceName: "20240316 - 08:11",
				Outcome:   tasks.OutcomeFailed,
				Err:       errors.New("server rejected upload"),
			},
		},
		Uploaded: 1,
		Skipped:  1,
		Failed:   1,
		Total:    3,
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleResult())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "File,Trace Name,Outcome,Remote ID,Error") {
			t.Errorf("CSV missing headers, got: %s", output)
		}

		if !strings.Contains(output, "morning_ride.gpx") {
			t.Errorf("CSV missing uploaded file")
		}
		if !strings.Contains(output, "20240315 - 09:23") {
			t.Errorf("CSV missing trace name")
		}
		if !strings.Contains(output, "12345") {
			t.Errorf("CSV missing remote ID")
		}
		if !strings.Contains(output, "server rejected upload") {
			t.Errorf("CSV missing error message")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("with default title", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleResult(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)

			if !strings.Contains(output, "# Upload Report") {
				t.Errorf("Markdown missing default title")
			}
			if !strings.Contains(output, "**Files**: 3") {
				t.Errorf("Markdown missing file count")
			}
			if !strings.Contains(output, "**Uploaded**: 1") {
				t.Errorf("Markdown missing uploaded count")
			}
			if !strings.Contains(output, "**Skipped**: 1") {
				t.Errorf("Markdown missing skipped count")
			}
			if !strings.Contains(output, "**Failed**: 1") {
				t.Errorf("Markdown missing failed count")
			}
			if !strings.Contains(output, "## Files") {
				t.Errorf("Markdown missing files section")
			}
			if !strings.Contains(output, "| morning_ride.gpx | 20240315 - 09:23 | uploaded | 12345 |") {
				t.Errorf("Markdown missing uploaded row, got: %s", output)
			}
			if !strings.Contains(output, "| afternoon_walk.gpx | 20240315 - 14:02 | skipped |") {
				t.Errorf("Markdown missing skipped row")
			}
		})

		t.Run("with custom title", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleResult(), "March Survey Run")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			if !strings.Contains(string(data), "# March Survey Run") {
				t.Errorf("Markdown missing custom title")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleResult())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Files: 3") {
			t.Errorf("Text missing file count")
		}
		if !strings.Contains(output, "Uploaded: 1, Skipped: 1, Failed: 1") {
			t.Errorf("Text missing counters")
		}
		if !strings.Contains(output, "1. [uploaded] morning_ride.gpx (20240315 - 09:23) id=12345") {
			t.Errorf("Text missing uploaded line, got: %s", output)
		}
		if !strings.Contains(output, "2. [skipped] afternoon_walk.gpx") {
			t.Errorf("Text missing skipped line")
		}
		if !strings.Contains(output, "3. [failed] broken.gpx (20240316 - 08:11): server rejected upload") {
			t.Errorf("Text missing failed line")
		}
	})

	t.Run("ToSummaryJSON", func(t *testing.T) {
		data, err := ToSummaryJSON(sampleResult())
		if err != nil {
			t.Fatalf("ToSummaryJSON failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, `"total": 3`) && !strings.Contains(output, `"total":3`) {
			t.Errorf("JSON missing total field")
		}
		if !strings.Contains(output, `"uploaded": 1`) && !strings.Contains(output, `"uploaded":1`) {
			t.Errorf("JSON missing uploaded field")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleResult(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.ResultsFile != "upload_report_results.csv" {
				t.Errorf("Expected results file 'upload_report_results.csv', got '%s'", result.ResultsFile)
			}
			if result.SummaryFile != "upload_report_summary.json" {
				t.Errorf("Expected summary file 'upload_report_summary.json', got '%s'", result.SummaryFile)
			}

			th.AssertFileExists(t, result.ResultsFile)
			th.AssertFileExists(t, result.SummaryFile)

			csvContent := th.MustReadFile(t, result.ResultsFile)
			if !strings.Contains(csvContent, "File,Trace Name,Outcome,Remote ID,Error") {
				t.Errorf("CSV missing headers")
			}
			if !strings.Contains(csvContent, "morning_ride.gpx") {
				t.Errorf("CSV missing file data")
			}

			summaryContent := th.MustReadFile(t, result.SummaryFile)
			if !strings.Contains(summaryContent, "uploaded") {
				t.Errorf("Summary JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(sampleResult(), "custom_report")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.ResultsFile != "custom_report_results.csv" {
				t.Errorf("Expected 'custom_report_results.csv', got '%s'", result.ResultsFile)
			}
			if result.SummaryFile != "custom_report_summary.json" {
				t.Errorf("Expected 'custom_report_summary.json', got '%s'", result.SummaryFile)
			}

			th.AssertFileExists(t, result.ResultsFile)
			th.AssertFileExists(t, result.SummaryFile)
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		filepath, err := WriteMarkdownExport(sampleResult(), "", "")
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if filepath != "upload_report.md" {
			t.Errorf("Expected 'upload_report.md', got '%s'", filepath)
		}

		th.AssertFileExists(t, filepath)

		content := th.MustReadFile(t, filepath)
		if !strings.Contains(content, "# Upload Report") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(content, "morning_ride.gpx") {
			t.Errorf("Markdown missing file listing")
		}
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(sampleResult(), "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "upload_report.txt" {
				t.Errorf("Expected 'upload_report.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)

			content := th.MustReadFile(t, filepath)
			if !strings.Contains(content, "Files: 3") {
				t.Errorf("Text missing file count")
			}
			if !strings.Contains(content, "1. [uploaded] morning_ride.gpx") {
				t.Errorf("Text missing file listing")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			filepath, err := WriteTextExport(sampleResult(), "my_run.txt")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}

			if filepath != "my_run.txt" {
				t.Errorf("Expected 'my_run.txt', got '%s'", filepath)
			}

			th.AssertFileExists(t, filepath)
		})
	})
}
