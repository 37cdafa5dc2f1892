// package tasks implements trace reconciliation between a local directory and a remote host.
//
// The core abstraction is UploadEngine, which snapshots the remote trace list
// into a TraceIndex, derives a trace name for every local GPX file, and
// uploads exactly the files whose names are not already present remotely.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/desertthunder/gpxup/internal/gpx"
	"github.com/desertthunder/gpxup/internal/services"
	"github.com/desertthunder/gpxup/internal/shared"
)

// Outcome classifies the result of reconciling one file.
type Outcome int

const (
	OutcomeUploaded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return ""
	}
}

// FileResult records the verdict for a single local file.
type FileResult struct {
	File      string  // Path of the local file
	TraceName string  // Derived trace name, empty if extraction failed
	Outcome   Outcome // Verdict
	RemoteID  string  // Service-assigned id for uploaded traces
	Err       error   // Failure detail for OutcomeFailed
}

// ReconcileResult contains all data from a reconcile pass over a directory.
type ReconcileResult struct {
	Results  []FileResult // Per-file verdicts in processing order
	Uploaded int
	Skipped  int
	Failed   int
	Total    int
}

// traceNamePattern matches a trace name embedded anywhere in a description.
var traceNamePattern = regexp.MustCompile(`\d{8} - \d{2}:\d{2}`)

// TraceIndex is a read-only snapshot of the remote trace descriptions,
// built once per run and consulted for every local file.
//
// Membership is a substring check against the full descriptions: uploads
// write "<trace name> - <description>" but other tools may have appended or
// mangled text, so exact-field parsing would miss duplicates. Names matching
// the trace name shape are additionally extracted into a set as a fast path.
type TraceIndex struct {
	descriptions []string
	names        map[string]struct{}
}

// NewTraceIndex builds an index from a remote trace listing.
func NewTraceIndex(traces []services.RemoteTrace) *TraceIndex {
	ix := &TraceIndex{names: make(map[string]struct{})}
	for _, trace := range traces {
		if trace.Description == "" {
			continue
		}
		ix.descriptions = append(ix.descriptions, trace.Description)
		for _, name := range traceNamePattern.FindAllString(trace.Description, -1) {
			ix.names[name] = struct{}{}
		}
	}
	return ix
}

// Contains reports whether name appears in any indexed description.
func (ix *TraceIndex) Contains(name string) bool {
	if _, ok := ix.names[name]; ok {
		return true
	}
	for _, desc := range ix.descriptions {
		if strings.Contains(desc, name) {
			return true
		}
	}
	return false
}

// Add marks a name as present, preventing a second upload of the same
// minute within one run.
func (ix *TraceIndex) Add(name string) {
	ix.names[name] = struct{}{}
}

// Len returns the number of indexed descriptions.
func (ix *TraceIndex) Len() int {
	return len(ix.descriptions)
}

// UploadRecorder logs successful uploads, e.g. to the local upload history.
type UploadRecorder interface {
	Record(traceName, file, remoteID string, visibility services.Visibility) error
}

// UploadOptions carries the per-run upload settings.
type UploadOptions struct {
	Visibility  services.Visibility // Applied to every uploaded trace
	Description string              // Appended after the trace name in the description
	Tags        []string
	DryRun      bool // Resolve verdicts without uploading
}

// UploadEngine reconciles a local directory of GPX files against a remote trace host.
type UploadEngine struct {
	service  services.TraceService
	opts     UploadOptions
	recorder UploadRecorder

	// name derivation, swappable in tests
	name func(path string) (string, error)
}

// NewUploadEngine creates an UploadEngine. The recorder may be nil, in which
// case uploads are not logged locally.
func NewUploadEngine(service services.TraceService, opts UploadOptions, recorder UploadRecorder) *UploadEngine {
	return &UploadEngine{
		service:  service,
		opts:     opts,
		recorder: recorder,
		name:     gpx.Name,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *UploadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// listTraceFiles enumerates GPX files in dir in lexicographic order.
//
// The sort keeps run output reproducible regardless of directory order.
func listTraceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".gpx") {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// BuildIndex fetches the remote trace list and indexes it.
//
// Failure here is batch-fatal: without the baseline listing, duplicate
// detection is unsound and uploading blind would defeat the run's purpose.
func (e *UploadEngine) BuildIndex(ctx context.Context) (*TraceIndex, error) {
	traces, err := e.service.ListTraces(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTraceListFailed, err)
	}
	return NewTraceIndex(traces), nil
}

// Reconcile fetches the remote index and processes every GPX file in dir.
//
// Re-running with an unchanged directory uploads nothing: every trace
// uploaded by a prior run is found in the fresh index and skipped.
func (e *UploadEngine) Reconcile(ctx context.Context, dir string, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: trace service not initialized", shared.ErrServiceUnavailable)
	}

	files, err := listTraceFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", shared.ErrNoTraceFiles, dir)
	}

	e.sendProgress(progress, scanUpdate(dir, len(files)))
	e.sendProgress(progress, fetchIndexUpdate())

	index, err := e.BuildIndex(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, indexBuiltUpdate(index.Len()))

	return e.reconcileFiles(ctx, files, index, progress), nil
}

// ReconcileWithIndex processes every GPX file in dir against a pre-built index.
//
// Used by callers that fetched the index themselves, e.g. the TUI's verdict
// preview. Note that reconciliation mutates the index (uploaded names are
// added), so a preview index must not be reused for a later upload pass.
func (e *UploadEngine) ReconcileWithIndex(ctx context.Context, dir string, index *TraceIndex, progress chan<- ProgressUpdate) (*ReconcileResult, error) {
	if e.service == nil {
		return nil, fmt.Errorf("%w: trace service not initialized", shared.ErrServiceUnavailable)
	}

	files, err := listTraceFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", shared.ErrNoTraceFiles, dir)
	}

	return e.reconcileFiles(ctx, files, index, progress), nil
}

// reconcileFiles runs the extract → resolve → upload pipeline over files,
// sequentially and in order. A file-level failure never aborts the batch.
func (e *UploadEngine) reconcileFiles(ctx context.Context, files []string, index *TraceIndex, progress chan<- ProgressUpdate) *ReconcileResult {
	result := &ReconcileResult{Total: len(files)}

	for i, file := range files {
		e.sendProgress(progress, examineUpdate(i+1, len(files), file))

		name, err := e.name(file)
		if err != nil {
			result.Results = append(result.Results, FileResult{
				File:    file,
				Outcome: OutcomeFailed,
				Err:     err,
			})
			result.Failed++
			e.sendProgress(progress, failedUpdate(i+1, len(files), file, err))
			continue
		}

		if index.Contains(name) {
			result.Results = append(result.Results, FileResult{
				File:      file,
				TraceName: name,
				Outcome:   OutcomeSkipped,
			})
			result.Skipped++
			e.sendProgress(progress, skippedUpdate(i+1, len(files), name))
			continue
		}

		if e.opts.DryRun {
			result.Results = append(result.Results, FileResult{
				File:      file,
				TraceName: name,
				Outcome:   OutcomeUploaded,
			})
			result.Uploaded++
			index.Add(name)
			e.sendProgress(progress, uploadedUpdate(i+1, len(files), name, ""))
			continue
		}

		e.sendProgress(progress, uploadingUpdate(i+1, len(files), name))

		remoteID, err := e.uploadFile(ctx, file, name)
		if err != nil {
			result.Results = append(result.Results, FileResult{
				File:      file,
				TraceName: name,
				Outcome:   OutcomeFailed,
				Err:       err,
			})
			result.Failed++
			e.sendProgress(progress, failedUpdate(i+1, len(files), file, err))
			continue
		}

		result.Results = append(result.Results, FileResult{
			File:      file,
			TraceName: name,
			Outcome:   OutcomeUploaded,
			RemoteID:  remoteID,
		})
		result.Uploaded++
		index.Add(name)
		e.sendProgress(progress, uploadedUpdate(i+1, len(files), name, remoteID))

		if e.recorder != nil {
			// The local history is advisory; a write failure must not
			// turn a successful upload into a failed outcome.
			_ = e.recorder.Record(name, file, remoteID, e.opts.Visibility)
		}
	}

	return result
}

// uploadFile reads the file and sends it to the remote service.
func (e *UploadEngine) uploadFile(ctx context.Context, file, name string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", file, err)
	}

	upload := &services.TraceUpload{
		Filename:    filepath.Base(file),
		Data:        data,
		Description: fmt.Sprintf("%s - %s", name, e.opts.Description),
		Tags:        e.opts.Tags,
		Visibility:  e.opts.Visibility,
	}

	remoteID, err := e.service.UploadTrace(ctx, upload)
	if err != nil {
		return "", err
	}

	return remoteID, nil
}
