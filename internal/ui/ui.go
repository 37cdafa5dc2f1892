package ui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/gpxup/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	FileListView ViewState = iota
	ConfirmView
	UploadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	dir          string
	engine       *tasks.UploadEngine
	preview      *tasks.UploadEngine
	width        int
	height       int
	fileList     list.Model
	verdicts     *tasks.ReconcileResult
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *tasks.ReconcileResult
	err          error
	help         help.Model
	keys         keyMap
}

type verdictsMsg struct {
	verdicts *tasks.ReconcileResult
	err      error
}

type progressUpdateMsg tasks.ProgressUpdate

type uploadCompleteMsg struct {
	result *tasks.ReconcileResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The preview engine must be configured for dry runs; it resolves verdicts
// without touching the remote host. The upload engine performs the real run.
func NewModel(ctx context.Context, dir string, engine, preview *tasks.UploadEngine) *Model {
	return &Model{
		ctx:     ctx,
		view:    FileListView,
		dir:     dir,
		engine:  engine,
		preview: preview,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init initializes the TUI by resolving verdicts for the local directory.
func (m *Model) Init() tea.Cmd {
	return m.resolveVerdicts()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.fileList.Width() == 0 {
			m.fileList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case FileListView:
			return m.handleFileListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case verdictsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.verdicts = msg.verdicts
		items := make([]list.Item, len(msg.verdicts.Results))
		for i, r := range msg.verdicts.Results {
			items[i] = verdictItem{result: r}
		}
		m.fileList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.fileList.Title = fmt.Sprintf("GPX files in %s", m.dir)
		m.fileList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case uploadCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case FileListView:
		return m.renderFileList()
	case ConfirmView:
		return m.renderConfirm()
	case UploadView:
		return m.renderUpload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleFileListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.resolveVerdicts()
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = FileListView
		return m, nil
	case "y":
		m.view = UploadView
		return m, m.startUpload()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = FileListView
		m.verdicts = nil
		m.result = nil
		m.err = nil
		return m, m.resolveVerdicts()
	}
	return m, nil
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == FileListView {
		m.fileList, cmd = m.fileList.Update(msg)
	}
	return m, cmd
}

// resolveVerdicts fetches the remote index and dry-runs the directory
// against it, producing a per-file verdict preview without uploading.
func (m *Model) resolveVerdicts() tea.Cmd {
	return func() tea.Msg {
		index, err := m.preview.BuildIndex(m.ctx)
		if err != nil {
			return verdictsMsg{err: err}
		}
		verdicts, err := m.preview.ReconcileWithIndex(m.ctx, m.dir, index, nil)
		return verdictsMsg{verdicts: verdicts, err: err}
	}
}

// startUpload runs the real reconcile pass in a goroutine.
//
// A fresh index is fetched rather than reusing the preview's: the dry run
// marked its would-uploads as present, which would skip them here.
func (m *Model) startUpload() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)

	go func() {
		result, err := m.engine.Reconcile(m.ctx, m.dir, m.progressChan)
		m.result = result
		m.err = err
		close(m.progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return uploadCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return uploadCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) pendingUploads() int {
	if m.verdicts == nil {
		return 0
	}
	return m.verdicts.Uploaded
}

func (m *Model) renderFileList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.rescan, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.fileList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Upload %d trace(s)?", m.pendingUploads()))
	info := fmt.Sprintf(
		"\nDirectory: %s\nFiles: %d\nTo upload: %d\nAlready uploaded: %d\nUnreadable: %d\n",
		m.dir,
		m.verdicts.Total,
		m.verdicts.Uploaded,
		m.verdicts.Skipped,
		m.verdicts.Failed,
	)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderUpload() string {
	title := styles.title.Render("Uploading Traces")

	var phase string
	switch m.progress.Phase {
	case tasks.ScanFiles:
		phase = "Scanning directory..."
	case tasks.FetchIndex:
		phase = "Fetching existing traces..."
	case tasks.Examine:
		phase = fmt.Sprintf("Examining files (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Upload:
		phase = fmt.Sprintf("Uploading (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Upload failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Upload Complete!")
	info := fmt.Sprintf(
		"\nFiles: %d\nUploaded: %d\nSkipped: %d\nFailed: %d",
		m.result.Total,
		m.result.Uploaded,
		m.result.Skipped,
		m.result.Failed,
	)

	var failed string
	if m.result.Failed > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d file(s) failed:", m.result.Failed)))
		for _, r := range m.result.Results {
			if r.Err != nil {
				failed += fmt.Sprintf("\n  • %s: %v", filepath.Base(r.File), r.Err)
			}
		}
	}

	helpKeys := []key.Binding{m.keys.rescan, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}
