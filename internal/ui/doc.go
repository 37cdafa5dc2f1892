// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for trace uploads:
//  1. [FileListView] : Browse local GPX files with their resolved verdicts
//  2. [ConfirmView] : Confirm the upload operation
//  3. [UploadView] : Monitor real-time progress updates
//  4. [ResultView] : Display run counters and per-file failures
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the UploadEngine, providing non-blocking status reporting during uploads.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
