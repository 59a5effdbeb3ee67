// Package mux provides an abstraction over terminal multiplexers.
//
// This is the only boundary through which the engine touches a live
// multiplexer: enumeration and capture for save, creation and content
// injection for restore. An implementation exists for tmux; the
// catalog and compaction code never touch this package.
package mux

import (
	"context"

	"github.com/tmux-vault/tmux-vault/internal/model"
)

// Multiplexer abstracts terminal multiplexer operations.
//
// Read operations (List*, CapturePane) are safe to call concurrently.
// Mutating operations must be issued sequentially per session: the
// multiplexer applies layouts in creation order and reproduces pane id
// sequences deterministically only when creation order is preserved.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// ListSessions returns all sessions, without windows.
	ListSessions(ctx context.Context) ([]model.Session, error)

	// ListWindows returns the windows of a session, without panes.
	ListWindows(ctx context.Context, session string) ([]model.Window, error)

	// ListPanes returns the panes of a window, without content.
	ListPanes(ctx context.Context, session string, window int) ([]model.Pane, error)

	// CapturePane captures a pane's entire history as lines, escape
	// sequences preserved.
	CapturePane(ctx context.Context, paneID int) ([]string, error)

	// SessionExists reports whether a session with that exact name exists.
	SessionExists(ctx context.Context, name string) bool

	// KillSession destroys a session and everything in it.
	KillSession(ctx context.Context, name string) error

	// NewSession creates a detached session. The multiplexer creates
	// the first window and its first pane implicitly; their index and
	// pane id are returned.
	NewSession(ctx context.Context, name, dir string) (window int, paneID int, err error)

	// NewWindow creates an additional window in a session and returns
	// its index and the id of its implicit first pane.
	NewWindow(ctx context.Context, session, name, dir string) (window int, paneID int, err error)

	// RenameWindow renames an existing window.
	RenameWindow(ctx context.Context, session string, window int, name string) error

	// SplitWindow adds one pane to a window and returns the new pane id.
	SplitWindow(ctx context.Context, session string, window int, dir string) (paneID int, err error)

	// SelectLayout applies a raw layout string to a window. The window
	// must already hold as many panes as the layout describes.
	SelectLayout(ctx context.Context, session string, window int, rawLayout string) error

	// PasteContent injects lines into a pane's terminal.
	PasteContent(ctx context.Context, paneID int, lines []string) error

	// SelectWindow marks a window as the session's current window.
	SelectWindow(ctx context.Context, session string, window int) error

	// SelectPane marks a pane as its window's active pane.
	SelectPane(ctx context.Context, paneID int) error

	// SwitchTo makes a session the client's current session. A no-op
	// when no client is attached.
	SwitchTo(ctx context.Context, session string) error
}
