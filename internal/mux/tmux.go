package mux

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tmux-vault/tmux-vault/internal/model"
)

// tmux list formats. Fields are tab-separated; tmux forbids neither
// tabs nor colons in session names, but tabs never appear in practice
// and the remaining fields are numeric or flag expansions.
const (
	sessionFormat = "#{session_name}\t#{session_path}\t#{?session_attached,1,0}"
	windowFormat  = "#{window_index}\t#{?window_active,1,0}\t#{window_layout}\t#{window_name}"
	paneFormat    = "#{pane_id}\t#{?pane_active,1,0}\t#{pane_current_command}\t#{pane_current_path}"
)

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct{}

// NewTmux creates a new tmux multiplexer.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListSessions returns all tmux sessions.
func (t *Tmux) ListSessions(ctx context.Context) ([]model.Session, error) {
	out, err := t.run(ctx, "list-sessions", "-F", sessionFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-sessions: %w", err)
	}

	var sessions []model.Session
	for _, line := range lines(out) {
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("tmux list-sessions: unexpected line %q", line)
		}
		sessions = append(sessions, model.Session{
			Name:   parts[0],
			Dir:    parts[1],
			Active: parts[2] == "1",
		})
	}
	return sessions, nil
}

// ListWindows returns the windows of a session.
func (t *Tmux) ListWindows(ctx context.Context, session string) ([]model.Window, error) {
	out, err := t.run(ctx, "list-windows", "-t", exact(session), "-F", windowFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-windows -t %s: %w", session, err)
	}

	var windows []model.Window
	for _, line := range lines(out) {
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("tmux list-windows: unexpected line %q", line)
		}
		index, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("tmux list-windows: bad index in %q: %w", line, err)
		}
		windows = append(windows, model.Window{
			Index:  index,
			Active: parts[1] == "1",
			Layout: parts[2],
			Name:   parts[3],
		})
	}
	return windows, nil
}

// ListPanes returns the panes of one window.
func (t *Tmux) ListPanes(ctx context.Context, session string, window int) ([]model.Pane, error) {
	target := windowTarget(session, window)
	out, err := t.run(ctx, "list-panes", "-t", target, "-F", paneFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes -t %s: %w", target, err)
	}

	var panes []model.Pane
	for _, line := range lines(out) {
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) != 4 {
			return nil, fmt.Errorf("tmux list-panes: unexpected line %q", line)
		}
		id, err := parsePaneID(parts[0])
		if err != nil {
			return nil, fmt.Errorf("tmux list-panes: %w", err)
		}
		panes = append(panes, model.Pane{
			ID:      id,
			Active:  parts[1] == "1",
			Command: parts[2],
			Dir:     parts[3],
		})
	}
	return panes, nil
}

// CapturePane captures a pane's entire history.
// -p prints to stdout, -J joins wrapped lines, -e preserves escape
// sequences, -S -/-E - selects the whole history.
func (t *Tmux) CapturePane(ctx context.Context, paneID int) ([]string, error) {
	out, err := t.run(ctx, "capture-pane", "-t", paneTarget(paneID), "-p", "-J", "-e", "-S", "-", "-E", "-")
	if err != nil {
		return nil, fmt.Errorf("tmux capture-pane -t %s: %w", paneTarget(paneID), err)
	}
	return strings.Split(strings.TrimRight(out, "\n"), "\n"), nil
}

// SessionExists reports whether a session with that exact name exists.
func (t *Tmux) SessionExists(ctx context.Context, name string) bool {
	_, err := t.run(ctx, "has-session", "-t", exact(name))
	return err == nil
}

// KillSession destroys a session.
func (t *Tmux) KillSession(ctx context.Context, name string) error {
	if _, err := t.run(ctx, "kill-session", "-t", exact(name)); err != nil {
		return fmt.Errorf("tmux kill-session -t %s: %w", name, err)
	}
	return nil
}

// NewSession creates a detached session and reports the index of the
// implicit first window and the id of its implicit first pane.
func (t *Tmux) NewSession(ctx context.Context, name, dir string) (int, int, error) {
	out, err := t.run(ctx, "new-session", "-d", "-s", name, "-c", dir,
		"-P", "-F", "#{window_index}\t#{pane_id}")
	if err != nil {
		return 0, 0, fmt.Errorf("tmux new-session -s %s: %w", name, err)
	}
	return parseWindowPane(out)
}

// NewWindow creates an additional window in a session.
func (t *Tmux) NewWindow(ctx context.Context, session, name, dir string) (int, int, error) {
	out, err := t.run(ctx, "new-window", "-d", "-t", exact(session)+":", "-n", name, "-c", dir,
		"-P", "-F", "#{window_index}\t#{pane_id}")
	if err != nil {
		return 0, 0, fmt.Errorf("tmux new-window -t %s: %w", session, err)
	}
	return parseWindowPane(out)
}

// RenameWindow renames an existing window.
func (t *Tmux) RenameWindow(ctx context.Context, session string, window int, name string) error {
	target := windowTarget(session, window)
	if _, err := t.run(ctx, "rename-window", "-t", target, name); err != nil {
		return fmt.Errorf("tmux rename-window -t %s: %w", target, err)
	}
	return nil
}

// SplitWindow adds one pane to a window.
func (t *Tmux) SplitWindow(ctx context.Context, session string, window int, dir string) (int, error) {
	target := windowTarget(session, window)
	out, err := t.run(ctx, "split-window", "-d", "-t", target, "-c", dir,
		"-P", "-F", "#{pane_id}")
	if err != nil {
		return 0, fmt.Errorf("tmux split-window -t %s: %w", target, err)
	}
	return parsePaneID(strings.TrimSpace(out))
}

// SelectLayout applies a raw layout string to a window.
func (t *Tmux) SelectLayout(ctx context.Context, session string, window int, rawLayout string) error {
	target := windowTarget(session, window)
	if _, err := t.run(ctx, "select-layout", "-t", target, rawLayout); err != nil {
		return fmt.Errorf("tmux select-layout -t %s: %w", target, err)
	}
	return nil
}

// PasteContent injects lines into a pane via a paste buffer, so the
// content lands in the terminal without being interpreted as keys.
func (t *Tmux) PasteContent(ctx context.Context, paneID int, lines []string) error {
	content := strings.Join(lines, "\n")
	if content == "" {
		return nil
	}
	load := exec.CommandContext(ctx, "tmux", "load-buffer", "-b", "tmux-vault", "-")
	load.Stdin = strings.NewReader(content + "\n")
	if out, err := load.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux load-buffer: %w: %s", err, strings.TrimSpace(string(out)))
	}
	if _, err := t.run(ctx, "paste-buffer", "-b", "tmux-vault", "-d", "-p", "-t", paneTarget(paneID)); err != nil {
		return fmt.Errorf("tmux paste-buffer -t %s: %w", paneTarget(paneID), err)
	}
	return nil
}

// SelectWindow marks a window as the session's current window.
func (t *Tmux) SelectWindow(ctx context.Context, session string, window int) error {
	target := windowTarget(session, window)
	if _, err := t.run(ctx, "select-window", "-t", target); err != nil {
		return fmt.Errorf("tmux select-window -t %s: %w", target, err)
	}
	return nil
}

// SelectPane marks a pane as its window's active pane.
func (t *Tmux) SelectPane(ctx context.Context, paneID int) error {
	if _, err := t.run(ctx, "select-pane", "-t", paneTarget(paneID)); err != nil {
		return fmt.Errorf("tmux select-pane -t %s: %w", paneTarget(paneID), err)
	}
	return nil
}

// SwitchTo makes a session the client's current session. Outside of a
// tmux client there is nothing to switch, so this is a no-op.
func (t *Tmux) SwitchTo(ctx context.Context, session string) error {
	if os.Getenv("TMUX") == "" {
		return nil
	}
	if _, err := t.run(ctx, "switch-client", "-t", exact(session)); err != nil {
		return fmt.Errorf("tmux switch-client -t %s: %w", session, err)
	}
	return nil
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

// exact prefixes a session name with '=' so tmux matches it exactly
// instead of treating it as a prefix pattern.
func exact(session string) string {
	return "=" + session
}

func paneTarget(paneID int) string {
	return fmt.Sprintf("%%%d", paneID)
}

// windowTarget addresses one window of a session. The session part
// gets the same exact-match treatment as bare session targets.
func windowTarget(session string, window int) string {
	return fmt.Sprintf("%s:%d", exact(session), window)
}

// parsePaneID parses a tmux pane id such as "%37".
func parsePaneID(s string) (int, error) {
	if !strings.HasPrefix(s, "%") {
		return 0, fmt.Errorf("invalid pane id %q: missing '%%'", s)
	}
	id, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, fmt.Errorf("invalid pane id %q: %w", s, err)
	}
	return id, nil
}

// parseWindowPane parses "window_index\tpane_id" as printed by
// new-session/new-window -P.
func parseWindowPane(out string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(out), "\t", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected tmux output %q", strings.TrimSpace(out))
	}
	window, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window index %q: %w", parts[0], err)
	}
	pane, err := parsePaneID(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return window, pane, nil
}

func lines(out string) []string {
	var result []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		result = append(result, line)
	}
	return result
}
