package backup

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmux-vault/tmux-vault/internal/model"
)

// fakeMux is an in-memory Multiplexer. It serves a fixed listing for
// save tests and tracks created sessions/windows/panes for restore
// tests, logging every mutating call in order.
type fakeMux struct {
	mu sync.Mutex

	// Listing served to save.
	sessions         []model.Session
	captured         map[int][]string
	failCapture      map[int]error
	failListSessions error
	failListWindows  map[string]error

	// Failure injection for restore.
	failNewSession map[string]error
	failNewWindow  map[string]error
	// failSplit is keyed by the pane id the split would get. Each
	// injected failure fires once; a failed split burns no pane id,
	// matching tmux.
	failSplit map[int]error
	existing       map[string]bool

	// State built by restore.
	calls    []string
	live     map[string][]*fakeWindow
	pasted   map[int][]string
	nextPane int
	nextWin  int
}

type fakeWindow struct {
	index int
	name  string
	panes []int
}

func newFakeMux() *fakeMux {
	return &fakeMux{
		captured:        map[int][]string{},
		failCapture:     map[int]error{},
		failListWindows: map[string]error{},
		failNewSession:  map[string]error{},
		failNewWindow:   map[string]error{},
		failSplit:       map[int]error{},
		existing:        map[string]bool{},
		live:            map[string][]*fakeWindow{},
		pasted:          map[int][]string{},
	}
}

func (f *fakeMux) logf(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *fakeMux) Name() string { return "fake" }

func (f *fakeMux) ListSessions(ctx context.Context) ([]model.Session, error) {
	if f.failListSessions != nil {
		return nil, f.failListSessions
	}
	if f.sessions != nil {
		out := make([]model.Session, len(f.sessions))
		for i, s := range f.sessions {
			s.Windows = nil
			out[i] = s
		}
		return out, nil
	}
	// Restore read-back path: report what was created.
	var out []model.Session
	for name := range f.live {
		out = append(out, model.Session{Name: name})
	}
	return out, nil
}

func (f *fakeMux) ListWindows(ctx context.Context, session string) ([]model.Window, error) {
	if err := f.failListWindows[session]; err != nil {
		return nil, err
	}
	for _, s := range f.sessions {
		if s.Name != session {
			continue
		}
		out := make([]model.Window, len(s.Windows))
		for i, w := range s.Windows {
			w.Panes = nil
			out[i] = w
		}
		return out, nil
	}
	var out []model.Window
	for _, w := range f.live[session] {
		out = append(out, model.Window{Index: w.index, Name: w.name})
	}
	return out, nil
}

func (f *fakeMux) ListPanes(ctx context.Context, session string, window int) ([]model.Pane, error) {
	for _, s := range f.sessions {
		if s.Name != session {
			continue
		}
		for _, w := range s.Windows {
			if w.Index == window {
				return append([]model.Pane(nil), w.Panes...), nil
			}
		}
		return nil, fmt.Errorf("no window %d in %s", window, session)
	}
	for _, w := range f.live[session] {
		if w.index != window {
			continue
		}
		var out []model.Pane
		for _, id := range w.panes {
			out = append(out, model.Pane{ID: id})
		}
		return out, nil
	}
	return nil, fmt.Errorf("no window %d in %s", window, session)
}

func (f *fakeMux) CapturePane(ctx context.Context, paneID int) ([]string, error) {
	if err := f.failCapture[paneID]; err != nil {
		return nil, err
	}
	return f.captured[paneID], nil
}

func (f *fakeMux) SessionExists(ctx context.Context, name string) bool {
	return f.existing[name] || f.live[name] != nil
}

func (f *fakeMux) KillSession(ctx context.Context, name string) error {
	f.logf("kill-session %s", name)
	delete(f.existing, name)
	delete(f.live, name)
	return nil
}

func (f *fakeMux) NewSession(ctx context.Context, name, dir string) (int, int, error) {
	if err := f.failNewSession[name]; err != nil {
		return 0, 0, err
	}
	f.logf("new-session %s dir=%s", name, dir)
	f.nextWin = 1
	id := f.allocPane()
	f.live[name] = []*fakeWindow{{index: 0, panes: []int{id}}}
	return 0, id, nil
}

func (f *fakeMux) NewWindow(ctx context.Context, session, name, dir string) (int, int, error) {
	if err := f.failNewWindow[name]; err != nil {
		return 0, 0, err
	}
	f.logf("new-window %s:%s dir=%s", session, name, dir)
	idx := f.nextWin
	f.nextWin++
	id := f.allocPane()
	f.live[session] = append(f.live[session], &fakeWindow{index: idx, name: name, panes: []int{id}})
	return idx, id, nil
}

func (f *fakeMux) RenameWindow(ctx context.Context, session string, window int, name string) error {
	f.logf("rename-window %s:%d %s", session, window, name)
	for _, w := range f.live[session] {
		if w.index == window {
			w.name = name
		}
	}
	return nil
}

func (f *fakeMux) SplitWindow(ctx context.Context, session string, window int, dir string) (int, error) {
	if err := f.failSplit[f.nextPane]; err != nil {
		delete(f.failSplit, f.nextPane)
		return 0, err
	}
	f.logf("split-window %s:%d dir=%s", session, window, dir)
	id := f.allocPane()
	for _, w := range f.live[session] {
		if w.index == window {
			w.panes = append(w.panes, id)
		}
	}
	return id, nil
}

func (f *fakeMux) SelectLayout(ctx context.Context, session string, window int, rawLayout string) error {
	f.logf("select-layout %s:%d", session, window)
	return nil
}

func (f *fakeMux) PasteContent(ctx context.Context, paneID int, lines []string) error {
	f.logf("paste %%%d", paneID)
	f.pasted[paneID] = append([]string(nil), lines...)
	return nil
}

func (f *fakeMux) SelectWindow(ctx context.Context, session string, window int) error {
	f.logf("select-window %s:%d", session, window)
	return nil
}

func (f *fakeMux) SelectPane(ctx context.Context, paneID int) error {
	f.logf("select-pane %%%d", paneID)
	return nil
}

func (f *fakeMux) SwitchTo(ctx context.Context, session string) error {
	f.logf("switch-to %s", session)
	return nil
}

func (f *fakeMux) allocPane() int {
	id := f.nextPane
	f.nextPane++
	return id
}

// countCalls returns how many logged calls start with prefix.
func (f *fakeMux) countCalls(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
