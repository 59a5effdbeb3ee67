package backup

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmux-vault/tmux-vault/internal/layout"
	"github.com/tmux-vault/tmux-vault/internal/model"
	"github.com/tmux-vault/tmux-vault/internal/mux"
	vaultotel "github.com/tmux-vault/tmux-vault/internal/otel"
)

// Restorer replays a snapshot into a live multiplexer.
type Restorer struct {
	Mux mux.Multiplexer
	// Replace kills an existing session of the same name before
	// recreating it. Off, an existing session is left alone and the
	// snapshot's version of it is skipped.
	Replace bool
	Metrics *vaultotel.Metrics // nil-safe
}

// RestoreResult reports what a restore achieved. Counts are read back
// from the live multiplexer, not from the snapshot: creation may have
// silently diverged.
type RestoreResult struct {
	Sessions int
	Windows  int
	Panes    int
	// Warnings lists every recoverable failure: a window or pane that
	// could not be created, content that could not be injected, a
	// session that was skipped.
	Warnings []string
}

// Restore recreates the snapshot's sessions in the live multiplexer.
//
// Mutating calls are strictly sequential: the multiplexer reproduces
// pane id order and accepts layouts only when creation order is
// preserved. A window or pane failure is recorded and the orchestrator
// moves to the next sibling; a session failure skips that session's
// windows but not subsequent sessions.
func (r *Restorer) Restore(ctx context.Context, snap *model.Snapshot) (*RestoreResult, error) {
	ctx, span := tracer.Start(ctx, "restore",
		trace.WithAttributes(
			attribute.String("mux", r.Mux.Name()),
			attribute.Int("sessions", len(snap.Sessions)),
		))
	defer span.End()

	res := &RestoreResult{}
	var restored []string

	for _, sess := range snap.Sessions {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if r.Mux.SessionExists(ctx, sess.Name) {
			if !r.Replace {
				res.warnf("session %q already exists, skipped", sess.Name)
				continue
			}
			if err := r.Mux.KillSession(ctx, sess.Name); err != nil {
				r.Metrics.RecordRestoreError(ctx, "session")
				res.warnf("session %q: replacing failed: %v", sess.Name, err)
				continue
			}
		}
		if err := r.restoreSession(ctx, sess, res); err != nil {
			r.Metrics.RecordRestoreError(ctx, "session")
			res.warnf("session %q: %v", sess.Name, err)
			continue
		}
		restored = append(restored, sess.Name)
	}

	r.finalize(ctx, snap, restored, res)
	r.readBack(ctx, restored, res)
	return res, nil
}

// restoreSession creates one session and all its windows. The returned
// error means the session itself could not be created; window and pane
// failures are recorded on res and do not propagate.
func (r *Restorer) restoreSession(ctx context.Context, sess model.Session, res *RestoreResult) error {
	if len(sess.Windows) == 0 {
		return fmt.Errorf("no windows in snapshot")
	}

	// Creating the session creates its first window and first pane as
	// a side effect. That implicit pair carries the snapshot's first
	// window rather than a duplicate.
	first := sess.Windows[0]
	winIdx, paneID, err := r.Mux.NewSession(ctx, sess.Name, paneDir(first, sess.Dir))
	if err != nil {
		return err
	}
	if err := r.Mux.RenameWindow(ctx, sess.Name, winIdx, first.Name); err != nil {
		res.warnf("window %s:%d: rename failed: %v", sess.Name, winIdx, err)
	}
	r.restoreWindow(ctx, sess.Name, first, winIdx, paneID, res)

	for _, win := range sess.Windows[1:] {
		winIdx, paneID, err := r.Mux.NewWindow(ctx, sess.Name, win.Name, paneDir(win, sess.Dir))
		if err != nil {
			r.Metrics.RecordRestoreError(ctx, "window")
			res.warnf("window %q of session %q: %v", win.Name, sess.Name, err)
			continue
		}
		r.restoreWindow(ctx, sess.Name, win, winIdx, paneID, res)
	}
	return nil
}

// restoreWindow splits the window into the panes its layout describes,
// applies the stored layout verbatim, then injects captured content.
// winIdx and firstPane identify the already created window and its
// implicit first pane.
func (r *Restorer) restoreWindow(ctx context.Context, session string, win model.Window, winIdx, firstPane int, res *RestoreResult) {
	lay, err := layout.Parse(win.Layout)
	if err != nil {
		r.Metrics.RecordRestoreError(ctx, "window")
		res.warnf("window %s:%d: layout: %v", session, winIdx, err)
		return
	}
	origIDs := lay.PaneIDs()

	// Splitting in pre-order recreates the multiplexer's pane order.
	// Each successful split is recorded as an (original, live) pair so
	// a failed split never shifts content onto the wrong pane. After a
	// failed split the window holds fewer panes than the layout
	// describes, so the layout is not applied; the panes that exist
	// still get their own content.
	type panePair struct{ orig, live int }
	pairs := []panePair{{origIDs[0], firstPane}}
	for _, origID := range origIDs[1:] {
		dir := paneDir(win, "")
		if p, ok := win.Pane(origID); ok && p.Dir != "" {
			dir = p.Dir
		}
		id, err := r.Mux.SplitWindow(ctx, session, winIdx, dir)
		if err != nil {
			r.Metrics.RecordRestoreError(ctx, "pane")
			res.warnf("pane %d of %s:%d: split failed: %v", origID, session, winIdx, err)
			continue
		}
		pairs = append(pairs, panePair{origID, id})
	}

	if len(pairs) == len(origIDs) {
		if err := r.Mux.SelectLayout(ctx, session, winIdx, win.Layout); err != nil {
			r.Metrics.RecordRestoreError(ctx, "window")
			res.warnf("window %s:%d: applying layout: %v", session, winIdx, err)
		}
	}

	for _, pr := range pairs {
		pane, ok := win.Pane(pr.orig)
		if !ok {
			res.warnf("pane %d of %s:%d: not in snapshot", pr.orig, session, winIdx)
			continue
		}
		if len(pane.Content) > 0 {
			if err := r.Mux.PasteContent(ctx, pr.live, pane.Content); err != nil {
				r.Metrics.RecordRestoreError(ctx, "pane")
				res.warnf("pane %d of %s:%d: injecting content: %v", pr.orig, session, winIdx, err)
				continue
			}
		}
		r.Metrics.RecordPaneRestored(ctx)
		if pane.Active {
			if err := r.Mux.SelectPane(ctx, pr.live); err != nil {
				res.warnf("pane %d of %s:%d: select failed: %v", pr.orig, session, winIdx, err)
			}
		}
	}
}

// finalize reselects the originally active window per session and
// switches the client to the originally active session.
func (r *Restorer) finalize(ctx context.Context, snap *model.Snapshot, restored []string, res *RestoreResult) {
	for _, sess := range snap.Sessions {
		if !containsString(restored, sess.Name) {
			continue
		}
		for _, win := range sess.Windows {
			if win.Active {
				if err := r.Mux.SelectWindow(ctx, sess.Name, win.Index); err != nil {
					res.warnf("session %q: selecting window %d: %v", sess.Name, win.Index, err)
				}
			}
		}
		if sess.Active {
			if err := r.Mux.SwitchTo(ctx, sess.Name); err != nil {
				res.warnf("switching to session %q: %v", sess.Name, err)
			}
		}
	}
}

// readBack counts the restored sessions, windows and panes from the
// live environment.
func (r *Restorer) readBack(ctx context.Context, restored []string, res *RestoreResult) {
	res.Sessions = len(restored)
	for _, name := range restored {
		windows, err := r.Mux.ListWindows(ctx, name)
		if err != nil {
			res.warnf("counting windows of session %q: %v", name, err)
			continue
		}
		res.Windows += len(windows)
		for _, win := range windows {
			panes, err := r.Mux.ListPanes(ctx, name, win.Index)
			if err != nil {
				res.warnf("counting panes of %s:%d: %v", name, win.Index, err)
				continue
			}
			res.Panes += len(panes)
		}
	}
}

func (res *RestoreResult) warnf(format string, args ...any) {
	res.Warnings = append(res.Warnings, fmt.Sprintf(format, args...))
}

// paneDir picks a working directory for a new window or session: the
// first pane's directory when the snapshot has one, fallback otherwise.
func paneDir(win model.Window, fallback string) string {
	if len(win.Panes) > 0 && win.Panes[0].Dir != "" {
		return win.Panes[0].Dir
	}
	return fallback
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
