// Package backup orchestrates saving a live multiplexer state into an
// archive and restoring an archive back into a live multiplexer.
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tmux-vault/tmux-vault/internal/archive"
	"github.com/tmux-vault/tmux-vault/internal/model"
	"github.com/tmux-vault/tmux-vault/internal/mux"
	vaultotel "github.com/tmux-vault/tmux-vault/internal/otel"
)

var tracer = otel.Tracer("tmux-vault-backup")

// Saver captures the full state of a multiplexer into a backup archive.
type Saver struct {
	Mux mux.Multiplexer
	// Dir is the backup directory the archive is written to.
	Dir string
	// Parallel bounds concurrent pane captures. Defaults to 4.
	Parallel int
	// IgnoreLastLines drops that many trailing lines from panes running
	// a shell, so prompts are not replayed as stale output on restore.
	IgnoreLastLines int
	Metrics         *vaultotel.Metrics // nil-safe
}

// SaveResult reports what a save produced.
type SaveResult struct {
	// Path of the written archive.
	Path string
	// Overview counts what the archive holds.
	Overview model.Overview
	// Warnings lists panes whose content could not be captured. The
	// panes are still in the archive, with empty content.
	Warnings []string
}

// Save captures every session, window and pane and writes one archive.
//
// Enumeration failures are fatal: a backup missing whole sessions or
// windows is worse than no backup. A single pane capture failure is
// not; the pane is saved without content and reported as a warning.
func (s *Saver) Save(ctx context.Context) (*SaveResult, error) {
	ctx, span := tracer.Start(ctx, "save",
		trace.WithAttributes(attribute.String("mux", s.Mux.Name())))
	defer span.End()

	sessions, err := s.Mux.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating sessions: %w", err)
	}

	snap := &model.Snapshot{
		Version:   archive.FormatVersion,
		CreatedAt: time.Now().UTC(),
		Sessions:  sessions,
	}
	for i := range snap.Sessions {
		sess := &snap.Sessions[i]
		windows, err := s.Mux.ListWindows(ctx, sess.Name)
		if err != nil {
			return nil, fmt.Errorf("enumerating windows of session %q: %w", sess.Name, err)
		}
		sess.Windows = windows
		for j := range sess.Windows {
			win := &sess.Windows[j]
			panes, err := s.Mux.ListPanes(ctx, sess.Name, win.Index)
			if err != nil {
				return nil, fmt.Errorf("enumerating panes of %s:%d: %w", sess.Name, win.Index, err)
			}
			win.Panes = panes
		}
	}

	warnings := s.capture(ctx, snap)

	dest := archive.Filepath(s.Dir, snap.CreatedAt)
	if err := archive.Write(dest, snap); err != nil {
		return nil, err
	}
	s.Metrics.RecordBackupCreated(ctx)

	return &SaveResult{
		Path:     dest,
		Overview: snap.Overview(),
		Warnings: warnings,
	}, nil
}

// capture fills in every pane's content. Captures are independent
// reads, so they run concurrently over a bounded semaphore; each
// failure is recorded against its own pane and leaves content empty.
func (s *Saver) capture(ctx context.Context, snap *model.Snapshot) []string {
	type slot struct {
		session string
		window  int
		pane    *model.Pane
	}
	var slots []slot
	for i := range snap.Sessions {
		sess := &snap.Sessions[i]
		for j := range sess.Windows {
			win := &sess.Windows[j]
			for k := range win.Panes {
				slots = append(slots, slot{sess.Name, win.Index, &win.Panes[k]})
			}
		}
	}
	if len(slots) == 0 {
		return nil
	}

	parallel := s.Parallel
	if parallel < 1 {
		parallel = 4
	}
	if parallel > len(slots) {
		parallel = len(slots)
	}

	errs := make([]error, len(slots))
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)
	for i, sl := range slots {
		wg.Add(1)
		go func(idx int, sl slot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := s.Mux.CapturePane(ctx, sl.pane.ID)
			if err != nil {
				errs[idx] = err
				s.Metrics.RecordCaptureError(ctx)
				return
			}
			sl.pane.Content = trimPrompt(content, sl.pane.Command, s.IgnoreLastLines)
			s.Metrics.RecordPaneCaptured(ctx)
		}(i, sl)
	}
	wg.Wait()

	var warnings []string
	for i, err := range errs {
		if err == nil {
			continue
		}
		sl := slots[i]
		warnings = append(warnings,
			fmt.Sprintf("pane %d (%s:%d): capture failed: %v", sl.pane.ID, sl.session, sl.window, err))
	}
	return warnings
}

// trimPrompt drops the last n lines of a pane running a plain shell.
// The trailing lines of a shell pane are the prompt, which would
// reappear as stale output when the content is pasted back.
func trimPrompt(content []string, command string, n int) []string {
	if n <= 0 || !isShell(command) {
		return content
	}
	if n >= len(content) {
		return nil
	}
	return content[:len(content)-n]
}

func isShell(command string) bool {
	switch filepath.Base(command) {
	case "bash", "zsh", "fish", "sh", "ksh":
		return true
	}
	return false
}
