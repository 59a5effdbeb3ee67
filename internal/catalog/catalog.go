// Package catalog reflects a backup directory as a queryable, ordered
// list of entries and applies retention strategies to it.
//
// The catalog is stateless: every query rescans the directory, and
// compaction rescans again immediately before deleting anything, so a
// backup created concurrently by another process is never purged on
// the basis of stale knowledge. The directory is shared without a
// lock; the rescan narrows the race window, it does not remove it.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/tmux-vault/tmux-vault/internal/archive"
	"github.com/tmux-vault/tmux-vault/internal/model"
)

// Status classifies an entry under the active retention strategy.
type Status int

const (
	// Retainable backups are kept by compaction.
	Retainable Status = iota
	// Purgeable backups are deleted by compaction.
	Purgeable
)

func (s Status) String() string {
	if s == Purgeable {
		return "purgeable"
	}
	return "retainable"
}

// Entry is one backup file as seen at scan time.
type Entry struct {
	// Filepath is the backup's full path.
	Filepath string
	// CreatedAt is the timestamp parsed from the filename (UTC).
	CreatedAt time.Time
	// Status under the strategy that produced this entry's plan.
	Status Status

	// Size in bytes and Overview are populated only by detail
	// listings; Err records a per-entry detail read failure.
	Size     int64
	Overview *model.Overview
	Err      error
}

// Age returns the entry's age relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Options controls List.
type Options struct {
	// Details opens each archive to read its size and metadata header.
	Details bool
	// Parallel bounds concurrent detail reads. Defaults to 4.
	Parallel int
}

// List scans dir and returns its backups oldest first, classified by
// strategy. An empty or missing directory yields an empty list; the
// directory is created if absent. With Details set, per-entry read
// failures are recorded on the entry and do not abort the listing.
func List(ctx context.Context, dir string, strategy Strategy, opts Options) (Plan, error) {
	entries, err := scan(dir)
	if err != nil {
		return Plan{}, err
	}
	plan := strategy.Plan(entries, time.Now())
	if opts.Details {
		readDetails(ctx, plan.Entries, opts.Parallel)
		// Retain/Purge alias different copies; rebuild them from the
		// annotated entries so details show up everywhere.
		plan.Retain = plan.Retain[:0]
		plan.Purge = plan.Purge[:0]
		for _, e := range plan.Entries {
			if e.Status == Retainable {
				plan.Retain = append(plan.Retain, e)
			} else {
				plan.Purge = append(plan.Purge, e)
			}
		}
	}
	return plan, nil
}

// Latest returns the most recent backup in dir. ok is false for an
// empty catalog.
func Latest(dir string) (Entry, bool, error) {
	entries, err := scan(dir)
	if err != nil {
		return Entry{}, false, err
	}
	if len(entries) == 0 {
		return Entry{}, false, nil
	}
	return entries[len(entries)-1], true, nil
}

// Describe reads one backup's size and content summary.
func Describe(path string) (Entry, error) {
	e := Entry{Filepath: path}
	if t, ok := archive.ParseFilename(path); ok {
		e.CreatedAt = t
	}
	info, err := os.Stat(path)
	if err != nil {
		return e, fmt.Errorf("stat %s: %w", path, err)
	}
	e.Size = info.Size()
	snap, err := archive.ReadMetadata(path)
	if err != nil {
		return e, err
	}
	o := snap.Overview()
	e.Overview = &o
	return e, nil
}

// CompactResult reports what a compaction run did.
type CompactResult struct {
	// Deleted is the number of backups removed.
	Deleted int
	// Planned is the number of backups the plan marked purgeable.
	Planned int
	// Errs holds one error per backup that could not be deleted.
	Errs []error
}

// Compact deletes the purgeable backups in dir. The directory is
// rescanned here, never trusted from an earlier listing.
func Compact(ctx context.Context, dir string, strategy Strategy) (CompactResult, error) {
	entries, err := scan(dir)
	if err != nil {
		return CompactResult{}, err
	}
	plan := strategy.Plan(entries, time.Now())
	return apply(ctx, plan)
}

// apply deletes every backup the plan marked purgeable. A failed
// deletion is recorded and does not stop the rest: partial completion
// is an expected outcome, reported through the result.
func apply(ctx context.Context, plan Plan) (CompactResult, error) {
	res := CompactResult{Planned: len(plan.Purge)}
	for _, e := range plan.Purge {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := os.Remove(e.Filepath); err != nil {
			res.Errs = append(res.Errs, fmt.Errorf("deleting %s: %w", filepath.Base(e.Filepath), err))
			continue
		}
		res.Deleted++
	}
	return res, nil
}

// scan lists the backup files in dir, sorted oldest first. Files not
// matching the filename contract are ignored.
func scan(dir string) ([]Entry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup directory %s: %w", dir, err)
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory %s: %w", dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		t, ok := archive.ParseFilename(de.Name())
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Filepath:  filepath.Join(dir, de.Name()),
			CreatedAt: t,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// readDetails populates Size and Overview on each entry. Reads are
// independent and read-only, so they run concurrently; each failure
// lands on its own entry.
func readDetails(ctx context.Context, entries []Entry, parallel int) {
	if parallel < 1 {
		parallel = 4
	}
	if parallel > len(entries) {
		parallel = len(entries)
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)
	for i := range entries {
		wg.Add(1)
		go func(e *Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				e.Err = err
				return
			}
			info, err := os.Stat(e.Filepath)
			if err != nil {
				e.Err = err
				return
			}
			e.Size = info.Size()
			snap, err := archive.ReadMetadata(e.Filepath)
			if err != nil {
				e.Err = err
				return
			}
			o := snap.Overview()
			e.Overview = &o
		}(&entries[i])
	}
	wg.Wait()
}
