// Package model defines the in-memory representation of one backup
// instant: sessions, their windows, and the panes inside each window.
//
// A Snapshot and its descendants form a strict tree: sessions own
// windows, windows own panes, no back-references. The tree is built
// once (by the save orchestrator or the archive reader) and never
// mutated afterwards.
package model

import (
	"fmt"
	"time"
)

// Snapshot is the root aggregate for one full backup instant.
type Snapshot struct {
	// Version is the archive format version, e.g. "2.0".
	Version string `json:"version"`
	// CreatedAt is the capture timestamp (UTC).
	CreatedAt time.Time `json:"created_at"`
	// Sessions in server order.
	Sessions []Session `json:"sessions"`
}

// Session describes one tmux session.
type Session struct {
	// Name is the session name, unique within the snapshot.
	Name string `json:"name"`
	// Dir is the session's working directory.
	Dir string `json:"dir"`
	// Active marks the client's current session at capture time.
	Active bool `json:"active,omitempty"`
	// Windows in index order.
	Windows []Window `json:"windows"`
}

// Window describes one window of a session.
type Window struct {
	// Index is the window index within its session.
	Index int `json:"index"`
	// Name is the window name.
	Name string `json:"name"`
	// Layout is the raw tmux layout string. It is the source of truth
	// for pane geometry; the parsed tree is derived on demand.
	Layout string `json:"layout"`
	// Active marks the session's current window at capture time.
	Active bool `json:"active,omitempty"`
	// Panes in layout order.
	Panes []Pane `json:"panes"`
}

// Pane returns the pane with the given id.
func (w Window) Pane(id int) (Pane, bool) {
	for _, p := range w.Panes {
		if p.ID == id {
			return p, true
		}
	}
	return Pane{}, false
}

// Pane describes one pane of a window, including its captured content.
type Pane struct {
	// ID is the numeric tmux pane id (the N of "%N"). It matches a
	// leaf of the window's layout tree.
	ID int `json:"id"`
	// Dir is the pane's working directory.
	Dir string `json:"dir"`
	// Command is the command running in the pane at capture time.
	Command string `json:"command"`
	// Active marks the window's current pane at capture time.
	Active bool `json:"active,omitempty"`
	// Content is the captured scrollback, one line per element. Lines
	// may contain styling escape sequences. Not serialized with the
	// metadata record; the archive stores it as a separate blob.
	Content []string `json:"-"`
}

// Overview summarizes a snapshot's content: counts displayed after
// save, restore and catalog list --details.
type Overview struct {
	Version  string
	Sessions int
	Windows  int
	Panes    int
}

// Overview returns the snapshot's content summary.
func (s *Snapshot) Overview() Overview {
	o := Overview{Version: s.Version, Sessions: len(s.Sessions)}
	for _, sess := range s.Sessions {
		o.Windows += len(sess.Windows)
		for _, w := range sess.Windows {
			o.Panes += len(w.Panes)
		}
	}
	return o
}

func (o Overview) String() string {
	return fmt.Sprintf("%d sessions %d windows %d panes", o.Sessions, o.Windows, o.Panes)
}
