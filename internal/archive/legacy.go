package archive

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmux-vault/tmux-vault/internal/layout"
	"github.com/tmux-vault/tmux-vault/internal/model"
)

// legacyVersion is the original flat archive format. Its metadata
// record holds three parallel lists (sessions, windows, panes);
// windows reference sessions by name and panes are tied to windows
// only through the pane ids embedded in each window's layout string.
// Content blobs live directly under panes-content/ keyed by pane id.
const legacyVersion = "1.0"

type legacyMetadata struct {
	Version  string          `json:"version"`
	Sessions []legacySession `json:"sessions"`
	Windows  []legacyWindow  `json:"windows"`
	Panes    []legacyPane    `json:"panes"`
}

type legacySession struct {
	Name string `json:"name"`
	Dir  string `json:"dirpath"`
}

type legacyWindow struct {
	Index    int      `json:"index"`
	Name     string   `json:"name"`
	Active   bool     `json:"is_active"`
	Layout   string   `json:"layout"`
	Sessions []string `json:"sessions"`
}

type legacyPane struct {
	ID      string `json:"id"` // "%37"
	Active  bool   `json:"is_active"`
	Dir     string `json:"dirpath"`
	Command string `json:"command"`
}

// readLegacy upgrades a v1 metadata record to the current in-memory
// model: windows are attached to their session by name, and panes are
// attached to their window by parsing the layout string.
func readLegacy(metaBytes []byte, contents map[string][]string) (*model.Snapshot, error) {
	var meta legacyMetadata
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("decoding v1 metadata: %w", err)
	}

	panesByID := make(map[int]legacyPane, len(meta.Panes))
	for _, p := range meta.Panes {
		id, err := legacyPaneID(p.ID)
		if err != nil {
			return nil, fmt.Errorf("v1 metadata: %w", err)
		}
		panesByID[id] = p
	}

	snap := &model.Snapshot{Version: legacyVersion}
	for _, ls := range meta.Sessions {
		sess := model.Session{Name: ls.Name, Dir: ls.Dir}
		for _, lw := range meta.Windows {
			if !containsString(lw.Sessions, ls.Name) {
				continue
			}
			win := model.Window{
				Index:  lw.Index,
				Name:   lw.Name,
				Layout: lw.Layout,
				Active: lw.Active,
			}
			parsed, err := layout.Parse(lw.Layout)
			if err != nil {
				return nil, fmt.Errorf("v1 metadata: window %d layout: %w", lw.Index, err)
			}
			for _, id := range parsed.PaneIDs() {
				lp, ok := panesByID[id]
				if !ok {
					return nil, fmt.Errorf("v1 metadata: window %d references unknown pane %d", lw.Index, id)
				}
				// v1 content blobs keep the raw pane id in the name,
				// "%" included: panes-content/pane-%37.txt.
				win.Panes = append(win.Panes, model.Pane{
					ID:      id,
					Dir:     lp.Dir,
					Command: lp.Command,
					Active:  lp.Active,
					Content: contents[fmt.Sprintf("%s/pane-%s.txt", contentDir, lp.ID)],
				})
			}
			sess.Windows = append(sess.Windows, win)
		}
		snap.Sessions = append(snap.Sessions, sess)
	}
	return snap, nil
}

func legacyPaneID(s string) (int, error) {
	id, err := parseIntAfter(s, '%')
	if err != nil {
		return 0, fmt.Errorf("invalid pane id %q", s)
	}
	return id, nil
}

func parseIntAfter(s string, marker byte) (int, error) {
	if len(s) < 2 || s[0] != marker {
		return 0, fmt.Errorf("missing %q marker", marker)
	}
	n := 0
	for i := 1; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("not a number")
		}
		n = n*10 + int(s[i]-'0')
	}
	return n, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if strings.TrimSpace(v) == s {
			return true
		}
	}
	return false
}
