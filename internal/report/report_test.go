package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tmux-vault/tmux-vault/internal/backup"
	"github.com/tmux-vault/tmux-vault/internal/catalog"
	"github.com/tmux-vault/tmux-vault/internal/model"
)

var reportNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func tableEntries() []catalog.Entry {
	return []catalog.Entry{
		{
			Filepath:  "/backups/backup-20240614T120000.000000.tar.zst",
			CreatedAt: reportNow.AddDate(0, 0, -1),
			Status:    catalog.Purgeable,
		},
		{
			Filepath:  "/backups/backup-20240615T100000.000000.tar.zst",
			CreatedAt: reportNow.Add(-2 * time.Hour),
			Status:    catalog.Retainable,
			Size:      2048,
			Overview:  &model.Overview{Version: "2.0", Sessions: 2, Windows: 3, Panes: 5},
		},
	}
}

func TestTable_NumbersOldestFirst(t *testing.T) {
	out := Table(tableEntries(), reportNow, false)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: got %d, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "1.") || !strings.Contains(lines[1], "backup-20240614T120000") {
		t.Errorf("row 1: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "2.") || !strings.Contains(lines[2], "backup-20240615T100000") {
		t.Errorf("row 2: %q", lines[2])
	}
	if !strings.Contains(lines[1], "purgeable") || !strings.Contains(lines[2], "retainable") {
		t.Errorf("statuses missing:\n%s", out)
	}
	if !strings.Contains(lines[1], "1 day ago") {
		t.Errorf("age missing: %q", lines[1])
	}
}

func TestTable_Details(t *testing.T) {
	out := Table(tableEntries(), reportNow, true)
	if !strings.Contains(out, "FILESIZE") || !strings.Contains(out, "CONTENT") {
		t.Errorf("detail headers missing:\n%s", out)
	}
	if !strings.Contains(out, "2.0 kB") {
		t.Errorf("size missing:\n%s", out)
	}
	if !strings.Contains(out, "2 sessions 3 windows 5 panes") {
		t.Errorf("content overview missing:\n%s", out)
	}
}

func TestTable_UnreadableEntry(t *testing.T) {
	entries := tableEntries()
	entries[0].Err = errors.New("corrupt archive")

	out := Table(entries, reportNow, true)
	if !strings.Contains(out, "unreadable") {
		t.Errorf("unreadable status missing:\n%s", out)
	}
	if !strings.Contains(out, "corrupt archive") {
		t.Errorf("per-entry error missing:\n%s", out)
	}
}

func TestTable_Empty(t *testing.T) {
	if out := Table(nil, reportNow, false); out != "no backups\n" {
		t.Errorf("got %q", out)
	}
}

func TestFilepaths(t *testing.T) {
	out := Filepaths(tableEntries())
	want := "/backups/backup-20240614T120000.000000.tar.zst\n" +
		"/backups/backup-20240615T100000.000000.tar.zst\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestSaveLine(t *testing.T) {
	res := &backup.SaveResult{
		Path:     "/backups/backup-20240615T100000.000000.tar.zst",
		Overview: model.Overview{Sessions: 2, Windows: 3, Panes: 5},
	}
	got := Save(res)
	want := "saved 2 sessions 3 windows 5 panes to /backups/backup-20240615T100000.000000.tar.zst\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRestoreLine(t *testing.T) {
	res := &backup.RestoreResult{Sessions: 2, Windows: 4, Panes: 6}
	got := Restore(res, "/backups/backup-20240615T100000.000000.tar.zst")
	want := "restored 2 sessions 4 windows 6 panes from backup-20240615T100000.000000.tar.zst\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCompactLine(t *testing.T) {
	if got := Compact(catalog.CompactResult{Deleted: 3, Planned: 3}); got != "deleted 3 backups\n" {
		t.Errorf("got %q", got)
	}
	got := Compact(catalog.CompactResult{Deleted: 2, Planned: 3, Errs: []error{errors.New("x")}})
	if got != "deleted 2 of 3 backups (1 failed)\n" {
		t.Errorf("got %q", got)
	}
}

func TestDescribe(t *testing.T) {
	e := tableEntries()[1]
	out := Describe(e, reportNow)
	for _, want := range []string{
		"backup-20240615T100000.000000.tar.zst",
		"2 hours ago",
		"2.0 kB",
		"version: 2.0",
		"2 sessions 3 windows 5 panes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
