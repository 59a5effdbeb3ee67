// Package report renders catalog listings and one-line operation
// summaries for the CLI.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tmux-vault/tmux-vault/internal/backup"
	"github.com/tmux-vault/tmux-vault/internal/catalog"
)

var (
	retainableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	purgeableStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	headerStyle     = lipgloss.NewStyle().Bold(true)
)

// Table renders the catalog listing. Entries are numbered oldest
// first, starting at 1. With details set, size, format version and
// content columns are included (populated by a detail listing).
func Table(entries []catalog.Entry, now time.Time, details bool) string {
	if len(entries) == 0 {
		return "no backups\n"
	}

	header := []string{"", "NAME", "AGE", "STATUS"}
	if details {
		header = append(header, "FILESIZE", "VERSION", "CONTENT")
	}

	rows := [][]string{}
	for i, e := range entries {
		row := []string{
			fmt.Sprintf("%d.", i+1),
			filepath.Base(e.Filepath),
			humanize.RelTime(e.CreatedAt, now, "ago", "from now"),
			status(e),
		}
		if details {
			row = append(row, detailColumns(e)...)
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(formatRow(header, widths)))
	b.WriteByte('\n')
	for i, row := range rows {
		line := formatRow(row, widths)
		switch {
		case entries[i].Err != nil:
			line = errStyle.Render(line)
		case entries[i].Status == catalog.Purgeable:
			line = purgeableStyle.Render(line)
		default:
			line = retainableStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func status(e catalog.Entry) string {
	if e.Err != nil {
		return "unreadable"
	}
	return e.Status.String()
}

func detailColumns(e catalog.Entry) []string {
	if e.Err != nil {
		return []string{"-", "-", e.Err.Error()}
	}
	if e.Overview == nil {
		return []string{humanize.Bytes(uint64(e.Size)), "-", "-"}
	}
	return []string{
		humanize.Bytes(uint64(e.Size)),
		e.Overview.Version,
		e.Overview.String(),
	}
}

// Filepaths renders one absolute path per line, oldest first.
func Filepaths(entries []catalog.Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Filepath)
		b.WriteByte('\n')
	}
	return b.String()
}

// Save renders the one-line summary printed after a save.
func Save(res *backup.SaveResult) string {
	return fmt.Sprintf("saved %s to %s\n", res.Overview, res.Path)
}

// Restore renders the one-line summary printed after a restore.
func Restore(res *backup.RestoreResult, source string) string {
	return fmt.Sprintf("restored %d sessions %d windows %d panes from %s\n",
		res.Sessions, res.Windows, res.Panes, filepath.Base(source))
}

// Compact renders the one-line summary printed after a compaction.
func Compact(res catalog.CompactResult) string {
	if len(res.Errs) > 0 {
		return fmt.Sprintf("deleted %d of %d backups (%d failed)\n",
			res.Deleted, res.Planned, len(res.Errs))
	}
	return fmt.Sprintf("deleted %d backups\n", res.Deleted)
}

// Describe renders one backup's details, one field per line.
func Describe(e catalog.Entry, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name:    %s\n", filepath.Base(e.Filepath))
	fmt.Fprintf(&b, "age:     %s\n", humanize.RelTime(e.CreatedAt, now, "ago", "from now"))
	fmt.Fprintf(&b, "size:    %s\n", humanize.Bytes(uint64(e.Size)))
	if e.Overview != nil {
		fmt.Fprintf(&b, "version: %s\n", e.Overview.Version)
		fmt.Fprintf(&b, "content: %s\n", e.Overview)
	}
	return b.String()
}
