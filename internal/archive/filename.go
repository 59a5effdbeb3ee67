package archive

import (
	"path/filepath"
	"strings"
	"time"
)

// Backup filenames carry their creation timestamp: the catalog sorts
// and ages backups without opening them, so there is no index file.
// Example: backup-20220910T172024.141993.tar.zst
const (
	filenamePrefix = "backup-"

	// Extension of backup container files.
	Extension = ".tar.zst"

	timestampLayout = "20060102T150405.000000"
)

// Filename returns the backup filename for a creation time. The
// timestamp is UTC with microsecond precision, so two saves in the
// same second still get distinct, correctly ordered names.
func Filename(t time.Time) string {
	return filenamePrefix + t.UTC().Format(timestampLayout) + Extension
}

// Filepath returns the full path of a new backup in dir.
func Filepath(dir string, t time.Time) string {
	return filepath.Join(dir, Filename(t))
}

// ParseFilename extracts the creation timestamp from a backup
// filename. The second return is false for files that do not follow
// the contract; the catalog ignores those.
func ParseFilename(name string) (time.Time, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, filenamePrefix) || !strings.HasSuffix(base, Extension) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, filenamePrefix), Extension)
	t, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
