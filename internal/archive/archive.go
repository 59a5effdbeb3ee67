// Package archive reads and writes backup container files.
//
// A backup is a zstd-compressed tar with three kinds of entries:
//
//	version                                  format version, written first
//	metadata.json                            the Snapshot without pane content
//	panes-content/<session>/<window>/pane-<id>.txt
//
// The version entry comes first so a reader can reject an archive from
// a newer release before touching anything else. Older format versions
// remain readable and are upgraded in memory (see legacy.go).
package archive

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/tmux-vault/tmux-vault/internal/model"
)

// FormatVersion is the archive format version written by this release.
const FormatVersion = "2.0"

const (
	versionEntry  = "version"
	metadataEntry = "metadata.json"
	contentDir    = "panes-content"
)

// ErrUnsupportedVersion marks an archive written by a newer release
// than this reader supports.
var ErrUnsupportedVersion = errors.New("unsupported archive format version")

// ErrMissingMetadata marks an archive without a metadata record.
var ErrMissingMetadata = errors.New("archive has no metadata record")

// Write serializes a snapshot to a new backup file at dest, creating
// the destination directory if needed. The archive is first written to
// a temporary file in the destination directory and renamed into place
// on success, so a crash mid-write never leaves a half-written backup
// visible to the catalog.
func Write(dest string, snap *model.Snapshot) (err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating backup directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".backup-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary backup file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = writeArchive(tmp, snap); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("renaming backup into place: %w", err)
	}
	return nil
}

func writeArchive(w io.Writer, snap *model.Snapshot) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(zw)

	// Version entry first: readers check it before anything else.
	if err := writeEntry(tw, versionEntry, []byte(FormatVersion)); err != nil {
		return err
	}

	meta := *snap
	meta.Version = FormatVersion
	metaBytes, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}
	if err := writeEntry(tw, metadataEntry, metaBytes); err != nil {
		return err
	}

	for _, sess := range snap.Sessions {
		for _, win := range sess.Windows {
			for _, pane := range win.Panes {
				if len(pane.Content) == 0 {
					continue
				}
				body := strings.Join(pane.Content, "\n") + "\n"
				name := contentPath(sess.Name, win.Index, pane.ID)
				if err := writeEntry(tw, name, []byte(body)); err != nil {
					return err
				}
			}
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return zw.Close()
}

func writeEntry(tw *tar.Writer, name string, body []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(body)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header %s: %w", name, err)
	}
	if _, err := tw.Write(body); err != nil {
		return fmt.Errorf("tar entry %s: %w", name, err)
	}
	return nil
}

// Read decodes a full snapshot, pane content included.
func Read(src string) (*model.Snapshot, error) {
	return read(src, true)
}

// ReadMetadata decodes only the snapshot metadata: sessions, windows
// and panes without their captured content. Catalog detail listings
// use this to avoid decompressing scrollback.
func ReadMetadata(src string) (*model.Snapshot, error) {
	return read(src, false)
}

func read(src string, withContent bool) (*model.Snapshot, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	defer zr.Close()
	tr := tar.NewReader(zr)

	var version string
	var metaBytes []byte
	contents := make(map[string][]string)

scan:
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src, err)
		}
		name := path.Clean(hdr.Name)
		switch {
		case name == versionEntry:
			b, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("reading version entry: %w", err)
			}
			version = strings.TrimSpace(string(b))
			if err := checkVersion(version); err != nil {
				return nil, fmt.Errorf("%s: %w", src, err)
			}
		case name == metadataEntry:
			if metaBytes, err = io.ReadAll(tr); err != nil {
				return nil, fmt.Errorf("reading metadata entry: %w", err)
			}
			// Our archives put content after the metadata, so a
			// metadata-only read can stop here.
			if !withContent {
				break scan
			}
		case withContent && strings.HasPrefix(name, contentDir+"/"):
			b, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", name, err)
			}
			contents[name] = splitContent(b)
		}
	}

	if version == "" {
		return nil, fmt.Errorf("%s: archive has no version entry", src)
	}
	if metaBytes == nil {
		return nil, fmt.Errorf("%s: %w", src, ErrMissingMetadata)
	}

	if version == legacyVersion {
		return readLegacy(metaBytes, contents)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(metaBytes, &snap); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	for si := range snap.Sessions {
		sess := &snap.Sessions[si]
		for wi := range sess.Windows {
			win := &sess.Windows[wi]
			for pi := range win.Panes {
				pane := &win.Panes[pi]
				pane.Content = contents[contentPath(sess.Name, win.Index, pane.ID)]
			}
		}
	}
	return &snap, nil
}

// checkVersion rejects versions newer than this reader supports.
// Older versions pass; the decoder decides whether it knows them.
func checkVersion(version string) error {
	maj, min, err := splitVersion(version)
	if err != nil {
		return fmt.Errorf("malformed version %q: %w", version, err)
	}
	curMaj, curMin, _ := splitVersion(FormatVersion)
	if maj > curMaj || (maj == curMaj && min > curMin) {
		return fmt.Errorf("%w: archive is %q, reader supports up to %q", ErrUnsupportedVersion, version, FormatVersion)
	}
	switch version {
	case FormatVersion, legacyVersion:
		return nil
	default:
		return fmt.Errorf("unknown archive format version %q", version)
	}
}

func splitVersion(v string) (major, minor int, err error) {
	parts := strings.SplitN(v, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want MAJOR.MINOR")
	}
	if major, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, err
	}
	if minor, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}

func contentPath(session string, window, paneID int) string {
	return fmt.Sprintf("%s/%s/%d/pane-%d.txt", contentDir, sanitize(session), window, paneID)
}

// sanitize makes a session name safe as a tar path component.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
}

func splitContent(b []byte) []string {
	b = bytes.TrimSuffix(b, []byte("\n"))
	if len(b) == 0 {
		return nil
	}
	return strings.Split(string(b), "\n")
}
