package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"undofile/pkg/fs"
)

// ErrNoUndoDir is returned by [UndoFilePath] when none of the
// configured directories exist and "." (alongside the edited file)
// isn't among them either.
var ErrNoUndoDir = errors.New("config: no usable undo directory")

// UndoFilePath implements the source's get_undofile_path: it walks
// dirsSpec, a colon-separated list mirroring vim's 'undodir', and
// returns the undo-file path in the first shared-directory entry that
// exists. "." means "next to the edited file itself", stored as a
// leading-dot hidden file rather than under a shared directory; it is
// used only when no listed shared directory exists, wherever "."
// appears in the list. Any other entry is a shared directory, and the
// file within it is named by turning
// bufferPath's absolute form into a single flat name (so undo files
// for buffers with the same base name don't collide).
func UndoFilePath(fsys fs.FS, dirsSpec, bufferPath string) (string, error) {
	if dirsSpec == "" {
		dirsSpec = "."
	}

	abs, err := filepath.Abs(bufferPath)
	if err != nil {
		return "", fmt.Errorf("config: resolve %q: %w", bufferPath, err)
	}

	var sawDot bool

	for _, dir := range strings.Split(dirsSpec, ":") {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}

		if dir == "." {
			sawDot = true

			continue
		}

		info, statErr := fsys.Stat(dir)
		if statErr != nil || !info.IsDir() {
			continue
		}

		return filepath.Join(dir, encodePath(abs)), nil
	}

	if sawDot {
		return sideFilePath(abs), nil
	}

	return "", fmt.Errorf("%w: %q", ErrNoUndoDir, dirsSpec)
}

// encodePath flattens an absolute path into a single filename by
// replacing every separator with "%", mirroring the source's own
// escaping so a shared undo directory holds one file per source path
// rather than colliding on base name.
func encodePath(abs string) string {
	return strings.ReplaceAll(abs, string(filepath.Separator), "%")
}

// sideFilePath is the undo file stored next to the edited file itself:
// a leading-dot hidden sibling.
func sideFilePath(abs string) string {
	dir, base := filepath.Split(abs)

	return filepath.Join(dir, "."+base+".un~")
}
