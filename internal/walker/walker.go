// Package walker enumerates candidate native source files under a root
// directory.
package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
	"github.com/conneroisu/srcguard/internal/logging"
)

// Walker enumerates files whose name ends in one of Extensions. Directories
// and files matching an Exclude glob (root-relative, slash separated) are
// skipped. Symlinked files are emitted; symlinked directories are not
// descended into.
type Walker struct {
	extensions []string
	exclude    []string
	logger     logging.Logger
}

// New creates a walker for the given extensions and exclude globs.
func New(extensions, exclude []string, logger logging.Logger) *Walker {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Walker{
		extensions: extensions,
		exclude:    exclude,
		logger:     logger.WithComponent("walker"),
	}
}

// Validate checks that root exists and is a directory.
func Validate(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scanerrors.NewInvalidRootError(scanerrors.CodeRootNotFound, root, err)
		}
		return scanerrors.NewInvalidRootError(scanerrors.CodeRootUnreadable, root, err)
	}
	if !info.IsDir() {
		return scanerrors.NewInvalidRootError(scanerrors.CodeRootNotDir, root, nil)
	}
	return nil
}

// Walk validates root and calls emit for every candidate file. Order is
// unspecified. Unreadable entries below root are logged and skipped; only an
// invalid root or an error returned by emit stops the walk.
func (w *Walker) Walk(ctx context.Context, root string, emit func(path string) error) error {
	if err := Validate(root); err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return scanerrors.NewInvalidRootError(scanerrors.CodeRootUnreadable, root, err)
			}
			w.logger.Warn(ctx, err, "Skipping unreadable entry", "path", path)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != root && w.excluded(root, path) {
			w.logger.Debug(ctx, "Excluded", "path", path)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !w.HasExtension(path) || !w.candidate(path, d) {
			return nil
		}

		return emit(path)
	})
}

// candidate accepts regular files and symlinks that do not resolve to a
// directory. Dangling or looping links are emitted so that opening them
// surfaces as a read error.
func (w *Walker) candidate(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err != nil || !info.IsDir()
}

// HasExtension reports whether path ends in one of the configured extensions.
func (w *Walker) HasExtension(path string) bool {
	for _, ext := range w.extensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Accepts reports whether path under root would be emitted by Walk, ignoring
// whether it still exists.
func (w *Walker) Accepts(root, path string) bool {
	return w.HasExtension(path) && !w.excluded(root, path)
}

func (w *Walker) excluded(root, path string) bool {
	if len(w.exclude) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
