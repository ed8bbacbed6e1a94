package core

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// walkEntry is one candidate produced by the iterator, already stat'd.
type walkEntry struct {
	relPath string
	absPath string
	meta    Metadata
	kind    Kind
}

// walkEntries produces a deterministic depth-first pre-order sequence of
// root's descendants, after applying predicate. Directories are themselves
// subject to predicate, but their children are still visited and
// predicated independently (spec.md §4.7). Symlinks are reported as
// themselves — filepath.WalkDir never follows them — and yielded exactly
// once, matching fs.WalkDir's own guarantee.
func walkEntries(root string, predicate Predicate, fn func(walkEntry) error) error {
	if predicate == nil {
		predicate = includeAll
	}
	return filepath.WalkDir(root, func(absPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("core: walk %s: %w", absPath, err)
		}
		if absPath == root {
			return nil
		}
		relPath, err := filepath.Rel(root, absPath)
		if err != nil {
			return fmt.Errorf("core: relative path for %s: %w", absPath, err)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("core: stat %s: %w", relPath, err)
		}
		meta, err := metadataFromFileInfo(info)
		if err != nil {
			return fmt.Errorf("core: metadata for %s: %w", relPath, err)
		}
		kind, ok := KindFromMode(meta.Mode)
		if !ok {
			// Devices, sockets, and other non-archivable types are skipped.
			return nil
		}

		if !predicate(relPath, kind) {
			return nil
		}

		return fn(walkEntry{relPath: filepath.ToSlash(relPath), absPath: absPath, meta: meta, kind: kind})
	})
}
