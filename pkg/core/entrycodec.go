package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/asnlsxx/bakctl/pkg/longpath"
	"github.com/asnlsxx/bakctl/pkg/progress"
)

// packEntry implements the per-entry pack state machine (spec.md §4.5): it
// writes we's header and, depending on kind and hardlink status, a
// long-path block or raw content bytes. It returns the number of raw
// content bytes written (0 for anything but a content-carrying regular
// file) so the caller can track pack-time throughput.
func packEntry(w io.Writer, we walkEntry, table *inodeTable, tracker *progress.Tracker, log zerolog.Logger) (uint64, error) {
	meta := we.meta

	switch we.kind {
	case KindDirectory, KindFifo:
		meta.Size = 0
		if err := (EntryHeader{RelPath: we.relPath, Metadata: meta}).writeTo(w); err != nil {
			return 0, fmt.Errorf("core: pack %s: %w", we.relPath, err)
		}
		return 0, nil

	case KindSymlink:
		target, err := os.Readlink(we.absPath)
		if err != nil {
			return 0, fmt.Errorf("core: readlink %s: %w", we.absPath, err)
		}
		meta.Size = uint64(len(target))
		if err := (EntryHeader{RelPath: we.relPath, Metadata: meta}).writeTo(w); err != nil {
			return 0, fmt.Errorf("core: pack %s: %w", we.relPath, err)
		}
		if err := longpath.Write(w, target); err != nil {
			return 0, fmt.Errorf("core: pack symlink target %s: %w", we.relPath, err)
		}
		return 0, nil

	case KindRegular:
		return packRegular(w, we, meta, table, tracker, log)

	default:
		return 0, fmt.Errorf("%w: unrecognized kind for %s", ErrBadArchive, we.relPath)
	}
}

func packRegular(w io.Writer, we walkEntry, meta Metadata, table *inodeTable, tracker *progress.Tracker, log zerolog.Logger) (uint64, error) {
	if meta.Nlink <= 1 {
		return writeRegularHeaderAndContent(w, we, meta, tracker)
	}

	canonicalPath, isCarrier := table.Record(meta.Ino, we.relPath)
	if isCarrier {
		// First sighting of this inode: becomes the canonical content
		// carrier. Its on-wire nlink is forced to 1 to mark it as such
		// (spec.md §3 invariants).
		meta.Nlink = 1
		return writeRegularHeaderAndContent(w, we, meta, tracker)
	}

	// A later sighting of an already-recorded inode: write only a pointer,
	// preserving the original (>1) nlink on wire so unpack recognizes it.
	log.Debug().Str("path", we.relPath).Str("canonical", canonicalPath).Msg("packing hardlink pointer")
	if err := (EntryHeader{RelPath: we.relPath, Metadata: meta}).writeTo(w); err != nil {
		return 0, fmt.Errorf("core: pack %s: %w", we.relPath, err)
	}
	if err := longpath.Write(w, canonicalPath); err != nil {
		return 0, fmt.Errorf("core: pack hardlink pointer %s: %w", we.relPath, err)
	}
	return 0, nil
}

func writeRegularHeaderAndContent(w io.Writer, we walkEntry, meta Metadata, tracker *progress.Tracker) (uint64, error) {
	if err := (EntryHeader{RelPath: we.relPath, Metadata: meta}).writeTo(w); err != nil {
		return 0, fmt.Errorf("core: pack %s: %w", we.relPath, err)
	}
	if meta.Size == 0 {
		return 0, nil
	}
	f, err := os.Open(we.absPath)
	if err != nil {
		return 0, fmt.Errorf("core: open %s: %w", we.absPath, err)
	}
	defer f.Close()

	dst := io.Writer(w)
	if tracker != nil {
		dst = &progress.Writer{W: w, Tracker: tracker}
	}
	n, err := io.CopyN(dst, f, int64(meta.Size))
	if err != nil && err != io.EOF {
		return uint64(n), fmt.Errorf("core: copy content %s: %w", we.relPath, err)
	}
	if uint64(n) != meta.Size {
		return uint64(n), fmt.Errorf("core: %s shrank while packing: wrote %d of %d declared bytes", we.relPath, n, meta.Size)
	}
	return uint64(n), nil
}

// unpackEntry implements the mirror-image read side of the state machine,
// restoring filesystem state for one entry under baseDir. It returns
// whether a metadata-restoration warning was logged (spec.md's
// MetadataPartial, which never fails the entry).
func unpackEntry(r io.Reader, baseDir string, h EntryHeader, restoreMeta bool, tracker *progress.Tracker, log zerolog.Logger) (bool, error) {
	kind, ok := KindFromMode(h.Metadata.Mode)
	if !ok {
		return false, fmt.Errorf("%w: unknown entry kind for mode %#o", ErrBadArchive, h.Metadata.Mode)
	}

	absPath := filepath.Join(baseDir, filepath.FromSlash(h.RelPath))
	if err := prepareDestination(absPath, kind); err != nil {
		return false, err
	}

	switch kind {
	case KindDirectory:
		if err := os.MkdirAll(absPath, 0o777); err != nil {
			return false, fmt.Errorf("core: mkdir %s: %w", absPath, err)
		}

	case KindFifo:
		if err := syscall.Mkfifo(absPath, 0o666); err != nil {
			return false, fmt.Errorf("core: mkfifo %s: %w", absPath, err)
		}

	case KindSymlink:
		target, err := longpath.Read(r)
		if err != nil {
			return false, fmt.Errorf("core: read symlink target for %s: %w", h.RelPath, err)
		}
		if err := os.Symlink(target, absPath); err != nil {
			return false, fmt.Errorf("core: symlink %s -> %s: %w", absPath, target, err)
		}

	case KindRegular:
		if h.Metadata.Nlink <= 1 {
			if err := writeRegularContent(r, absPath, h.Metadata.Size, tracker); err != nil {
				return false, err
			}
		} else {
			canonicalRel, err := longpath.Read(r)
			if err != nil {
				return false, fmt.Errorf("core: read hardlink pointer for %s: %w", h.RelPath, err)
			}
			canonicalAbs := filepath.Join(baseDir, filepath.FromSlash(canonicalRel))
			if err := os.Link(canonicalAbs, absPath); err != nil {
				return false, fmt.Errorf("core: hardlink %s -> %s: %w", absPath, canonicalAbs, err)
			}
		}

	default:
		return false, fmt.Errorf("%w: unrecognized kind for %s", ErrBadArchive, h.RelPath)
	}

	if !restoreMeta {
		return false, nil
	}
	if err := restoreMetadata(absPath, h.Metadata, kind); err != nil {
		log.Warn().Err(err).Str("path", h.RelPath).Msg("metadata restore incomplete")
		return true, nil
	}
	return false, nil
}

func writeRegularContent(r io.Reader, absPath string, size uint64, tracker *progress.Tracker) error {
	f, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("core: create %s: %w", absPath, err)
	}
	defer f.Close()

	if size == 0 {
		return nil
	}

	var dst io.Writer = f
	if tracker != nil {
		dst = &progress.Writer{W: f, Tracker: tracker}
	}
	written, err := io.CopyN(dst, r, int64(size))
	if err != nil && err != io.EOF {
		return fmt.Errorf("core: write content %s: %w", absPath, err)
	}
	if uint64(written) != size {
		return fmt.Errorf("%w: %s expected %d bytes, got %d", ErrBadArchive, absPath, size, written)
	}
	return nil
}

// prepareDestination removes any existing file at absPath and creates its
// parent directory tree, per spec.md §4.5 ("before each output path is
// written, if a file exists there it is removed; the parent directory is
// created if absent").
func prepareDestination(absPath string, kind Kind) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o777); err != nil {
		return fmt.Errorf("core: mkdir parent of %s: %w", absPath, err)
	}
	if _, err := os.Lstat(absPath); err == nil {
		if err := os.RemoveAll(absPath); err != nil {
			return fmt.Errorf("core: remove existing %s: %w", absPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("core: stat %s: %w", absPath, err)
	}
	return nil
}
