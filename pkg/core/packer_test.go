package core

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// buildSourceTree lays out a directory covering every entry kind: a nested
// directory, a small regular file, a large regular file, a pair of
// hardlinked regular files, a symlink with a short target, a symlink with
// a target long enough to force long-path framing, and a fifo.
func buildSourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	if err := os.MkdirAll(filepath.Join(root, "nested", "deeper"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, filepath.Join(root, "small.txt"), []byte("hello, backup"))
	mustWriteFile(t, filepath.Join(root, "nested", "deeper", "leaf.bin"), bytes.Repeat([]byte{0xAB, 0xCD}, 5000))

	mustWriteFile(t, filepath.Join(root, "hardA.txt"), []byte("shared content"))
	if err := os.Link(filepath.Join(root, "hardA.txt"), filepath.Join(root, "hardB.txt")); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if err := os.Symlink("small.txt", filepath.Join(root, "link-short")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}
	longTarget := strings.Repeat("nested/", 20) + "leaf.bin"
	if err := os.Symlink(longTarget, filepath.Join(root, "link-long")); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	if err := syscall.Mkfifo(filepath.Join(root, "a.fifo"), 0o644); err != nil {
		t.Fatalf("Mkfifo: %v", err)
	}

	return root
}

func packTo(t *testing.T, sourceRoot, archive string, opts ...PackOption) Stats {
	t.Helper()
	stats, err := NewPacker().Pack(context.Background(), sourceRoot, archive, opts...)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	return stats
}

func TestPackUnpackRoundTripPlain(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	restoreRoot := filepath.Join(t.TempDir(), "restore")

	stats := packTo(t, root, archive)
	if stats.EntriesWritten == 0 {
		t.Fatal("EntriesWritten = 0")
	}

	if err := NewPacker().Verify(context.Background(), archive); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	uStats, err := NewPacker().Unpack(context.Background(), archive, restoreRoot)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if uStats.EntriesRestored != stats.EntriesWritten {
		t.Fatalf("EntriesRestored = %d, want %d", uStats.EntriesRestored, stats.EntriesWritten)
	}

	assertRoundTrip(t, root, restoreRoot)
}

func TestPackUnpackRoundTripCompressedEncrypted(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	restoreRoot := filepath.Join(t.TempDir(), "restore")
	const password = "correct horse battery staple"

	packTo(t, root, archive, WithCompress(true), WithEncrypt(true, password))

	if err := NewPacker().Verify(context.Background(), archive); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if _, err := NewPacker().Unpack(context.Background(), archive, restoreRoot, WithPassword(password)); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	assertRoundTrip(t, root, restoreRoot)
}

func TestUnpackWrongPasswordFails(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	restoreRoot := filepath.Join(t.TempDir(), "restore")

	packTo(t, root, archive, WithEncrypt(true, "right-password"))

	_, err := NewPacker().Unpack(context.Background(), archive, restoreRoot, WithPassword("wrong-password"))
	if !errors.Is(err, ErrBadKeyOrCorrupt) {
		t.Fatalf("Unpack with wrong password error = %v, want ErrBadKeyOrCorrupt", err)
	}
}

func TestPackRejectsEmptyPassword(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")

	_, err := NewPacker().Pack(context.Background(), root, archive, WithEncrypt(true, ""))
	if !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("Pack with empty password error = %v, want ErrEmptyPassword", err)
	}
}

func TestVerifyDetectsTamper(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	packTo(t, root, archive)

	data, err := os.ReadFile(archive)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) <= HeaderSize {
		t.Fatal("archive too small to tamper meaningfully")
	}
	data[HeaderSize] ^= 0xFF
	if err := os.WriteFile(archive, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := NewPacker().Verify(context.Background(), archive); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Verify error = %v, want ErrChecksumMismatch", err)
	}
}

func TestPredicateExcludesEntries(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	restoreRoot := filepath.Join(t.TempDir(), "restore")

	predicate := func(relPath string, kind Kind) bool { return relPath != "a.fifo" }
	packTo(t, root, archive, WithPredicate(predicate))

	if _, err := NewPacker().Unpack(context.Background(), archive, restoreRoot); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(restoreRoot, "a.fifo")); !os.IsNotExist(err) {
		t.Fatalf("a.fifo was restored despite being excluded by predicate")
	}
	if _, err := os.Lstat(filepath.Join(restoreRoot, "small.txt")); err != nil {
		t.Fatalf("small.txt should have been restored: %v", err)
	}
}

func TestListMatchesArchiveWithoutFilesystemWrites(t *testing.T) {
	root := buildSourceTree(t)
	archive := filepath.Join(t.TempDir(), "out.bak")
	stats := packTo(t, root, archive)

	listDir := t.TempDir()
	before, err := os.ReadDir(listDir)
	if err != nil {
		t.Fatal(err)
	}

	var entries []ListEntry
	if err := NewPacker().List(context.Background(), archive, func(e ListEntry) error {
		entries = append(entries, e)
		return nil
	}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != stats.EntriesWritten {
		t.Fatalf("List returned %d entries, want %d", len(entries), stats.EntriesWritten)
	}

	after, err := os.ReadDir(listDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(before) != len(after) {
		t.Fatal("List had a filesystem side effect")
	}

	var sawHardlinkPointer bool
	for _, e := range entries {
		if e.RelPath == "hardB.txt" {
			sawHardlinkPointer = true
			if !e.IsHardlinkPointer || e.LinkTarget != "hardA.txt" {
				t.Fatalf("hardB.txt entry = %+v, want IsHardlinkPointer with LinkTarget hardA.txt", e)
			}
		}
	}
	if !sawHardlinkPointer {
		t.Fatal("List did not report hardB.txt as a hardlink pointer")
	}
}

// TestUnpackRestoresMetadata covers spec.md §8 Property 9: permission bits
// and mtime must survive a pack/unpack cycle when restore_metadata=true
// (the default), and must NOT be carried over when the caller opts out via
// WithRestoreMetadata(false).
func TestUnpackRestoresMetadata(t *testing.T) {
	root := buildSourceTree(t)
	srcPath := filepath.Join(root, "small.txt")

	const wantPerm = os.FileMode(0o600)
	if err := os.Chmod(srcPath, wantPerm); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	wantMtime := time.Date(2001, 2, 3, 4, 5, 6, 123456000, time.UTC)
	if err := os.Chtimes(srcPath, wantMtime, wantMtime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "out.bak")
	packTo(t, root, archive)

	t.Run("enabled", func(t *testing.T) {
		restoreRoot := filepath.Join(t.TempDir(), "restore")
		if _, err := NewPacker().Unpack(context.Background(), archive, restoreRoot); err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		info, err := os.Stat(filepath.Join(restoreRoot, "small.txt"))
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Mode().Perm() != wantPerm {
			t.Fatalf("restored perm = %v, want %v", info.Mode().Perm(), wantPerm)
		}
		if !info.ModTime().Equal(wantMtime) {
			t.Fatalf("restored mtime = %v, want %v", info.ModTime(), wantMtime)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		restoreRoot := filepath.Join(t.TempDir(), "restore")
		if _, err := NewPacker().Unpack(context.Background(), archive, restoreRoot, WithRestoreMetadata(false)); err != nil {
			t.Fatalf("Unpack: %v", err)
		}
		info, err := os.Stat(filepath.Join(restoreRoot, "small.txt"))
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Mode().Perm() == wantPerm {
			t.Fatalf("restored perm = %v, want something other than the source's %v when metadata restore is disabled", info.Mode().Perm(), wantPerm)
		}
		if info.ModTime().Equal(wantMtime) {
			t.Fatalf("restored mtime = %v, should not match source mtime %v when metadata restore is disabled", info.ModTime(), wantMtime)
		}
	})
}

// assertRoundTrip walks want, comparing every entry against got.
func assertRoundTrip(t *testing.T, want, got string) {
	t.Helper()

	wantFiles := map[string][]byte{}
	if err := walkEntries(want, includeAll, func(we walkEntry) error {
		switch we.kind {
		case KindRegular:
			data, err := os.ReadFile(we.absPath)
			if err != nil {
				return err
			}
			wantFiles[we.relPath] = data
		}
		return nil
	}); err != nil {
		t.Fatalf("walk want: %v", err)
	}

	for relPath, data := range wantFiles {
		gotData, err := os.ReadFile(filepath.Join(got, relPath))
		if err != nil {
			t.Fatalf("read restored %s: %v", relPath, err)
		}
		if !bytes.Equal(data, gotData) {
			t.Fatalf("content mismatch for %s", relPath)
		}
	}

	shortTarget, err := os.Readlink(filepath.Join(got, "link-short"))
	if err != nil {
		t.Fatalf("readlink link-short: %v", err)
	}
	if shortTarget != "small.txt" {
		t.Fatalf("link-short target = %q, want small.txt", shortTarget)
	}

	wantLongTarget, err := os.Readlink(filepath.Join(want, "link-long"))
	if err != nil {
		t.Fatalf("readlink source link-long: %v", err)
	}
	gotLongTarget, err := os.Readlink(filepath.Join(got, "link-long"))
	if err != nil {
		t.Fatalf("readlink restored link-long: %v", err)
	}
	if gotLongTarget != wantLongTarget {
		t.Fatalf("link-long target = %q, want %q", gotLongTarget, wantLongTarget)
	}

	fifoInfo, err := os.Lstat(filepath.Join(got, "a.fifo"))
	if err != nil {
		t.Fatalf("lstat restored a.fifo: %v", err)
	}
	if fifoInfo.Mode()&os.ModeNamedPipe == 0 {
		t.Fatalf("a.fifo restored mode = %v, want a named pipe", fifoInfo.Mode())
	}

	aInfo, err := os.Stat(filepath.Join(got, "hardA.txt"))
	if err != nil {
		t.Fatalf("stat restored hardA.txt: %v", err)
	}
	bInfo, err := os.Stat(filepath.Join(got, "hardB.txt"))
	if err != nil {
		t.Fatalf("stat restored hardB.txt: %v", err)
	}
	if !os.SameFile(aInfo, bInfo) {
		t.Fatal("hardA.txt and hardB.txt were not restored as the same inode")
	}
}
