package core

import (
	"os"
	"path/filepath"
	"testing"
)

// TestRestoreMetadataAppliesPermissionsOwnerAndTimes exercises
// restoreMetadata directly (spec.md §4.8): chmod, chown (to the test
// process's own uid/gid, which is always permitted), and nanosecond-precision
// utimes.
func TestRestoreMetadataAppliesPermissionsOwnerAndTimes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	mustWriteFile(t, path, []byte("x"))

	m := Metadata{
		Mode:  0o100640,
		Uid:   uint32(os.Getuid()),
		Gid:   uint32(os.Getgid()),
		Atime: Timespec{Sec: 1000000000, Nsec: 111000},
		Mtime: Timespec{Sec: 1000000500, Nsec: 222000},
	}

	if err := restoreMetadata(path, m, KindRegular); err != nil {
		t.Fatalf("restoreMetadata: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != os.FileMode(0o640) {
		t.Fatalf("perm = %v, want 0640", info.Mode().Perm())
	}
	if got := info.ModTime().Unix(); got != m.Mtime.Sec {
		t.Fatalf("mtime sec = %d, want %d", got, m.Mtime.Sec)
	}
	if got := info.ModTime().Nanosecond(); got != int(m.Mtime.Nsec) {
		t.Fatalf("mtime nsec = %d, want %d", got, m.Mtime.Nsec)
	}
}

// TestRestoreMetadataSymlinkUsesLchown confirms the symlink variant calls
// the non-following chown/utimes path and never chmods the link itself
// (symlink permission bits are not a meaningful restore target).
func TestRestoreMetadataSymlinkUsesLchown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "link")
	if err := os.Symlink("target-does-not-need-to-exist", path); err != nil {
		t.Fatalf("Symlink: %v", err)
	}

	m := Metadata{
		Uid:   uint32(os.Getuid()),
		Gid:   uint32(os.Getgid()),
		Atime: Timespec{Sec: 2000000000},
		Mtime: Timespec{Sec: 2000000100},
	}
	if err := restoreMetadata(path, m, KindSymlink); err != nil {
		t.Fatalf("restoreMetadata: %v", err)
	}

	info, err := os.Lstat(path)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("path is no longer a symlink after restoreMetadata")
	}
}
