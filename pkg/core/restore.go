package core

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// restoreMetadata applies permissions, ownership, and timestamps to absPath
// (spec.md §4.8). Every step is attempted independently and best-effort:
// a failure here never aborts Unpack, it only produces the returned error
// for the caller to log and count as a warning.
func restoreMetadata(absPath string, m Metadata, kind Kind) error {
	var errs []error

	if kind != KindSymlink {
		if err := os.Chmod(absPath, m.Perm()); err != nil {
			errs = append(errs, fmt.Errorf("chmod: %w", err))
		}
	}

	if err := chown(absPath, int(m.Uid), int(m.Gid), kind); err != nil {
		errs = append(errs, fmt.Errorf("chown: %w", err))
	}

	if err := utimes(absPath, m.Atime, m.Mtime); err != nil {
		errs = append(errs, fmt.Errorf("utimes: %w", err))
	}

	return errors.Join(errs...)
}

func chown(absPath string, uid, gid int, kind Kind) error {
	if kind == KindSymlink {
		return os.Lchown(absPath, uid, gid)
	}
	return os.Chown(absPath, uid, gid)
}

// utimes restores access and modification times at nanosecond precision
// without following symlinks, which os.Chtimes cannot do (spec.md §4.8
// requires lutimes-equivalent semantics for symlink entries too).
func utimes(absPath string, atime, mtime Timespec) error {
	ts := []unix.Timespec{
		unix.NsecToTimespec(atime.Sec*1e9 + int64(atime.Nsec)),
		unix.NsecToTimespec(mtime.Sec*1e9 + int64(mtime.Nsec)),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, absPath, ts, unix.AT_SYMLINK_NOFOLLOW)
}
