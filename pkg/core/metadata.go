package core

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"

	digest "github.com/opencontainers/go-digest"
)

// MetadataSize is the fixed on-wire size of a Metadata record (spec.md §6):
// mode, uid, gid (u32 each), size, nlink, ino (u64 each), and three
// (seconds int64, nanoseconds uint32) timestamp pairs.
const MetadataSize = 4*3 + 8*3 + (8+4)*3

// Timespec is a whole-seconds-plus-nanoseconds timestamp, matching POSIX
// struct timespec precision.
type Timespec struct {
	Sec  int64
	Nsec uint32
}

// Metadata is the platform-neutral per-entry record stored alongside each
// entry's path (spec.md §3).
type Metadata struct {
	Mode  uint32
	Uid   uint32
	Gid   uint32
	Size  uint64
	Nlink uint64
	Ino   uint64
	Atime Timespec
	Mtime Timespec
	Ctime Timespec
}

// Kind reports the entry type encoded in Mode's type bits.
func (m Metadata) Kind() (Kind, bool) {
	return KindFromMode(m.Mode)
}

// Perm returns the permission bits (mode & 0o7777), as restored by
// restoreMetadata (spec.md §4.5).
func (m Metadata) Perm() os.FileMode {
	return os.FileMode(m.Mode & 0o7777)
}

// metadataFromFileInfo builds a Metadata from an os.Lstat result, reading
// uid/gid/ino/nlink/ctime off the platform-specific syscall.Stat_t the way
// the original BackupManager populated its embedded struct stat.
func metadataFromFileInfo(info os.FileInfo) (Metadata, error) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Metadata{}, fmt.Errorf("core: unsupported platform stat for %s", info.Name())
	}
	return Metadata{
		Mode:  uint32(st.Mode),
		Uid:   st.Uid,
		Gid:   st.Gid,
		Size:  uint64(info.Size()),
		Nlink: uint64(st.Nlink),
		Ino:   st.Ino,
		Atime: Timespec{Sec: int64(st.Atim.Sec), Nsec: uint32(st.Atim.Nsec)},
		Mtime: Timespec{Sec: int64(st.Mtim.Sec), Nsec: uint32(st.Mtim.Nsec)},
		Ctime: Timespec{Sec: int64(st.Ctim.Sec), Nsec: uint32(st.Ctim.Nsec)},
	}, nil
}

// writeTo serialises m field-by-field in the fixed wire order, deliberately
// avoiding a direct struct write so Go's field alignment never leaks into
// the archive (spec.md §9).
func (m Metadata) writeTo(w io.Writer) error {
	buf := make([]byte, MetadataSize)
	binary.LittleEndian.PutUint32(buf[0:4], m.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], m.Uid)
	binary.LittleEndian.PutUint32(buf[8:12], m.Gid)
	binary.LittleEndian.PutUint64(buf[12:20], m.Size)
	binary.LittleEndian.PutUint64(buf[20:28], m.Nlink)
	binary.LittleEndian.PutUint64(buf[28:36], m.Ino)
	binary.LittleEndian.PutUint64(buf[36:44], uint64(m.Atime.Sec))
	binary.LittleEndian.PutUint32(buf[44:48], m.Atime.Nsec)
	binary.LittleEndian.PutUint64(buf[48:56], uint64(m.Mtime.Sec))
	binary.LittleEndian.PutUint32(buf[56:60], m.Mtime.Nsec)
	binary.LittleEndian.PutUint64(buf[60:68], uint64(m.Ctime.Sec))
	binary.LittleEndian.PutUint32(buf[68:72], m.Ctime.Nsec)
	_, err := w.Write(buf)
	return err
}

func readMetadata(r io.Reader) (Metadata, error) {
	buf := make([]byte, MetadataSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Metadata{}, fmt.Errorf("%w: reading metadata: %v", ErrBadArchive, err)
	}
	var m Metadata
	m.Mode = binary.LittleEndian.Uint32(buf[0:4])
	m.Uid = binary.LittleEndian.Uint32(buf[4:8])
	m.Gid = binary.LittleEndian.Uint32(buf[8:12])
	m.Size = binary.LittleEndian.Uint64(buf[12:20])
	m.Nlink = binary.LittleEndian.Uint64(buf[20:28])
	m.Ino = binary.LittleEndian.Uint64(buf[28:36])
	m.Atime = Timespec{Sec: int64(binary.LittleEndian.Uint64(buf[36:44])), Nsec: binary.LittleEndian.Uint32(buf[44:48])}
	m.Mtime = Timespec{Sec: int64(binary.LittleEndian.Uint64(buf[48:56])), Nsec: binary.LittleEndian.Uint32(buf[56:60])}
	m.Ctime = Timespec{Sec: int64(binary.LittleEndian.Uint64(buf[60:68])), Nsec: binary.LittleEndian.Uint32(buf[68:72])}
	return m, nil
}

// digestFingerprint returns a fingerprint of the inode id and relative path
// (not of the file content) for debug logging when a hardlink's canonical
// content carrier is recorded; it is observability only and plays no part
// in the wire format or round trip.
func digestFingerprint(relPath string, ino uint64) digest.Digest {
	return digest.FromString(fmt.Sprintf("%d:%s", ino, relPath))
}

// Digest returns m's debug fingerprint, keyed by relPath and m.Ino: the same
// value that inodeTable.Record (pkg/core/inode.go) logs, via
// digestFingerprint, when a hardlink's content carrier is recorded. It is
// never part of the wire format.
func (m Metadata) Digest(relPath string) digest.Digest {
	return digestFingerprint(relPath, m.Ino)
}
