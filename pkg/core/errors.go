package core

import "errors"

// Sentinel errors corresponding to the error kinds in spec.md §7.
// IoError has no sentinel of its own: it is whatever *os.PathError or
// *fs.PathError the failing syscall produced, wrapped with %w, matching
// the teacher's own fmt.Errorf("...: %w", err) idiom throughout.
var (
	// ErrBadArchive covers a truncated archive header or entry metadata
	// record, unknown mod bits or non-zero reserved header bytes, unknown
	// entry kinds, and regular-file content shorter than its declared size.
	// A truncated entry path field, a long-path block with an implausible
	// length or cut short, and a corrupt or truncated LZW frame are reported
	// with their own errors and are not wrapped in ErrBadArchive.
	ErrBadArchive = errors.New("core: malformed archive")

	// ErrBadKeyOrCorrupt signals that AES-CBC's PKCS#7 padding check failed
	// on unpack — the observable sign of a wrong password.
	ErrBadKeyOrCorrupt = errors.New("core: bad key or corrupt archive")

	// ErrChecksumMismatch is returned only by Verify, when the header's
	// stored CRC32 disagrees with the recomputed one.
	ErrChecksumMismatch = errors.New("core: checksum mismatch")

	// ErrEmptyPassword is returned by Pack when WithEncrypt(true, "") is
	// requested: an empty password derives a key indistinguishable from
	// "no password", which is never what the caller meant.
	ErrEmptyPassword = errors.New("core: encrypt requested with empty password")
)
