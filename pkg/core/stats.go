package core

// Stats is additive telemetry returned alongside a nil error from Pack and
// Unpack; it does not change the archive format. MetadataWarnings lets a
// caller notice the spec's "MetadataPartial" condition (spec.md §7)
// without scraping logs: a partial metadata restore still completes the
// operation successfully, but the count says so.
type Stats struct {
	EntriesWritten  int
	EntriesRestored int
	BytesRaw        uint64
	BytesFinal      uint64
	MetadataWarnings int
}

// ListEntry is the read-only projection of an archive entry produced by
// List, without any filesystem side effect (spec.md §4.9, restoring the
// original's Packer::List).
type ListEntry struct {
	RelPath  string
	Kind     Kind
	Size     uint64
	Mode     uint32
	// LinkTarget holds the symlink target for KindSymlink entries, or the
	// canonical path pointer for hardlink entries written with nlink>1 on
	// wire; empty otherwise.
	LinkTarget string
	// IsHardlinkPointer is true when this regular entry carries no content
	// of its own and LinkTarget names the canonical content carrier.
	IsHardlinkPointer bool
}
