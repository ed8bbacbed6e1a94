package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/asnlsxx/bakctl/pkg/aescodec"
	"github.com/asnlsxx/bakctl/pkg/crc32codec"
	"github.com/asnlsxx/bakctl/pkg/longpath"
	"github.com/asnlsxx/bakctl/pkg/lzwcodec"
)

// Packer is the archive pipeline engine (spec.md §4.6). It carries no
// mutable state of its own — base-path threading (SPEC_FULL.md §4.10) means
// every call is self-contained — so a zero-value *Packer is ready to use
// and safe to share across goroutines operating on distinct archives.
type Packer struct{}

// NewPacker returns a ready-to-use Packer.
func NewPacker() *Packer { return &Packer{} }

// Pack walks sourceRoot, builds an archive body in a scratch file adjacent
// to targetArchive, optionally compresses and encrypts it, and writes the
// final header||body file to targetArchive (spec.md §4.6).
func (p *Packer) Pack(ctx context.Context, sourceRoot, targetArchive string, opts ...PackOption) (Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.encrypt && len(o.password) == 0 {
		return Stats{}, ErrEmptyPassword
	}
	log := o.log.With().Str("run_id", uuid.NewString()).Logger()

	var stats Stats
	scratch, err := os.CreateTemp(filepath.Dir(targetArchive), ".bakctl-pack-*")
	if err != nil {
		return stats, fmt.Errorf("core: create scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)
	defer scratch.Close()

	table := newInodeTable(&log)
	err = walkEntries(sourceRoot, o.predicate, func(we walkEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := packEntry(scratch, we, table, o.tracker, log)
		if err != nil {
			return err
		}
		stats.EntriesWritten++
		stats.BytesRaw += n
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("core: pack %s: %w", sourceRoot, err)
	}

	if _, err := scratch.Seek(0, io.SeekStart); err != nil {
		return stats, fmt.Errorf("core: rewind scratch file: %w", err)
	}
	body, err := io.ReadAll(scratch)
	if err != nil {
		return stats, fmt.Errorf("core: read scratch file: %w", err)
	}

	if o.compress {
		before := len(body)
		body = lzwcodec.Compress(body)
		log.Debug().Int("raw", before).Int("compressed", len(body)).Msg("lzw compression applied")
	}
	if o.encrypt {
		body, err = aescodec.Encrypt(o.password, body)
		if err != nil {
			return stats, fmt.Errorf("core: encrypt archive body: %w", err)
		}
	}

	header := ArchiveHeader{
		Timestamp: time.Now().Unix(),
		Checksum:  crc32codec.Checksum(body),
		Comment:   o.comment,
	}
	if o.compress {
		header.Mod |= modCompressed
	}
	if o.encrypt {
		header.Mod |= modEncrypted
	}

	out, err := os.CreateTemp(filepath.Dir(targetArchive), ".bakctl-final-*")
	if err != nil {
		return stats, fmt.Errorf("core: create output file: %w", err)
	}
	outPath := out.Name()
	defer os.Remove(outPath)

	if err := header.writeTo(out); err != nil {
		out.Close()
		return stats, fmt.Errorf("core: write header: %w", err)
	}
	if _, err := out.Write(body); err != nil {
		out.Close()
		return stats, fmt.Errorf("core: write body: %w", err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("core: close output file: %w", err)
	}

	if err := os.Rename(outPath, targetArchive); err != nil {
		return stats, fmt.Errorf("core: finalize %s: %w", targetArchive, err)
	}

	stats.BytesFinal = uint64(HeaderSize + len(body))
	log.Info().
		Str("source", sourceRoot).
		Str("archive", targetArchive).
		Int("entries", stats.EntriesWritten).
		Uint64("bytes_final", stats.BytesFinal).
		Msg("pack complete")
	return stats, nil
}

// decodeArchive opens archive and returns the fully decrypted/decompressed
// entry stream bytes plus the parsed header. It does NOT check the stored
// checksum: that verification is Verify's job alone (SPEC_FULL.md §4.9 —
// List is lenient the way Unpack is, neither is as strict as Verify), so
// Unpack and List can still read a body whose checksum was never
// independently confirmed, matching the original implementation's
// separation of concerns.
func decodeArchive(archive string, password []byte) (ArchiveHeader, []byte, error) {
	f, err := os.Open(archive)
	if err != nil {
		return ArchiveHeader{}, nil, fmt.Errorf("core: open %s: %w", archive, err)
	}
	defer f.Close()

	header, err := readArchiveHeader(f)
	if err != nil {
		return ArchiveHeader{}, nil, err
	}
	body, err := io.ReadAll(f)
	if err != nil {
		return ArchiveHeader{}, nil, fmt.Errorf("core: read body of %s: %w", archive, err)
	}

	if header.encrypted() {
		body, err = aescodec.Decrypt(password, body)
		if err != nil {
			return ArchiveHeader{}, nil, fmt.Errorf("%w: %v", ErrBadKeyOrCorrupt, err)
		}
	}
	if header.compressed() {
		body, err = lzwcodec.Decompress(body)
		if err != nil {
			return ArchiveHeader{}, nil, err
		}
	}
	return header, body, nil
}

// Unpack reads archive and restores every entry under restoreRoot (spec.md
// §4.6). It does not check the stored checksum; use Verify for that.
func (p *Packer) Unpack(ctx context.Context, archive, restoreRoot string, opts ...UnpackOption) (Stats, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With().Str("run_id", uuid.NewString()).Logger()

	var stats Stats
	_, body, err := decodeArchive(archive, o.password)
	if err != nil {
		return stats, fmt.Errorf("core: unpack %s: %w", archive, err)
	}

	if err := os.MkdirAll(restoreRoot, 0o777); err != nil {
		return stats, fmt.Errorf("core: mkdir restore root %s: %w", restoreRoot, err)
	}
	stats.BytesRaw = uint64(len(body))

	r := bytes.NewReader(body)
	for r.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		h, err := readEntryHeader(r)
		if err != nil {
			return stats, fmt.Errorf("core: unpack %s: %w", archive, err)
		}
		warned, err := unpackEntry(r, restoreRoot, h, o.restoreMetadata, o.tracker, log)
		if err != nil {
			return stats, fmt.Errorf("core: restore %s: %w", h.RelPath, err)
		}
		stats.EntriesRestored++
		if warned {
			stats.MetadataWarnings++
		}
	}

	log.Info().
		Str("archive", archive).
		Str("restore_root", restoreRoot).
		Int("entries", stats.EntriesRestored).
		Int("metadata_warnings", stats.MetadataWarnings).
		Msg("unpack complete")
	return stats, nil
}

// Verify parses archive's header and recomputes the body checksum,
// independent of password or decompression (spec.md §4.6).
func (p *Packer) Verify(ctx context.Context, archive string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("core: open %s: %w", archive, err)
	}
	defer f.Close()

	header, err := readArchiveHeader(f)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("core: read body of %s: %w", archive, err)
	}
	checksum := crc32codec.Checksum(body)
	if checksum != header.Checksum {
		return fmt.Errorf("%w: stored %#x, computed %#x", ErrChecksumMismatch, header.Checksum, checksum)
	}
	return nil
}

// List decodes archive (sharing Unpack's decrypt/decompress pipeline) and
// streams each entry's metadata to fn without touching the filesystem
// (SPEC_FULL.md §4.9). It stops early if fn returns an error.
func (p *Packer) List(ctx context.Context, archive string, fn func(ListEntry) error, opts ...ListOption) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	_, body, err := decodeArchive(archive, o.password)
	if err != nil {
		return fmt.Errorf("core: list %s: %w", archive, err)
	}

	r := bytes.NewReader(body)
	for r.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := readEntryHeader(r)
		if err != nil {
			return fmt.Errorf("core: list %s: %w", archive, err)
		}
		entry := ListEntry{
			RelPath: h.RelPath,
			Kind:    0,
			Size:    h.Metadata.Size,
			Mode:    h.Metadata.Mode,
		}
		kind, ok := h.Metadata.Kind()
		if !ok {
			return fmt.Errorf("%w: unknown entry kind for %s", ErrBadArchive, h.RelPath)
		}
		entry.Kind = kind

		switch kind {
		case KindSymlink:
			target, err := longpath.Read(r)
			if err != nil {
				return fmt.Errorf("core: list %s: %w", h.RelPath, err)
			}
			entry.LinkTarget = target
		case KindRegular:
			if h.Metadata.Nlink > 1 {
				canonical, err := longpath.Read(r)
				if err != nil {
					return fmt.Errorf("core: list %s: %w", h.RelPath, err)
				}
				entry.LinkTarget = canonical
				entry.IsHardlinkPointer = true
			} else if _, err := r.Seek(int64(h.Metadata.Size), io.SeekCurrent); err != nil {
				return fmt.Errorf("core: list %s: %w", h.RelPath, err)
			}
		}

		if err := fn(entry); err != nil {
			return err
		}
	}
	return nil
}
