package core

import (
	"fmt"
	"io"

	"github.com/asnlsxx/bakctl/pkg/longpath"
)

// pathSentinel marks the inline 100-byte path field as "see the long-path
// block that immediately follows the entry header" rather than holding the
// path directly. writePathField sends any path whose first byte is 0xFF
// through the long-path block, so an inline path field never starts with it.
const pathSentinel = 0xFF

// EntryHeader is the fixed-shape prefix of every entry: its path (inline or
// long-path-framed) and its Metadata record (spec.md §3/§6).
type EntryHeader struct {
	RelPath  string
	Metadata Metadata
}

// writeTo writes the 100-byte path field (inline, NUL-padded, or a sentinel
// followed immediately by a long-path block) and the fixed Metadata record.
func (h EntryHeader) writeTo(w io.Writer) error {
	if err := writePathField(w, h.RelPath); err != nil {
		return fmt.Errorf("core: write entry path: %w", err)
	}
	if err := h.Metadata.writeTo(w); err != nil {
		return fmt.Errorf("core: write entry metadata: %w", err)
	}
	return nil
}

func readEntryHeader(r io.Reader) (EntryHeader, error) {
	relPath, err := readPathField(r)
	if err != nil {
		return EntryHeader{}, fmt.Errorf("core: read entry path: %w", err)
	}
	meta, err := readMetadata(r)
	if err != nil {
		return EntryHeader{}, err
	}
	return EntryHeader{RelPath: relPath, Metadata: meta}, nil
}

func writePathField(w io.Writer, s string) error {
	if longpath.Fits(s) && (s == "" || s[0] != pathSentinel) {
		buf := make([]byte, longpath.MaxInlineLen)
		copy(buf, s)
		_, err := w.Write(buf)
		return err
	}
	buf := make([]byte, longpath.MaxInlineLen)
	buf[0] = pathSentinel
	if _, err := w.Write(buf); err != nil {
		return err
	}
	return longpath.Write(w, s)
}

func readPathField(r io.Reader) (string, error) {
	buf := make([]byte, longpath.MaxInlineLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if buf[0] == pathSentinel {
		return longpath.Read(r)
	}
	return trimNulString(buf), nil
}
