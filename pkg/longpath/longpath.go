// Package longpath implements the length-prefixed path frame used by the
// entry codec for every symlink target and hardlink pointer path, and for
// entry paths that overflow the archive's fixed 100-byte inline path field.
package longpath

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxInlineLen is the size of the fixed path field on the wire (spec.md
// §3/§6). Paths shorter than this (at most 99 bytes, leaving room for the
// NUL terminator) are written inline, NUL-padded; longer paths are framed
// with Write/Read instead.
const MaxInlineLen = 100

// Fits reports whether s (plus its NUL terminator) fits in the inline
// path field.
func Fits(s string) bool {
	return len(s) < MaxInlineLen
}

// Write frames s as a u32 little-endian length followed by len(s) bytes.
func Write(w io.Writer, s string) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("longpath: write length: %w", err)
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("longpath: write bytes: %w", err)
	}
	return nil
}

// maxLen bounds the length prefix Read will trust before allocating: no
// real filesystem path approaches this, so a corrupt or hostile archive
// claiming otherwise fails fast instead of driving a multi-gigabyte
// allocation off a four-byte length field.
const maxLen = 1 << 20

// Read reverses Write.
func Read(r io.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", fmt.Errorf("longpath: read length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxLen {
		return "", fmt.Errorf("longpath: implausible length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("longpath: read bytes: %w", err)
	}
	return string(buf), nil
}
