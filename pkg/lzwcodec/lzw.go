// Package lzwcodec implements the archive format's in-memory LZW
// compressor: a 256-entry seed dictionary, unboundedly growing, emitting
// 32-bit little-endian code words. It is deliberately not go.dev's
// compress/lzw (which frames differently and bounds dictionary growth at a
// configurable code width) — the archive wire format requires this exact
// framing to round-trip with archives written by the original BackupManager
// tool, ported from its Compression.cpp.
package lzwcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrCorrupt is returned by Decompress when a code word cannot be resolved
// against the dictionary built so far, or when the frame is truncated.
var ErrCorrupt = errors.New("lzwcodec: corrupt or truncated stream")

// Compress encodes data with classic LZW, seeding the dictionary with the
// 256 single-byte strings and growing it without bound as new sequences are
// observed. The result is framed as a u64 code count followed by that many
// 32-bit little-endian code words. Compressing an empty input yields a
// frame with a zero code count.
func Compress(data []byte) []byte {
	dict := make(map[string]uint32, 512)
	for i := 0; i < 256; i++ {
		dict[string([]byte{byte(i)})] = uint32(i)
	}

	var codes []uint32
	nextCode := uint32(256)
	var current []byte

	for _, b := range data {
		candidate := append(append([]byte{}, current...), b)
		if _, ok := dict[string(candidate)]; ok {
			current = candidate
			continue
		}
		codes = append(codes, dict[string(current)])
		dict[string(candidate)] = nextCode
		nextCode++
		current = []byte{b}
	}
	if len(current) > 0 {
		codes = append(codes, dict[string(current)])
	}

	out := make([]byte, 8+4*len(codes))
	binary.LittleEndian.PutUint64(out[:8], uint64(len(codes)))
	for i, c := range codes {
		binary.LittleEndian.PutUint32(out[8+4*i:8+4*i+4], c)
	}
	return out
}

// Decompress reverses Compress. It accepts the encoder emitting a code for
// the dictionary entry it is about to add (the classic w+w[0] case) and
// fails with ErrCorrupt if a code exceeds the current dictionary size+1 or
// the stream is truncated mid-frame.
func Decompress(frame []byte) ([]byte, error) {
	if len(frame) < 8 {
		return nil, fmt.Errorf("%w: missing code count", ErrCorrupt)
	}
	count := binary.LittleEndian.Uint64(frame[:8])
	rest := frame[8:]
	if uint64(len(rest)) < count*4 {
		return nil, fmt.Errorf("%w: truncated code words", ErrCorrupt)
	}
	if count == 0 {
		return nil, nil
	}

	codes := make([]uint32, count)
	for i := range codes {
		codes[i] = binary.LittleEndian.Uint32(rest[4*i : 4*i+4])
	}

	dict := make([][]byte, 256, 512)
	for i := 0; i < 256; i++ {
		dict[i] = []byte{byte(i)}
	}

	if int(codes[0]) >= len(dict) {
		return nil, fmt.Errorf("%w: first code %d out of range", ErrCorrupt, codes[0])
	}
	w := dict[codes[0]]
	var out []byte
	out = append(out, w...)

	for _, code := range codes[1:] {
		var entry []byte
		switch {
		case int(code) < len(dict):
			entry = dict[code]
		case int(code) == len(dict):
			entry = append(append([]byte{}, w...), w[0])
		default:
			return nil, fmt.Errorf("%w: code %d exceeds dictionary size %d", ErrCorrupt, code, len(dict))
		}
		out = append(out, entry...)
		next := append(append([]byte{}, w...), entry[0])
		dict = append(dict, next)
		w = entry
	}
	return out, nil
}
