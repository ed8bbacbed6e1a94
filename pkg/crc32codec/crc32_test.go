package crc32codec

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestChecksumKnownVector(t *testing.T) {
	// "123456789" is the standard CRC-32/ISO-HDLC check vector.
	got := Checksum([]byte("123456789"))
	want := uint32(0xCBF43926)
	if got != want {
		t.Fatalf("Checksum(%q) = %#x, want %#x", "123456789", got, want)
	}
}

func TestEmptyInput(t *testing.T) {
	if got := Checksum(nil); got != 0 {
		t.Fatalf("Checksum(nil) = %#x, want 0", got)
	}
}

func TestStreamingMatchesConcatenation(t *testing.T) {
	data := make([]byte, 50000)
	rand.New(rand.NewSource(1)).Read(data)

	whole := Checksum(data)

	chunks := [][]byte{data[:1000], data[1000:7777], data[7777:]}
	state := New()
	for _, c := range chunks {
		state = Update(state, c)
	}
	streamed := Finish(state)

	if whole != streamed {
		t.Fatalf("streamed checksum %#x != whole checksum %#x", streamed, whole)
	}
}

func TestWriter(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 4096)
	w := NewWriter()
	if _, err := w.Write(data[:2048]); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data[2048:]); err != nil {
		t.Fatal(err)
	}
	if got, want := w.Sum32(), Checksum(data); got != want {
		t.Fatalf("Writer.Sum32() = %#x, want %#x", got, want)
	}
}
