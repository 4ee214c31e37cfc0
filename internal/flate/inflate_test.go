package flate

import (
	"bytes"
	"errors"
	"testing"

	"github.com/deepteams/png/internal/bitio"
)

func TestInflateStoredBlock(t *testing.T) {
	// BFINAL=1, BTYPE=0, aligned, LEN=5, NLEN=^5, then the 5 bytes.
	in := []byte{0x01, 0x05, 0x00, 0xfa, 0xff, 1, 2, 3, 4, 5}
	out, err := Inflate(in)
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if !bytes.Equal(out, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("out = %v, want [1 2 3 4 5]", out)
	}
}

func TestInflateFixedEmptyBlock(t *testing.T) {
	// A fixed block holding only the end code: bits 1 (BFINAL),
	// 10 (BTYPE=1, LSB-first), 0000000 (code for 256).
	out, err := Inflate([]byte{0x03, 0x00})
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", out)
	}
}

func TestInflateEmptyFinalStoredBlock(t *testing.T) {
	// Reference encoders end NoCompression streams with an empty final
	// stored block; nothing follows the LEN/NLEN pair.
	out, err := Inflate([]byte{0x01, 0x00, 0x00, 0xff, 0xff})
	if err != nil {
		t.Fatalf("Inflate: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("out = %v, want empty", out)
	}
}

func TestInflateErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty input", nil, ErrOutOfInput},
		{"btype 3", []byte{0x07}, ErrInvalidBlockType},
		{"stored truncated header", []byte{0x01, 0x05, 0x00}, ErrOutOfInput},
		{"stored nlen mismatch", []byte{0x01, 0x05, 0x00, 0x00, 0x00, 1, 2, 3, 4, 5}, ErrNLENMismatch},
		{"stored data short", []byte{0x01, 0x05, 0x00, 0xfa, 0xff, 1, 2}, ErrOutOfInput},
		{"fixed truncated", []byte{0x03}, ErrHuffmanOutOfInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inflate(tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestInflateBackReferenceTooFar(t *testing.T) {
	// Fixed block: literal 'a' then a length-3 match at distance 4,
	// which exceeds the single byte of output produced so far.
	// Built by hand with the fixed code: 'a'=97 -> 8 bits 0x91,
	// length code 257 (len 3) -> 7 bits 0x01, distance code 3
	// (dist 4) -> 5 bits 0x03.
	w := bitio.NewWriter(0)
	w.WriteBits(1, 1) // BFINAL
	w.WriteBits(1, 2) // BTYPE=1
	w.WriteBitsRev(0x91, 8)
	w.WriteBitsRev(0x01, 7)
	w.WriteBitsRev(0x03, 5)
	w.WriteBitsRev(0x00, 7) // end code

	_, err := Inflate(w.Bytes())
	if !errors.Is(err, ErrDistanceTooFarBack) {
		t.Errorf("err = %v, want ErrDistanceTooFarBack", err)
	}
}
