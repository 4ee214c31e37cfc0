package png

import (
	"bytes"
	"testing"
)

// FuzzDecode checks that arbitrary input never panics the decoder and
// that a successful decode returns w*h RGBA pixels.
func FuzzDecode(f *testing.F) {
	// Seed with valid files of several shapes.
	seeds := [][]byte{}
	if data, err := EncodeRaw([]byte{1, 2, 3, 255}, 1, 1, RGBA, 8); err == nil {
		seeds = append(seeds, data)
	}
	grey := make([]byte, 64)
	for i := range grey {
		grey[i] = byte(i * 4)
	}
	if data, err := EncodeRaw(grey, 8, 8, Grey, 8); err == nil {
		seeds = append(seeds, data)
	}
	o := DefaultEncoderOptions()
	o.Interlace = true
	s := NewState()
	s.InfoRaw = MakeColorMode(Grey, 8)
	s.InfoPNG.Color = MakeColorMode(Grey, 8)
	s.Encoder = *o
	if data, err := s.Encode(grey, 8, 8); err == nil {
		seeds = append(seeds, data)
	}
	seeds = append(seeds, pngSignature, []byte("not a png"))

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		out, w, h, err := DecodeRaw(data, RGBA, 8)
		if err != nil {
			return
		}
		if len(out) != w*h*4 {
			t.Fatalf("decoded %d bytes for %dx%d RGBA", len(out), w, h)
		}
	})
}

// FuzzInflate checks the inflater against arbitrary streams and
// against its own compressor.
func FuzzInflate(f *testing.F) {
	if compressed, err := Deflate([]byte("seed data seed data"), nil); err == nil {
		f.Add(compressed)
	}
	f.Add([]byte{0x03, 0x00})
	f.Add([]byte{0x01, 0x05, 0x00, 0xfa, 0xff, 1, 2, 3, 4, 5})

	f.Fuzz(func(t *testing.T, data []byte) {
		out, err := Inflate(data)
		if err != nil {
			return
		}
		// Whatever inflated must survive a round trip.
		compressed, err := Deflate(out, nil)
		if err != nil {
			t.Fatalf("Deflate of inflated data: %v", err)
		}
		again, err := Inflate(compressed)
		if err != nil {
			t.Fatalf("Inflate round trip: %v", err)
		}
		if !bytes.Equal(out, again) {
			t.Fatal("round trip mismatch")
		}
	})
}
