package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertGreyScaling(t *testing.T) {
	// Sub-8-bit grey values scale by 255/(2^bd-1) on expansion.
	in := []byte{0b01_10_11_00} // 2-bit pixels: 1, 2, 3, 0
	from := MakeMode(Grey, 2)
	to := MakeMode(RGBA, 8)
	out, err := Convert(in, &to, &from, 4, 1)
	require.NoError(t, err)

	want := []byte{
		85, 85, 85, 255,
		170, 170, 170, 255,
		255, 255, 255, 255,
		0, 0, 0, 255,
	}
	assert.Equal(t, want, out)
}

func TestConvertColorKey(t *testing.T) {
	from := MakeMode(RGB, 8)
	from.KeyDefined = true
	from.KeyR, from.KeyG, from.KeyB = 10, 20, 30

	in := []byte{10, 20, 30, 10, 20, 31}
	to := MakeMode(RGBA, 8)
	out, err := Convert(in, &to, &from, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 0, 10, 20, 31, 255}, out)
}

func TestConvertGrey16Key(t *testing.T) {
	from := MakeMode(Grey, 16)
	from.KeyDefined = true
	from.KeyR = 0x1234
	from.KeyG, from.KeyB = 0x1234, 0x1234

	in := []byte{0x12, 0x34, 0x12, 0x35}
	to := MakeMode(RGBA, 16)
	out, err := Convert(in, &to, &from, 2, 1)
	require.NoError(t, err)
	// First pixel transparent, second opaque; 16-bit stays bit-exact.
	want := []byte{
		0x12, 0x34, 0x12, 0x34, 0x12, 0x34, 0x00, 0x00,
		0x12, 0x35, 0x12, 0x35, 0x12, 0x35, 0xff, 0xff,
	}
	assert.Equal(t, want, out)
}

func TestConvertPaletteOutOfRange(t *testing.T) {
	from := MakeMode(Palette, 8)
	require.NoError(t, from.PaletteAdd(100, 110, 120, 130))

	in := []byte{0, 5} // index 5 does not exist
	to := MakeMode(RGBA, 8)
	out, err := Convert(in, &to, &from, 2, 1)
	require.NoError(t, err)
	// Out-of-range palette indices decode to opaque black.
	assert.Equal(t, []byte{100, 110, 120, 130, 0, 0, 0, 255}, out)
}

func TestConvertToPaletteMiss(t *testing.T) {
	to := MakeMode(Palette, 8)
	require.NoError(t, to.PaletteAdd(1, 2, 3, 255))

	from := MakeMode(RGB, 8)
	in := []byte{9, 9, 9}
	_, err := Convert(in, &to, &from, 1, 1)
	assert.ErrorIs(t, err, ErrPaletteMiss)
}

func TestConvertPaletteIndexOrderPreserved(t *testing.T) {
	// Palette to same-depth palette copies indices verbatim even when
	// the output mode has no palette of its own.
	from := MakeMode(Palette, 4)
	require.NoError(t, from.PaletteAdd(1, 1, 1, 255))
	require.NoError(t, from.PaletteAdd(2, 2, 2, 255))

	in := []byte{0x10} // pixels: index 1, index 0
	to := MakeMode(Palette, 4)
	out, err := Convert(in, &to, &from, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConvertIdentityCopies(t *testing.T) {
	m := MakeMode(RGBA, 8)
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	out, err := Convert(in, &m, &m, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestConvertCompositionRoundTrip(t *testing.T) {
	// A -> B -> A must reproduce the input when both directions are
	// exact for the pixels involved.
	tests := []struct {
		name   string
		a, b   Mode
		w, h   int
		pixels []byte
	}{
		{
			name: "grey8 via rgba8",
			a:    MakeMode(Grey, 8), b: MakeMode(RGBA, 8),
			w: 3, h: 1, pixels: []byte{0, 127, 255},
		},
		{
			name: "grey1 via grey8",
			a:    MakeMode(Grey, 1), b: MakeMode(Grey, 8),
			w: 8, h: 1, pixels: []byte{0b10110100},
		},
		{
			name: "rgb16 via rgba16",
			a:    MakeMode(RGB, 16), b: MakeMode(RGBA, 16),
			w: 1, h: 1, pixels: []byte{0xab, 0xcd, 0x12, 0x34, 0x56, 0x78},
		},
		{
			name: "greyalpha8 via rgba8",
			a:    MakeMode(GreyAlpha, 8), b: MakeMode(RGBA, 8),
			w: 2, h: 1, pixels: []byte{40, 200, 90, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mid, err := Convert(tt.pixels, &tt.b, &tt.a, tt.w, tt.h)
			require.NoError(t, err)
			back, err := Convert(mid, &tt.a, &tt.b, tt.w, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.pixels, back)
		})
	}
}

func TestConvertSubByteGreyWrite(t *testing.T) {
	// grey' = grey >> (8-bd), packed MSB-first.
	from := MakeMode(Grey, 8)
	to := MakeMode(Grey, 4)
	in := []byte{0x00, 0xff, 0x80, 0x13}
	out, err := Convert(in, &to, &from, 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0f, 0x81}, out)
}
