// Package pixel implements the PNG color model: color types and bit
// depths, palettes with transparency, bit-exact conversion between any
// two supported modes, and the single-pass profile that picks the
// smallest lossless mode for an image.
//
// Raw buffers hold scanlines with no padding between them (unlike the
// in-file representation); 16-bit samples are big-endian.
package pixel

import "errors"

// ColorType is a PNG color type. The values are the ones stored in the
// IHDR chunk.
type ColorType int

const (
	Grey      ColorType = 0
	RGB       ColorType = 2
	Palette   ColorType = 3
	GreyAlpha ColorType = 4
	RGBA      ColorType = 6
)

// String returns the conventional name of the color type.
func (ct ColorType) String() string {
	switch ct {
	case Grey:
		return "grey"
	case RGB:
		return "rgb"
	case Palette:
		return "palette"
	case GreyAlpha:
		return "grey+alpha"
	case RGBA:
		return "rgba"
	default:
		return "invalid"
	}
}

// Channels returns the number of channels; a palette index counts as
// one channel.
func (ct ColorType) Channels() int {
	switch ct {
	case Grey, Palette:
		return 1
	case GreyAlpha:
		return 2
	case RGB:
		return 3
	case RGBA:
		return 4
	default:
		return 0
	}
}

// Errors from color mode handling.
var (
	ErrColorMode      = errors.New("pixel: illegal color type / bit depth combination")
	ErrPaletteTooBig  = errors.New("pixel: palette has more than 256 entries")
)

// Mode describes the complete color encoding of a raw buffer: the
// color type and bit depth, the palette for indexed images (RGBA quads)
// and the optional transparent color key for Grey and RGB images.
//
// Key values are stored at the mode's bit depth (so up to 16 bits).
type Mode struct {
	ColorType ColorType
	BitDepth  int

	// Palette holds 4 bytes (r, g, b, a) per entry, at most 256 entries.
	Palette []byte

	// KeyDefined marks KeyR/KeyG/KeyB as a valid color key. Mutually
	// exclusive with color types that carry their own alpha.
	KeyDefined       bool
	KeyR, KeyG, KeyB int
}

// MakeMode returns a plain mode with no palette and no color key.
func MakeMode(ct ColorType, bitDepth int) Mode {
	return Mode{ColorType: ct, BitDepth: bitDepth}
}

// Check validates the (colortype, bitdepth) pair.
func (m *Mode) Check() error {
	switch m.ColorType {
	case Grey:
		switch m.BitDepth {
		case 1, 2, 4, 8, 16:
			return nil
		}
	case RGB, GreyAlpha, RGBA:
		switch m.BitDepth {
		case 8, 16:
			return nil
		}
	case Palette:
		switch m.BitDepth {
		case 1, 2, 4, 8:
			return nil
		}
	}
	return ErrColorMode
}

// Channels returns the channel count of the mode's color type.
func (m *Mode) Channels() int { return m.ColorType.Channels() }

// BPP returns bits per pixel: channels times bit depth.
func (m *Mode) BPP() int { return m.ColorType.Channels() * m.BitDepth }

// IsGreyscale reports whether the type is Grey or GreyAlpha.
func (m *Mode) IsGreyscale() bool {
	return m.ColorType == Grey || m.ColorType == GreyAlpha
}

// IsAlphaType reports whether the type carries an alpha channel.
func (m *Mode) IsAlphaType() bool {
	return m.ColorType == GreyAlpha || m.ColorType == RGBA
}

// PaletteSize returns the number of palette entries.
func (m *Mode) PaletteSize() int { return len(m.Palette) / 4 }

// ClearPalette removes all palette entries.
func (m *Mode) ClearPalette() { m.Palette = nil }

// PaletteAdd appends one RGBA entry to the palette.
func (m *Mode) PaletteAdd(r, g, b, a byte) error {
	if m.PaletteSize() >= 256 {
		return ErrPaletteTooBig
	}
	m.Palette = append(m.Palette, r, g, b, a)
	return nil
}

// HasPaletteAlpha reports whether any palette entry is not fully opaque.
func (m *Mode) HasPaletteAlpha() bool {
	for i := 3; i < len(m.Palette); i += 4 {
		if m.Palette[i] != 255 {
			return true
		}
	}
	return false
}

// CanHaveAlpha reports whether any pixel of this mode can be
// non-opaque: a color key, an alpha channel, or palette transparency.
func (m *Mode) CanHaveAlpha() bool {
	return m.KeyDefined || m.IsAlphaType() || m.HasPaletteAlpha()
}

// Equal reports whether two modes describe the same encoding,
// including palette contents and color key.
func (m *Mode) Equal(o *Mode) bool {
	if m.ColorType != o.ColorType || m.BitDepth != o.BitDepth {
		return false
	}
	if m.KeyDefined != o.KeyDefined {
		return false
	}
	if m.KeyDefined {
		if m.KeyR != o.KeyR || m.KeyG != o.KeyG || m.KeyB != o.KeyB {
			return false
		}
	}
	if len(m.Palette) != len(o.Palette) {
		return false
	}
	for i := range m.Palette {
		if m.Palette[i] != o.Palette[i] {
			return false
		}
	}
	return true
}

// Copy returns a deep copy (the palette does not alias).
func (m *Mode) Copy() Mode {
	c := *m
	c.Palette = append([]byte(nil), m.Palette...)
	return c
}

// RawSize returns the byte size of a raw buffer: ceil(w*h*bpp/8), with
// no per-scanline padding.
func (m *Mode) RawSize(w, h int) int {
	return (w*h*m.BPP() + 7) / 8
}

// LineBytes returns the byte size of one scanline padded to a whole
// byte, as used inside the PNG file.
func (m *Mode) LineBytes(w int) int {
	return (w*m.BPP() + 7) / 8
}

// PaddedSize returns the byte size of the image with every scanline
// padded to a whole byte (the IDAT layout without filter bytes).
func (m *Mode) PaddedSize(w, h int) int {
	return h * m.LineBytes(w)
}
