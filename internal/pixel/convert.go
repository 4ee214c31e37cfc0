package pixel

import (
	"errors"

	"github.com/deepteams/png/internal/bitio"
)

// ErrPaletteMiss reports a color that has no entry in the target
// palette during conversion to an indexed mode.
var ErrPaletteMiss = errors.New("pixel: color cannot be represented in the palette")

// addColorBits packs the low `bits` bits of v into out at pixel index,
// MSB-first within each byte (PNG pixel packing order).
func addColorBits(out []byte, index, bits int, v uint32) {
	// m+1 pixels share a byte; p is this pixel's slot within its byte.
	m := 8/bits - 1
	p := index & m
	v &= 1<<bits - 1
	v <<= bits * (m - p)
	if p == 0 {
		out[index*bits/8] = byte(v)
	} else {
		out[index*bits/8] |= byte(v)
	}
}

// getPixelRGBA8 reads pixel i of in as 8-bit RGBA. Grey reads replicate
// the grey value into r, g, b; a color-key match yields alpha 0;
// out-of-range palette indices yield opaque black, matching what common
// PNG decoders do instead of erroring.
func getPixelRGBA8(in []byte, i int, m *Mode) (r, g, b, a byte) {
	switch m.ColorType {
	case Grey:
		switch m.BitDepth {
		case 8:
			r, g, b = in[i], in[i], in[i]
			if m.KeyDefined && int(r) == m.KeyR {
				return r, g, b, 0
			}
			return r, g, b, 255
		case 16:
			v := in[i*2]
			r, g, b = v, v, v
			if m.KeyDefined && 256*int(in[i*2])+int(in[i*2+1]) == m.KeyR {
				return r, g, b, 0
			}
			return r, g, b, 255
		default:
			highest := 1<<m.BitDepth - 1
			pr := bitio.NewPixelReader(in)
			pr.Seek(i * m.BitDepth)
			value := int(pr.ReadBits(m.BitDepth))
			v := byte(value * 255 / highest)
			r, g, b = v, v, v
			if m.KeyDefined && value == m.KeyR {
				return r, g, b, 0
			}
			return r, g, b, 255
		}
	case RGB:
		if m.BitDepth == 8 {
			r, g, b = in[i*3], in[i*3+1], in[i*3+2]
			if m.KeyDefined && int(r) == m.KeyR && int(g) == m.KeyG && int(b) == m.KeyB {
				return r, g, b, 0
			}
			return r, g, b, 255
		}
		r, g, b = in[i*6], in[i*6+2], in[i*6+4]
		if m.KeyDefined &&
			256*int(in[i*6])+int(in[i*6+1]) == m.KeyR &&
			256*int(in[i*6+2])+int(in[i*6+3]) == m.KeyG &&
			256*int(in[i*6+4])+int(in[i*6+5]) == m.KeyB {
			return r, g, b, 0
		}
		return r, g, b, 255
	case Palette:
		var index int
		if m.BitDepth == 8 {
			index = int(in[i])
		} else {
			pr := bitio.NewPixelReader(in)
			pr.Seek(i * m.BitDepth)
			index = int(pr.ReadBits(m.BitDepth))
		}
		if index >= m.PaletteSize() {
			return 0, 0, 0, 255
		}
		p := m.Palette[index*4:]
		return p[0], p[1], p[2], p[3]
	case GreyAlpha:
		if m.BitDepth == 8 {
			v := in[i*2]
			return v, v, v, in[i*2+1]
		}
		v := in[i*4]
		return v, v, v, in[i*4+2]
	default: // RGBA
		if m.BitDepth == 8 {
			return in[i*4], in[i*4+1], in[i*4+2], in[i*4+3]
		}
		return in[i*8], in[i*8+2], in[i*8+4], in[i*8+6]
	}
}

// getPixelRGBA16 reads pixel i as 16-bit RGBA. The mode itself must be
// 16-bit (palette modes never are).
func getPixelRGBA16(in []byte, i int, m *Mode) (r, g, b, a uint16) {
	switch m.ColorType {
	case Grey:
		v := uint16(in[i*2])<<8 | uint16(in[i*2+1])
		r, g, b = v, v, v
		if m.KeyDefined && int(v) == m.KeyR {
			return r, g, b, 0
		}
		return r, g, b, 65535
	case RGB:
		r = uint16(in[i*6])<<8 | uint16(in[i*6+1])
		g = uint16(in[i*6+2])<<8 | uint16(in[i*6+3])
		b = uint16(in[i*6+4])<<8 | uint16(in[i*6+5])
		if m.KeyDefined && int(r) == m.KeyR && int(g) == m.KeyG && int(b) == m.KeyB {
			return r, g, b, 0
		}
		return r, g, b, 65535
	case GreyAlpha:
		v := uint16(in[i*4])<<8 | uint16(in[i*4+1])
		a = uint16(in[i*4+2])<<8 | uint16(in[i*4+3])
		return v, v, v, a
	default: // RGBA
		r = uint16(in[i*8])<<8 | uint16(in[i*8+1])
		g = uint16(in[i*8+2])<<8 | uint16(in[i*8+3])
		b = uint16(in[i*8+4])<<8 | uint16(in[i*8+5])
		a = uint16(in[i*8+6])<<8 | uint16(in[i*8+7])
		return r, g, b, a
	}
}

// setPixelRGBA8 writes an 8-bit RGBA color as pixel i of out in any
// mode. Writing an indexed mode looks the color up in tree.
func setPixelRGBA8(out []byte, i int, m *Mode, tree *colorTree, r, g, b, a byte) error {
	switch m.ColorType {
	case Grey:
		grey := r
		switch m.BitDepth {
		case 8:
			out[i] = grey
		case 16:
			out[i*2] = grey
			out[i*2+1] = grey
		default:
			// The most significant bits carry the value.
			v := uint32(grey) >> (8 - m.BitDepth)
			addColorBits(out, i, m.BitDepth, v)
		}
	case RGB:
		if m.BitDepth == 8 {
			out[i*3], out[i*3+1], out[i*3+2] = r, g, b
		} else {
			out[i*6], out[i*6+1] = r, r
			out[i*6+2], out[i*6+3] = g, g
			out[i*6+4], out[i*6+5] = b, b
		}
	case Palette:
		index := tree.get(r, g, b, a)
		if index < 0 {
			return ErrPaletteMiss
		}
		if m.BitDepth == 8 {
			out[i] = byte(index)
		} else {
			addColorBits(out, i, m.BitDepth, uint32(index))
		}
	case GreyAlpha:
		grey := r
		if m.BitDepth == 8 {
			out[i*2] = grey
			out[i*2+1] = a
		} else {
			out[i*4], out[i*4+1] = grey, grey
			out[i*4+2], out[i*4+3] = a, a
		}
	default: // RGBA
		if m.BitDepth == 8 {
			out[i*4], out[i*4+1], out[i*4+2], out[i*4+3] = r, g, b, a
		} else {
			out[i*8], out[i*8+1] = r, r
			out[i*8+2], out[i*8+3] = g, g
			out[i*8+4], out[i*8+5] = b, b
			out[i*8+6], out[i*8+7] = a, a
		}
	}
	return nil
}

// setPixelRGBA16 writes a 16-bit RGBA color as pixel i of out. The mode
// must be a 16-bit one.
func setPixelRGBA16(out []byte, i int, m *Mode, r, g, b, a uint16) {
	switch m.ColorType {
	case Grey:
		out[i*2] = byte(r >> 8)
		out[i*2+1] = byte(r)
	case RGB:
		out[i*6] = byte(r >> 8)
		out[i*6+1] = byte(r)
		out[i*6+2] = byte(g >> 8)
		out[i*6+3] = byte(g)
		out[i*6+4] = byte(b >> 8)
		out[i*6+5] = byte(b)
	case GreyAlpha:
		out[i*4] = byte(r >> 8)
		out[i*4+1] = byte(r)
		out[i*4+2] = byte(a >> 8)
		out[i*4+3] = byte(a)
	default: // RGBA
		out[i*8] = byte(r >> 8)
		out[i*8+1] = byte(r)
		out[i*8+2] = byte(g >> 8)
		out[i*8+3] = byte(g)
		out[i*8+4] = byte(b >> 8)
		out[i*8+5] = byte(b)
		out[i*8+6] = byte(a >> 8)
		out[i*8+7] = byte(a)
	}
}

// getPixelsRGBA8 is the bulk path for 8-bit RGB/RGBA output: the mode
// dispatch sits outside the pixel loop.
func getPixelsRGBA8(buf []byte, numPixels int, hasAlpha bool, in []byte, m *Mode) {
	numChannels := 3
	if hasAlpha {
		numChannels = 4
	}
	for i := 0; i < numPixels; i++ {
		r, g, b, a := getPixelRGBA8(in, i, m)
		o := i * numChannels
		buf[o], buf[o+1], buf[o+2] = r, g, b
		if hasAlpha {
			buf[o+3] = a
		}
	}
}

// Convert re-encodes a raw buffer from modeIn to modeOut. Identical
// modes copy; 16-bit to 16-bit goes through RGBA16 to stay bit-exact;
// everything else goes through RGBA8.
//
// Converting into a Palette mode with an empty palette borrows the
// input's palette; a new palette is never invented here.
func Convert(in []byte, modeOut, modeIn *Mode, w, h int) ([]byte, error) {
	numPixels := w * h
	out := make([]byte, modeOut.RawSize(w, h))

	if modeOut.Equal(modeIn) {
		copy(out, in[:len(out)])
		return out, nil
	}

	var tree *colorTree
	if modeOut.ColorType == Palette {
		palette := modeOut.Palette
		palSize := 1 << modeOut.BitDepth
		if len(palette) == 0 {
			palette = modeIn.Palette
			// Same-depth palette to palette: copy the indices verbatim
			// to keep the exact index order of the source.
			if modeIn.ColorType == Palette && modeIn.BitDepth == modeOut.BitDepth {
				copy(out, in[:len(out)])
				return out, nil
			}
		}
		if len(palette)/4 < palSize {
			palSize = len(palette) / 4
		}
		tree = newColorTree()
		for i := 0; i < palSize; i++ {
			p := palette[i*4:]
			tree.add(p[0], p[1], p[2], p[3], i)
		}
	}

	switch {
	case modeIn.BitDepth == 16 && modeOut.BitDepth == 16:
		for i := 0; i < numPixels; i++ {
			r, g, b, a := getPixelRGBA16(in, i, modeIn)
			setPixelRGBA16(out, i, modeOut, r, g, b, a)
		}
	case modeOut.ColorType == RGBA && modeOut.BitDepth == 8:
		getPixelsRGBA8(out, numPixels, true, in, modeIn)
	case modeOut.ColorType == RGB && modeOut.BitDepth == 8:
		getPixelsRGBA8(out, numPixels, false, in, modeIn)
	default:
		for i := 0; i < numPixels; i++ {
			r, g, b, a := getPixelRGBA8(in, i, modeIn)
			if err := setPixelRGBA8(out, i, modeOut, tree, r, g, b, a); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
