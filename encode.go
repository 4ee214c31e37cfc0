package png

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/deepteams/png/internal/chunk"
	"github.com/deepteams/png/internal/dsp"
	"github.com/deepteams/png/internal/flate"
	"github.com/deepteams/png/internal/pixel"
)

// ErrPaletteSizeInvalid reports an attempt to encode a PLTE chunk with
// no entries or more than 256.
var ErrPaletteSizeInvalid = errors.New("png: palette must have 1 to 256 entries for encoding")

// paletteTranslucency classifies a palette: 0 fully opaque, 1 a single
// color with alpha 0 (usable as a key), 2 semi-translucent. Finding a
// key late restarts the scan so an earlier opaque entry with the key's
// RGB is still caught.
func paletteTranslucency(palette []byte) int {
	n := len(palette) / 4
	key := false
	var r, g, b byte
	for i := 0; i < n; i++ {
		switch {
		case !key && palette[4*i+3] == 0:
			r, g, b = palette[4*i], palette[4*i+1], palette[4*i+2]
			key = true
			i = -1 // restart from the beginning
		case palette[4*i+3] != 255:
			return 2
		case key && r == palette[4*i] && g == palette[4*i+1] && b == palette[4*i+2]:
			return 2
		}
	}
	if key {
		return 1
	}
	return 0
}

// appendIHDR appends the IHDR chunk.
func appendIHDR(out []byte, w, h int, mode *ColorMode, interlace int) []byte {
	var body [13]byte
	binary.BigEndian.PutUint32(body[0:], uint32(w))
	binary.BigEndian.PutUint32(body[4:], uint32(h))
	body[8] = byte(mode.BitDepth)
	body[9] = byte(mode.ColorType)
	body[10] = 0 // compression method
	body[11] = 0 // filter method
	body[12] = byte(interlace)
	return chunk.Append(out, "IHDR", body[:])
}

// appendPLTE appends the palette's RGB triples.
func appendPLTE(out []byte, mode *ColorMode) []byte {
	body := make([]byte, 0, mode.PaletteSize()*3)
	for i := 0; i < mode.PaletteSize(); i++ {
		body = append(body, mode.Palette[4*i], mode.Palette[4*i+1], mode.Palette[4*i+2])
	}
	return chunk.Append(out, "PLTE", body)
}

// appendTRNS appends transparency data: per-entry alpha for palettes
// (trailing opaque entries trimmed), the 16-bit color key otherwise.
func appendTRNS(out []byte, mode *ColorMode) []byte {
	var body []byte
	switch mode.ColorType {
	case pixel.Palette:
		amount := mode.PaletteSize()
		for amount > 0 && mode.Palette[4*(amount-1)+3] == 255 {
			amount--
		}
		for i := 0; i < amount; i++ {
			body = append(body, mode.Palette[4*i+3])
		}
	case pixel.Grey:
		if mode.KeyDefined {
			body = append(body, byte(mode.KeyR>>8), byte(mode.KeyR))
		}
	case pixel.RGB:
		if mode.KeyDefined {
			body = append(body,
				byte(mode.KeyR>>8), byte(mode.KeyR),
				byte(mode.KeyG>>8), byte(mode.KeyG),
				byte(mode.KeyB>>8), byte(mode.KeyB))
		}
	}
	return chunk.Append(out, "tRNS", body)
}

// preProcessScanlines converts the packed raw image into the IDAT
// payload: interlace if requested, pad sub-byte scanlines to whole
// bytes, and filter each (reduced) image.
func preProcessScanlines(in []byte, w, h int, info *Info, enc *EncoderOptions) ([]byte, error) {
	bpp := info.Color.BPP()

	strategy := enc.FilterStrategy
	if enc.FilterPaletteZero &&
		(info.Color.ColorType == pixel.Palette || info.Color.BitDepth < 8) {
		strategy = dsp.StrategyZero
	}

	if info.Interlace == 0 {
		out := make([]byte, h+info.Color.PaddedSize(w, h))
		if bpp < 8 && w*bpp != ((w*bpp+7)/8)*8 {
			padded := make([]byte, info.Color.PaddedSize(w, h))
			dsp.AddPaddingBits(padded, in, ((w*bpp+7)/8)*8, w*bpp, h)
			if err := dsp.Filter(out, padded, w, h, bpp, strategy); err != nil {
				return nil, err
			}
		} else {
			if err := dsp.Filter(out, in, w, h, bpp, strategy); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	p := dsp.Adam7PassValues(w, h, bpp)
	out := make([]byte, p.FilterStart[7])
	adam7 := make([]byte, p.Start[7])

	dsp.Interlace(adam7, in, w, h, bpp)
	for i := 0; i < 7; i++ {
		if bpp < 8 {
			padded := make([]byte, p.PaddedStart[i+1]-p.PaddedStart[i])
			dsp.AddPaddingBits(padded, adam7[p.Start[i]:],
				((p.W[i]*bpp+7)/8)*8, p.W[i]*bpp, p.H[i])
			if err := dsp.Filter(out[p.FilterStart[i]:], padded, p.W[i], p.H[i], bpp, strategy); err != nil {
				return nil, err
			}
		} else {
			if err := dsp.Filter(out[p.FilterStart[i]:], adam7[p.PaddedStart[i]:],
				p.W[i], p.H[i], bpp, strategy); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Encode encodes raw pixels (in the mode of s.InfoRaw) as a complete
// PNG stream. With AutoConvert on, the output color mode is the
// smallest lossless one for this image; otherwise s.InfoPNG.Color is
// honored as given.
func (s *State) Encode(raw []byte, w, h int) ([]byte, error) {
	if w == 0 || h == 0 {
		return nil, ErrZeroDimension
	}

	if (s.InfoPNG.Color.ColorType == pixel.Palette || s.Encoder.ForcePalette) &&
		(s.InfoPNG.Color.PaletteSize() == 0 || s.InfoPNG.Color.PaletteSize() > 256) {
		return nil, ErrPaletteSizeInvalid
	}
	if err := s.InfoPNG.Color.Check(); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}
	if err := s.InfoRaw.Check(); err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}

	info := Info{Width: w, Height: h, Color: s.InfoPNG.Color.Copy()}
	if s.Encoder.Interlace {
		info.Interlace = 1
	}
	if s.Encoder.AutoConvert {
		chosen, err := pixel.AutoChooseColor(raw, w, h, &s.InfoRaw)
		if err != nil {
			return nil, fmt.Errorf("png: %w", err)
		}
		info.Color = chosen
	}

	converted := raw
	if !s.InfoRaw.Equal(&info.Color) {
		var err error
		converted, err = pixel.Convert(raw, &info.Color, &s.InfoRaw, w, h)
		if err != nil {
			return nil, fmt.Errorf("png: %w", err)
		}
	}

	data, err := preProcessScanlines(converted, w, h, &info, &s.Encoder)
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}

	zlibData, err := flate.ZlibCompress(data, &s.Encoder.Compression)
	if err != nil {
		return nil, fmt.Errorf("png: %w", err)
	}

	out := append([]byte(nil), pngSignature...)
	out = appendIHDR(out, w, h, &info.Color, info.Interlace)
	if info.Color.ColorType == pixel.Palette {
		out = appendPLTE(out, &info.Color)
	}
	if s.Encoder.ForcePalette &&
		(info.Color.ColorType == pixel.RGB || info.Color.ColorType == pixel.RGBA) {
		out = appendPLTE(out, &info.Color)
	}
	if info.Color.ColorType == pixel.Palette && paletteTranslucency(info.Color.Palette) != 0 {
		out = appendTRNS(out, &info.Color)
	}
	if (info.Color.ColorType == pixel.Grey || info.Color.ColorType == pixel.RGB) &&
		info.Color.KeyDefined {
		out = appendTRNS(out, &info.Color)
	}
	out = chunk.Append(out, "IDAT", zlibData)
	out = chunk.Append(out, "IEND", nil)

	return out, nil
}

// EncodeRaw encodes raw pixels of the given color type and bit depth,
// letting the encoder choose the optimal PNG color mode.
func EncodeRaw(raw []byte, w, h int, ct ColorType, bitDepth int) ([]byte, error) {
	s := NewState()
	s.InfoRaw = pixel.MakeMode(ct, bitDepth)
	s.InfoPNG.Color = pixel.MakeMode(ct, bitDepth)
	return s.Encode(raw, w, h)
}

// Encode writes img to w as a PNG. A nil options value selects the
// defaults (including automatic color mode selection).
func Encode(w io.Writer, img image.Image, o *EncoderOptions) error {
	if o == nil {
		o = DefaultEncoderOptions()
	}
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return ErrZeroDimension
	}

	s := NewState()
	s.Encoder = *o

	var raw []byte
	switch src := img.(type) {
	case *image.NRGBA64:
		// NRGBA64 pixels are already big-endian RGBA16.
		s.InfoRaw = pixel.MakeMode(pixel.RGBA, 16)
		raw = make([]byte, 0, width*height*8)
		for y := 0; y < height; y++ {
			off := y * src.Stride
			raw = append(raw, src.Pix[off:off+width*8]...)
		}
	case *image.NRGBA:
		s.InfoRaw = pixel.MakeMode(pixel.RGBA, 8)
		raw = make([]byte, 0, width*height*4)
		for y := 0; y < height; y++ {
			off := y * src.Stride
			raw = append(raw, src.Pix[off:off+width*4]...)
		}
	case *image.Gray:
		s.InfoRaw = pixel.MakeMode(pixel.Grey, 8)
		raw = make([]byte, 0, width*height)
		for y := 0; y < height; y++ {
			off := y * src.Stride
			raw = append(raw, src.Pix[off:off+width]...)
		}
	default:
		s.InfoRaw = pixel.MakeMode(pixel.RGBA, 8)
		raw = make([]byte, 0, width*height*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				raw = append(raw, c.R, c.G, c.B, c.A)
			}
		}
	}
	s.InfoPNG.Color = s.InfoRaw.Copy()

	data, err := s.Encode(raw, width, height)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
