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

// MaxPixels bounds w*h so that even 16-bit RGBA pixel buffers stay
// within 2^31-1 bytes.
const MaxPixels = 268435455

// pngSignature is the 8-byte magic at the start of every PNG file.
var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// headerSize is the signature plus the complete IHDR chunk.
const headerSize = 33

// Errors reported while parsing and validating PNG streams.
var (
	ErrEmptyInput               = errors.New("png: empty input")
	ErrTooSmall                 = errors.New("png: data smaller than a PNG header")
	ErrBadSignature             = errors.New("png: first 8 bytes are not the PNG signature")
	ErrBadIHDRSize              = errors.New("png: header chunk must have a size of 13 bytes")
	ErrFirstChunkNotIHDR        = errors.New("png: first chunk is not IHDR")
	ErrChunkOverrun             = errors.New("png: buffer too small to contain next chunk")
	ErrIllegalCompressionMethod = errors.New("png: only compression method 0 is allowed")
	ErrIllegalFilterMethod      = errors.New("png: only filter method 0 is allowed")
	ErrIllegalInterlaceMethod   = errors.New("png: only interlace methods 0 and 1 exist")
	ErrZeroDimension            = errors.New("png: zero width or height")
	ErrTooManyPixels            = errors.New("png: too many pixels")
	ErrTRNSWrongSize            = errors.New("png: tRNS chunk has the wrong size for this color type")
	ErrTRNSNotAllowed           = errors.New("png: tRNS chunk not allowed for this color type")
	ErrUnsupportedConversion    = errors.New("png: output color mode not supported for conversion")
	ErrIDATSizeMismatch         = errors.New("png: decompressed IDAT size does not match the header")
)

// Inspect parses and validates the signature and IHDR chunk without
// touching pixel data.
func Inspect(data []byte) (Info, error) {
	var info Info
	if len(data) == 0 {
		return info, ErrEmptyInput
	}
	if len(data) < headerSize {
		return info, ErrTooSmall
	}
	for i, b := range pngSignature {
		if data[i] != b {
			return info, ErrBadSignature
		}
	}
	if binary.BigEndian.Uint32(data[8:]) != 13 {
		return info, ErrBadIHDRSize
	}
	if string(data[12:16]) != "IHDR" {
		return info, ErrFirstChunkNotIHDR
	}

	info.Width = int(binary.BigEndian.Uint32(data[16:]))
	info.Height = int(binary.BigEndian.Uint32(data[20:]))
	info.Color = pixel.MakeMode(pixel.ColorType(data[25]), int(data[24]))
	info.Interlace = int(data[28])

	if info.Width == 0 || info.Height == 0 {
		return info, ErrZeroDimension
	}
	if data[26] != 0 {
		return info, ErrIllegalCompressionMethod
	}
	if data[27] != 0 {
		return info, ErrIllegalFilterMethod
	}
	if info.Interlace > 1 {
		return info, ErrIllegalInterlaceMethod
	}
	if err := info.Color.Check(); err != nil {
		return info, fmt.Errorf("png: %w", err)
	}
	return info, nil
}

// readPLTE replaces the mode's palette with the chunk's RGB triples,
// all fully opaque until a tRNS chunk says otherwise.
func readPLTE(mode *ColorMode, data []byte) error {
	n := len(data) / 3
	if n > 256 {
		return fmt.Errorf("png: %w", pixel.ErrPaletteTooBig)
	}
	mode.Palette = make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		mode.Palette = append(mode.Palette, data[i*3], data[i*3+1], data[i*3+2], 255)
	}
	return nil
}

// readTRNS applies transparency: per-entry alpha for palettes, a color
// key for Grey and RGB.
func readTRNS(mode *ColorMode, data []byte) error {
	switch mode.ColorType {
	case pixel.Palette:
		if len(data) > mode.PaletteSize() {
			// More alpha values than palette entries.
			return fmt.Errorf("png: %w", pixel.ErrPaletteTooBig)
		}
		for i, a := range data {
			mode.Palette[4*i+3] = a
		}
	case pixel.Grey:
		if len(data) != 2 {
			return ErrTRNSWrongSize
		}
		mode.KeyDefined = true
		key := 256*int(data[0]) + int(data[1])
		mode.KeyR, mode.KeyG, mode.KeyB = key, key, key
	case pixel.RGB:
		if len(data) != 6 {
			return ErrTRNSWrongSize
		}
		mode.KeyDefined = true
		mode.KeyR = 256*int(data[0]) + int(data[1])
		mode.KeyG = 256*int(data[2]) + int(data[3])
		mode.KeyB = 256*int(data[4]) + int(data[5])
	default:
		return ErrTRNSNotAllowed
	}
	return nil
}

// postProcessScanlines turns the decompressed IDAT payload (filtered,
// padded, possibly interlaced) into the packed raw image. The payload
// buffer is clobbered along the way.
func postProcessScanlines(out, in []byte, w, h int, info *Info) error {
	bpp := info.Color.BPP()

	if info.Interlace == 0 {
		if bpp < 8 && w*bpp != ((w*bpp+7)/8)*8 {
			if err := dsp.Unfilter(in, in, w, h, bpp); err != nil {
				return err
			}
			dsp.RemovePaddingBits(out, in, w*bpp, ((w*bpp+7)/8)*8, h)
			return nil
		}
		// Scanlines already end on byte boundaries: unfilter straight
		// into the output.
		return dsp.Unfilter(out, in, w, h, bpp)
	}

	p := dsp.Adam7PassValues(w, h, bpp)
	for i := 0; i < 7; i++ {
		if err := dsp.Unfilter(in[p.PaddedStart[i]:], in[p.FilterStart[i]:], p.W[i], p.H[i], bpp); err != nil {
			return err
		}
		if bpp < 8 {
			// The reduced images stay byte-aligned relative to each
			// other; only the per-scanline padding goes.
			dsp.RemovePaddingBits(in[p.Start[i]:], in[p.PaddedStart[i]:],
				p.W[i]*bpp, ((p.W[i]*bpp+7)/8)*8, p.H[i])
		}
	}
	dsp.Deinterlace(out, in, w, h, bpp)
	return nil
}

// decodeGeneric decodes the PNG into raw pixels in the file's own
// color mode, filling s.InfoPNG.
func decodeGeneric(data []byte, s *State) ([]byte, int, int, error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, 0, 0, err
	}

	w, h := info.Width, info.Height
	if int64(w)*int64(h) > MaxPixels {
		return nil, 0, 0, ErrTooManyPixels
	}

	var idat []byte
	cr := chunk.NewReader(data[headerSize:])
	for {
		if !cr.More() {
			break
		}
		c, err := cr.Next()
		if err != nil {
			if errors.Is(err, chunk.ErrLengthTooLarge) {
				break
			}
			return nil, 0, 0, ErrChunkOverrun
		}

		done := false
		switch c.Type {
		case "IDAT":
			idat = append(idat, c.Data...)
		case "PLTE":
			if err := readPLTE(&info.Color, c.Data); err != nil {
				return nil, 0, 0, err
			}
		case "tRNS":
			if err := readTRNS(&info.Color, c.Data); err != nil {
				return nil, 0, 0, err
			}
		case "IEND":
			done = true
		default:
			// Unknown chunk: skipped. Ancillary chunks carry nothing
			// the core needs.
		}
		if done {
			break
		}
	}

	// The exact decompressed size is known from the header; any other
	// size means corrupt data.
	var predict int
	if info.Interlace == 0 {
		predict = info.Color.PaddedSize(w, h) + h
	} else {
		predict = dsp.Adam7PassValues(w, h, info.Color.BPP()).FilterStart[7]
	}

	scanlines, err := flate.ZlibDecompress(idat)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("png: %w", err)
	}
	if len(scanlines) != predict {
		return nil, 0, 0, ErrIDATSizeMismatch
	}

	out := make([]byte, info.Color.RawSize(w, h))
	if err := postProcessScanlines(out, scanlines, w, h, &info); err != nil {
		return nil, 0, 0, fmt.Errorf("png: %w", err)
	}
	s.InfoPNG = info
	return out, w, h, nil
}

// Decode decodes the PNG in data into raw pixels in the mode requested
// by s.InfoRaw; s.InfoPNG receives the file's declared properties.
//
// Conversion out of the file's own mode is supported when the
// requested mode is RGB or RGBA, or has bit depth 8.
func (s *State) Decode(data []byte) ([]byte, int, int, error) {
	out, w, h, err := decodeGeneric(data, s)
	if err != nil {
		return nil, 0, 0, err
	}
	if s.InfoRaw.Equal(&s.InfoPNG.Color) {
		return out, w, h, nil
	}

	if s.InfoRaw.ColorType != pixel.RGB && s.InfoRaw.ColorType != pixel.RGBA &&
		s.InfoRaw.BitDepth != 8 {
		return nil, 0, 0, ErrUnsupportedConversion
	}
	converted, err := pixel.Convert(out, &s.InfoRaw, &s.InfoPNG.Color, w, h)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("png: %w", err)
	}
	return converted, w, h, nil
}

// DecodeRaw decodes a PNG into raw pixels of the given color type and
// bit depth.
func DecodeRaw(data []byte, ct ColorType, bitDepth int) ([]byte, int, int, error) {
	s := NewState()
	s.InfoRaw = pixel.MakeMode(ct, bitDepth)
	return s.Decode(data)
}

// Decode reads a PNG image from r and returns it as an image.Image:
// *image.NRGBA, or *image.NRGBA64 when the file has 16-bit channels.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("png: reading data: %w", err)
	}

	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}

	s := NewState()
	if info.Color.BitDepth == 16 {
		// Decode at full depth so nothing is truncated.
		s.InfoRaw = pixel.MakeMode(pixel.RGBA, 16)
		pix, w, h, err := s.Decode(data)
		if err != nil {
			return nil, err
		}
		img := image.NewNRGBA64(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			copy(img.Pix[y*img.Stride:], pix[y*w*8:(y+1)*w*8])
		}
		return img, nil
	}

	pix, w, h, err := s.Decode(data)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(img.Pix[y*img.Stride:], pix[y*w*4:(y+1)*w*4])
	}
	return img, nil
}

// DecodeConfig returns the color model and dimensions of a PNG image
// without decoding pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("png: reading data: %w", err)
	}
	info, err := Inspect(data)
	if err != nil {
		return image.Config{}, err
	}

	var cm color.Model
	switch {
	case info.Color.BitDepth == 16 && info.Color.IsAlphaType():
		cm = color.NRGBA64Model
	case info.Color.BitDepth == 16:
		cm = color.RGBA64Model
	case info.Color.CanHaveAlpha():
		cm = color.NRGBAModel
	case info.Color.IsGreyscale():
		cm = color.GrayModel
	default:
		cm = color.RGBAModel
	}
	return image.Config{ColorModel: cm, Width: info.Width, Height: info.Height}, nil
}

// readAll reads all of r. If r knows its length (e.g. *bytes.Reader),
// a single exact-sized allocation is used instead of io.ReadAll's
// repeated doubling.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		if n := lr.Len(); n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}
