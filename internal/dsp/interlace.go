package dsp

import "github.com/deepteams/png/internal/bitio"

// Adam7 pass geometry: start offsets and strides of the seven passes
// over each 8x8 tile.
var (
	adam7IX = [7]int{0, 4, 0, 2, 0, 1, 0}
	adam7IY = [7]int{0, 0, 4, 0, 2, 0, 1}
	adam7DX = [7]int{8, 8, 4, 4, 2, 2, 1}
	adam7DY = [7]int{8, 8, 8, 4, 4, 2, 2}
)

// PassInfo describes the seven Adam7 reduced images for one image
// size: per-pass pixel dimensions and three sets of cumulative byte
// offsets, for the representation with filter bytes, with padded
// scanlines, and fully packed. Entry 7 of each offset array is the
// total size.
type PassInfo struct {
	W, H        [7]int
	FilterStart [8]int
	PaddedStart [8]int
	Start       [8]int
}

// Adam7PassValues computes the reduced-image dimensions and buffer
// offsets for an image of w by h pixels at bpp bits per pixel.
func Adam7PassValues(w, h, bpp int) PassInfo {
	var p PassInfo
	for i := 0; i < 7; i++ {
		p.W[i] = (w + adam7DX[i] - adam7IX[i] - 1) / adam7DX[i]
		p.H[i] = (h + adam7DY[i] - adam7IY[i] - 1) / adam7DY[i]
		if p.W[i] == 0 {
			p.H[i] = 0
		}
		if p.H[i] == 0 {
			p.W[i] = 0
		}
	}
	for i := 0; i < 7; i++ {
		lineBytes := (p.W[i]*bpp + 7) / 8
		// An empty pass contributes nothing, not even filter bytes.
		filterBytes := 0
		if p.W[i] != 0 && p.H[i] != 0 {
			filterBytes = p.H[i] * (1 + lineBytes)
		}
		p.FilterStart[i+1] = p.FilterStart[i] + filterBytes
		p.PaddedStart[i+1] = p.PaddedStart[i] + p.H[i]*lineBytes
		p.Start[i+1] = p.Start[i] + (p.H[i]*p.W[i]*bpp+7)/8
	}
	return p
}

// Interlace rearranges a non-interlaced image into the seven Adam7
// reduced images: out holds them back to back, each starting on a byte
// boundary, scanlines inside a pass not padded. For sub-byte pixels the
// transform moves individual bits with MSB-first cursors.
func Interlace(out, in []byte, w, h, bpp int) {
	p := Adam7PassValues(w, h, bpp)

	if bpp >= 8 {
		bytewidth := bpp / 8
		for i := 0; i < 7; i++ {
			for y := 0; y < p.H[i]; y++ {
				for x := 0; x < p.W[i]; x++ {
					inStart := ((adam7IY[i]+y*adam7DY[i])*w + adam7IX[i] + x*adam7DX[i]) * bytewidth
					outStart := p.Start[i] + (y*p.W[i]+x)*bytewidth
					copy(out[outStart:outStart+bytewidth], in[inStart:inStart+bytewidth])
				}
			}
		}
		return
	}

	pr := bitio.NewPixelReader(in)
	pw := bitio.NewPixelWriter(out)
	for i := 0; i < 7; i++ {
		ilinebits := bpp * p.W[i]
		olinebits := bpp * w
		for y := 0; y < p.H[i]; y++ {
			for x := 0; x < p.W[i]; x++ {
				pr.Seek((adam7IY[i]+y*adam7DY[i])*olinebits + (adam7IX[i]+x*adam7DX[i])*bpp)
				pw.Seek(8*p.Start[i] + y*ilinebits + x*bpp)
				for b := 0; b < bpp; b++ {
					pw.WriteBit(pr.ReadBit())
				}
			}
		}
	}
}

// Deinterlace is the inverse of Interlace: it scatters the pixels of
// the seven reduced images in `in` to their final positions in out.
// For sub-byte pixels out must be entirely zero on entry; bits are only
// ever set, never cleared.
func Deinterlace(out, in []byte, w, h, bpp int) {
	p := Adam7PassValues(w, h, bpp)

	if bpp >= 8 {
		bytewidth := bpp / 8
		for i := 0; i < 7; i++ {
			for y := 0; y < p.H[i]; y++ {
				for x := 0; x < p.W[i]; x++ {
					inStart := p.Start[i] + (y*p.W[i]+x)*bytewidth
					outStart := ((adam7IY[i]+y*adam7DY[i])*w + adam7IX[i] + x*adam7DX[i]) * bytewidth
					copy(out[outStart:outStart+bytewidth], in[inStart:inStart+bytewidth])
				}
			}
		}
		return
	}

	pr := bitio.NewPixelReader(in)
	pw := bitio.NewPixelWriter(out)
	for i := 0; i < 7; i++ {
		ilinebits := bpp * p.W[i]
		olinebits := bpp * w
		for y := 0; y < p.H[i]; y++ {
			for x := 0; x < p.W[i]; x++ {
				pr.Seek(8*p.Start[i] + y*ilinebits + x*bpp)
				pw.Seek((adam7IY[i]+y*adam7DY[i])*olinebits + (adam7IX[i]+x*adam7DX[i])*bpp)
				for b := 0; b < bpp; b++ {
					pw.SetBit(pr.ReadBit())
				}
			}
		}
	}
}

// AddPaddingBits widens packed scanlines of ilinebits bits to olinebits
// bits each, zero-filling the padding, so every scanline ends on a byte
// boundary before filtering.
func AddPaddingBits(out, in []byte, olinebits, ilinebits, h int) {
	diff := olinebits - ilinebits
	pr := bitio.NewPixelReader(in)
	pw := bitio.NewPixelWriter(out)
	for y := 0; y < h; y++ {
		for x := 0; x < ilinebits; x++ {
			pw.WriteBit(pr.ReadBit())
		}
		// Write zeros rather than skipping so the padding is defined.
		for x := 0; x < diff; x++ {
			pw.WriteBit(0)
		}
	}
}

// RemovePaddingBits is the inverse: it narrows scanlines of ilinebits
// bits to olinebits bits, dropping the padding. in and out may overlap
// with out no later than in, as the write cursor never passes the read
// cursor.
func RemovePaddingBits(out, in []byte, olinebits, ilinebits, h int) {
	diff := ilinebits - olinebits
	pr := bitio.NewPixelReader(in)
	pw := bitio.NewPixelWriter(out)
	ibp := 0
	for y := 0; y < h; y++ {
		for x := 0; x < olinebits; x++ {
			pw.WriteBit(pr.ReadBit())
		}
		ibp += olinebits + diff
		pr.Seek(ibp)
	}
}
