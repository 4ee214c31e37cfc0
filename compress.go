package png

import (
	"fmt"

	"github.com/deepteams/png/internal/flate"
	"github.com/deepteams/png/internal/pixel"
)

// Inflate decompresses a raw DEFLATE stream.
func Inflate(data []byte) ([]byte, error) {
	out, err := flate.Inflate(data)
	if err != nil {
		return nil, fmt.Errorf("png: inflate: %w", err)
	}
	return out, nil
}

// Deflate compresses data as a raw DEFLATE stream of dynamic Huffman
// blocks. A nil options value selects the defaults.
func Deflate(data []byte, o *CompressOptions) ([]byte, error) {
	out, err := flate.Deflate(data, o)
	if err != nil {
		return nil, fmt.Errorf("png: deflate: %w", err)
	}
	return out, nil
}

// ZlibDecompress unwraps a zlib stream and inflates its payload.
func ZlibDecompress(data []byte) ([]byte, error) {
	out, err := flate.ZlibDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("png: zlib: %w", err)
	}
	return out, nil
}

// ZlibCompress deflates data and wraps it in a zlib container with an
// Adler-32 trailer.
func ZlibCompress(data []byte, o *CompressOptions) ([]byte, error) {
	out, err := flate.ZlibCompress(data, o)
	if err != nil {
		return nil, fmt.Errorf("png: zlib: %w", err)
	}
	return out, nil
}

// Convert re-encodes raw pixels from one color mode to another. The
// input holds w*h pixels packed without scanline padding; so does the
// result.
func Convert(in []byte, modeOut, modeIn *ColorMode, w, h int) ([]byte, error) {
	if err := modeIn.Check(); err != nil {
		return nil, fmt.Errorf("png: convert: %w", err)
	}
	if err := modeOut.Check(); err != nil {
		return nil, fmt.Errorf("png: convert: %w", err)
	}
	out, err := pixel.Convert(in, modeOut, modeIn, w, h)
	if err != nil {
		return nil, fmt.Errorf("png: convert: %w", err)
	}
	return out, nil
}
