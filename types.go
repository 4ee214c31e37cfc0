package png

import (
	"github.com/deepteams/png/internal/dsp"
	"github.com/deepteams/png/internal/flate"
	"github.com/deepteams/png/internal/pixel"
)

// ColorType is a PNG color type (the IHDR value).
type ColorType = pixel.ColorType

// The five PNG color types.
const (
	Grey      = pixel.Grey
	RGB       = pixel.RGB
	Palette   = pixel.Palette
	GreyAlpha = pixel.GreyAlpha
	RGBA      = pixel.RGBA
)

// ColorMode describes the pixel encoding of a raw buffer or of a PNG
// file: color type, bit depth, palette, and optional color key.
type ColorMode = pixel.Mode

// MakeColorMode returns a plain mode with no palette and no color key.
func MakeColorMode(ct ColorType, bitDepth int) ColorMode {
	return pixel.MakeMode(ct, bitDepth)
}

// FilterStrategy selects how the encoder chooses scanline filter types.
type FilterStrategy = dsp.Strategy

// Filter strategies; FilterMinsum is the default.
const (
	FilterMinsum  = dsp.StrategyMinsum
	FilterZero    = dsp.StrategyZero
	FilterEntropy = dsp.StrategyEntropy
)

// CompressOptions configures the DEFLATE layer: window size, match
// thresholds, lazy matching.
type CompressOptions = flate.Options

// DefaultCompressOptions returns the default DEFLATE configuration
// (2048-byte window, minmatch 3, nicematch 128, lazy matching on).
func DefaultCompressOptions() *CompressOptions {
	return flate.DefaultOptions()
}

// Info holds a PNG file's header properties.
type Info struct {
	Width, Height int
	Color         ColorMode
	Interlace     int // 0 = none, 1 = Adam7
}

// EncoderOptions configures the PNG encoder. The zero value is not the
// default configuration; use DefaultEncoderOptions (or NewState).
type EncoderOptions struct {
	// AutoConvert selects the smallest lossless color mode for the
	// output instead of honoring the mode in State.InfoPNG.
	AutoConvert bool

	// FilterPaletteZero forces filter type 0 for palette images and
	// bit depths below 8, as the PNG standard suggests.
	FilterPaletteZero bool

	// FilterStrategy picks the per-scanline filter heuristic used for
	// the remaining images.
	FilterStrategy FilterStrategy

	// ForcePalette emits a PLTE chunk even for RGB/RGBA output.
	ForcePalette bool

	// Interlace encodes with Adam7 interlacing.
	Interlace bool

	// Compression configures the DEFLATE layer.
	Compression CompressOptions
}

// DefaultEncoderOptions returns the defaults: auto conversion on,
// palette images unfiltered, minsum filtering elsewhere, no forced
// palette, no interlacing.
func DefaultEncoderOptions() *EncoderOptions {
	return &EncoderOptions{
		AutoConvert:       true,
		FilterPaletteZero: true,
		FilterStrategy:    FilterMinsum,
		Compression:       *flate.DefaultOptions(),
	}
}

// State carries the settings and results of stateful encode/decode
// calls: InfoRaw describes the caller's raw buffer, InfoPNG the file
// side (filled by Decode, consumed by Encode when AutoConvert is off).
type State struct {
	InfoRaw ColorMode
	InfoPNG Info
	Encoder EncoderOptions
}

// NewState returns a State with RGBA8 raw buffers and default encoder
// settings.
func NewState() *State {
	return &State{
		InfoRaw: pixel.MakeMode(pixel.RGBA, 8),
		Encoder: *DefaultEncoderOptions(),
	}
}
