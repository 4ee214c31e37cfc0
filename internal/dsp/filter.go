// Package dsp implements the per-scanline signal processing of PNG:
// the five predictive filters with their adaptive selection heuristics,
// and the Adam7 interlacing transforms.
package dsp

import (
	"errors"
	"math"

	"github.com/deepteams/png/internal/pool"
)

// Strategy selects how the encoder picks a filter type per scanline.
type Strategy int

const (
	// StrategyMinsum tries all five filters per row and keeps the one
	// with the smallest sum of absolute residuals. The PNG standard's
	// suggested heuristic, and the default.
	StrategyMinsum Strategy = iota
	// StrategyZero always uses filter type 0. Mandatory for palette
	// and sub-byte images when the encoder's filterPaletteZero setting
	// is in effect.
	StrategyZero
	// StrategyEntropy scores each filtered row by a log2 entropy
	// estimate of its byte histogram instead of the absolute sum.
	StrategyEntropy
)

// Errors from the filter layer.
var (
	ErrFilterType     = errors.New("dsp: illegal PNG filter type")
	ErrFilterStrategy = errors.New("dsp: unknown filter strategy")
)

// paeth is the type-4 predictor: whichever of a (left), b (above),
// c (upper left) is closest to a+b-c, ties resolved in that order.
// The distances must be computed in signed arithmetic wider than a byte.
func paeth(a, b, c byte) byte {
	pa := abs(int(b) - int(c))
	pb := abs(int(a) - int(c))
	pc := abs(int(a) + int(b) - 2*int(c))
	if pc < pa && pc < pb {
		return c
	}
	if pb < pa {
		return b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// filterScanline writes scanline minus its prediction into out.
// prevline is nil for the first row; bytes left of the row count as 0.
// bytewidth is 1 for sub-byte pixels, the pixel byte size otherwise.
func filterScanline(out, scanline, prevline []byte, bytewidth int, filterType byte) {
	length := len(scanline)
	switch filterType {
	case 0:
		copy(out, scanline)
	case 1: // Sub
		copy(out[:bytewidth], scanline)
		for i := bytewidth; i < length; i++ {
			out[i] = scanline[i] - scanline[i-bytewidth]
		}
	case 2: // Up
		if prevline != nil {
			for i := 0; i < length; i++ {
				out[i] = scanline[i] - prevline[i]
			}
		} else {
			copy(out, scanline)
		}
	case 3: // Average
		if prevline != nil {
			for i := 0; i < bytewidth; i++ {
				out[i] = scanline[i] - prevline[i]>>1
			}
			for i := bytewidth; i < length; i++ {
				out[i] = scanline[i] - byte((int(scanline[i-bytewidth])+int(prevline[i]))>>1)
			}
		} else {
			copy(out[:bytewidth], scanline)
			for i := bytewidth; i < length; i++ {
				out[i] = scanline[i] - scanline[i-bytewidth]>>1
			}
		}
	case 4: // Paeth
		if prevline != nil {
			// paeth(0, above, 0) is always the above byte.
			for i := 0; i < bytewidth; i++ {
				out[i] = scanline[i] - prevline[i]
			}
			for i := bytewidth; i < length; i++ {
				out[i] = scanline[i] - paeth(scanline[i-bytewidth], prevline[i], prevline[i-bytewidth])
			}
		} else {
			copy(out[:bytewidth], scanline)
			// paeth(left, 0, 0) is always the left byte.
			for i := bytewidth; i < length; i++ {
				out[i] = scanline[i] - scanline[i-bytewidth]
			}
		}
	}
}

// unfilterScanline reconstructs one row: recon = scanline + prediction.
// recon and scanline may alias; precon must not.
func unfilterScanline(recon, scanline, precon []byte, bytewidth int, filterType byte) error {
	length := len(scanline)
	switch filterType {
	case 0:
		copy(recon, scanline)
	case 1: // Sub
		copy(recon[:bytewidth], scanline)
		for i := bytewidth; i < length; i++ {
			recon[i] = scanline[i] + recon[i-bytewidth]
		}
	case 2: // Up
		if precon != nil {
			for i := 0; i < length; i++ {
				recon[i] = scanline[i] + precon[i]
			}
		} else {
			copy(recon, scanline)
		}
	case 3: // Average
		if precon != nil {
			for i := 0; i < bytewidth; i++ {
				recon[i] = scanline[i] + precon[i]>>1
			}
			for i := bytewidth; i < length; i++ {
				recon[i] = scanline[i] + byte((int(recon[i-bytewidth])+int(precon[i]))>>1)
			}
		} else {
			copy(recon[:bytewidth], scanline)
			for i := bytewidth; i < length; i++ {
				recon[i] = scanline[i] + recon[i-bytewidth]>>1
			}
		}
	case 4: // Paeth
		if precon != nil {
			for i := 0; i < bytewidth; i++ {
				recon[i] = scanline[i] + precon[i]
			}
			for i := bytewidth; i < length; i++ {
				recon[i] = scanline[i] + paeth(recon[i-bytewidth], precon[i], precon[i-bytewidth])
			}
		} else {
			copy(recon[:bytewidth], scanline)
			for i := bytewidth; i < length; i++ {
				recon[i] = scanline[i] + recon[i-bytewidth]
			}
		}
	default:
		return ErrFilterType
	}
	return nil
}

// Unfilter reverses the filter layer of one (possibly Adam7-reduced)
// image: in holds h scanlines each prefixed by its filter-type byte,
// out receives the reconstructed rows without those bytes. out and in
// may share memory as long as out does not start after in.
func Unfilter(out, in []byte, w, h, bpp int) error {
	bytewidth := (bpp + 7) / 8
	linebytes := (w*bpp + 7) / 8

	var prevline []byte
	for y := 0; y < h; y++ {
		outindex := linebytes * y
		inindex := (1 + linebytes) * y
		filterType := in[inindex]

		if err := unfilterScanline(out[outindex:outindex+linebytes],
			in[inindex+1:inindex+1+linebytes], prevline, bytewidth, filterType); err != nil {
			return err
		}
		prevline = out[outindex : outindex+linebytes]
	}
	return nil
}

// Filter applies the filter layer of one (possibly Adam7-reduced)
// image: for each of the h rows of in it writes a filter-type byte
// followed by the filtered row into out, choosing the type per
// strategy.
func Filter(out, in []byte, w, h, bpp int, strategy Strategy) error {
	bytewidth := (bpp + 7) / 8
	linebytes := (w*bpp + 7) / 8
	var prevline []byte

	switch strategy {
	case StrategyZero:
		for y := 0; y < h; y++ {
			outindex := (1 + linebytes) * y
			inindex := linebytes * y
			out[outindex] = 0
			filterScanline(out[outindex+1:outindex+1+linebytes],
				in[inindex:inindex+linebytes], prevline, bytewidth, 0)
			prevline = in[inindex : inindex+linebytes]
		}
		return nil

	case StrategyMinsum:
		attempt := getAttemptRows(linebytes)
		defer putAttemptRows(attempt)

		for y := 0; y < h; y++ {
			bestType := 0
			smallest := 0
			for typ := 0; typ < 5; typ++ {
				filterScanline(attempt[typ], in[y*linebytes:(y+1)*linebytes], prevline, bytewidth, byte(typ))

				// Residuals are signed: a byte above 127 counts by its
				// distance from 256. Type 0 holds plain sample bytes
				// and sums them unsigned, so it is almost never chosen,
				// which is the intended bias.
				sum := 0
				if typ == 0 {
					for _, s := range attempt[typ] {
						sum += int(s)
					}
				} else {
					for _, s := range attempt[typ] {
						if s < 128 {
							sum += int(s)
						} else {
							sum += 256 - int(s)
						}
					}
				}
				if typ == 0 || sum < smallest {
					bestType = typ
					smallest = sum
				}
			}

			prevline = in[y*linebytes : (y+1)*linebytes]
			out[y*(linebytes+1)] = byte(bestType)
			copy(out[y*(linebytes+1)+1:y*(linebytes+1)+1+linebytes], attempt[bestType])
		}
		return nil

	case StrategyEntropy:
		attempt := getAttemptRows(linebytes)
		defer putAttemptRows(attempt)

		var count [256]int
		for y := 0; y < h; y++ {
			bestType := 0
			smallest := 0.0
			for typ := 0; typ < 5; typ++ {
				filterScanline(attempt[typ], in[y*linebytes:(y+1)*linebytes], prevline, bytewidth, byte(typ))

				for i := range count {
					count[i] = 0
				}
				for _, s := range attempt[typ] {
					count[s]++
				}
				count[typ]++ // the filter-type byte is part of the scanline

				sum := 0.0
				total := float64(linebytes + 1)
				for _, c := range count {
					if c != 0 {
						p := float64(c) / total
						sum += math.Log2(1/p) * p
					}
				}
				if typ == 0 || sum < smallest {
					bestType = typ
					smallest = sum
				}
			}

			prevline = in[y*linebytes : (y+1)*linebytes]
			out[y*(linebytes+1)] = byte(bestType)
			copy(out[y*(linebytes+1)+1:y*(linebytes+1)+1+linebytes], attempt[bestType])
		}
		return nil
	}

	return ErrFilterStrategy
}

// getAttemptRows borrows the five per-filter scratch rows from the pool.
func getAttemptRows(linebytes int) [5][]byte {
	var attempt [5][]byte
	for i := range attempt {
		attempt[i] = pool.Get(linebytes)
	}
	return attempt
}

func putAttemptRows(attempt [5][]byte) {
	for _, b := range attempt {
		pool.Put(b)
	}
}
