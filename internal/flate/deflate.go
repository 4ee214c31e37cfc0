package flate

import (
	"errors"

	"github.com/deepteams/png/internal/bitio"
)

// ErrEmptyEndCode reports a generated tree that assigned no code to the
// end-of-block symbol. The encoder forces its frequency to 1 so this
// cannot normally happen.
var ErrEmptyEndCode = errors.New("flate: length of the end code 256 is zero")

// DefaultWindowSize is a good trade-off between speed and compression
// ratio for PNG data.
const DefaultWindowSize = 2048

// Options configures the compressor.
type Options struct {
	// WindowSize is the LZ77 sliding window: a power of two, at most
	// 32768. 0 selects DefaultWindowSize.
	WindowSize int

	// MinMatch rejects matches shorter than this in favor of literals.
	// 0 selects the DEFLATE minimum of 3.
	MinMatch int

	// NiceMatch stops the match search early once a match of this
	// length is found. 0 selects 128; the maximum is 258.
	NiceMatch int

	// LazyMatching enables the one-byte lookahead heuristic: better
	// compression, slightly slower.
	LazyMatching bool
}

// DefaultOptions returns the default compressor configuration.
func DefaultOptions() *Options {
	return &Options{
		WindowSize:   DefaultWindowSize,
		MinMatch:     3,
		NiceMatch:    128,
		LazyMatching: true,
	}
}

// normalized fills in defaults for zero fields. A nil receiver selects
// all defaults.
func (o *Options) normalized() Options {
	if o == nil {
		return *DefaultOptions()
	}
	n := *o
	if n.WindowSize == 0 {
		n.WindowSize = DefaultWindowSize
	}
	if n.MinMatch == 0 {
		n.MinMatch = 3
	}
	if n.NiceMatch == 0 {
		n.NiceMatch = 128
	}
	return n
}

// Deflate compresses in as a sequence of dynamic Huffman blocks.
func Deflate(in []byte, o *Options) ([]byte, error) {
	opts := o.normalized()

	// Blocks of 65-262k give the densest encoding for PNG data.
	blockSize := len(in)/8 + 8
	if blockSize < 65536 {
		blockSize = 65536
	}
	if blockSize > 262144 {
		blockSize = 262144
	}
	numBlocks := (len(in) + blockSize - 1) / blockSize
	if numBlocks == 0 {
		numBlocks = 1
	}

	if opts.WindowSize == 0 || opts.WindowSize > MaxWindowSize {
		return nil, ErrWindowSize
	}
	if opts.WindowSize&(opts.WindowSize-1) != 0 {
		return nil, ErrWindowNotPow2
	}
	h := newHash(opts.WindowSize)

	bw := bitio.NewWriter(len(in)/2 + 16)
	for i := 0; i < numBlocks; i++ {
		final := i == numBlocks-1
		start := i * blockSize
		end := start + blockSize
		if end > len(in) {
			end = len(in)
		}
		if err := deflateDynamic(bw, h, in, start, end, &opts, final); err != nil {
			return nil, err
		}
	}
	return bw.Bytes(), nil
}

// writeLZ77Data writes the symbol stream produced by encodeLZ77 using
// the lit/len and distance trees.
func writeLZ77Data(bw *bitio.Writer, lz []uint32, treeLL, treeD *huffmanTree) {
	for i := 0; i < len(lz); i++ {
		val := int(lz[i])
		bw.WriteBitsRev(treeLL.code(val), treeLL.length(val))
		if val > 256 { // length code: extra length bits, dist code, extra dist bits follow
			lengthIndex := val - FirstLengthCodeIndex
			i++
			lengthExtraBits := lz[i]
			i++
			distCode := int(lz[i])
			i++
			distExtraBits := lz[i]

			bw.WriteBits(lengthExtraBits, lengthExtra[lengthIndex])
			bw.WriteBitsRev(treeD.code(distCode), treeD.length(distCode))
			bw.WriteBits(distExtraBits, distanceExtra[distCode])
		}
	}
}

// deflateDynamic writes one dynamic block for in[start:end].
//
// The data is LZ77 coded, then Huffman coded with two trees (lit/len
// and dist). Those trees are stored as code lengths, which are
// run-length compressed and Huffman coded once more with the
// code-length tree, whose own 3-bit lengths go into the header.
func deflateDynamic(bw *bitio.Writer, h *hash, in []byte, start, end int, o *Options, final bool) error {
	lz, err := encodeLZ77(nil, h, in, start, end, o.WindowSize, o.MinMatch, o.NiceMatch, o.LazyMatching)
	if err != nil {
		return err
	}

	frequenciesLL := make([]uint32, 286)
	frequenciesD := make([]uint32, 30)
	for i := 0; i < len(lz); i++ {
		symbol := lz[i]
		frequenciesLL[symbol]++
		if symbol > 256 {
			frequenciesD[lz[i+2]]++
			i += 3
		}
	}
	frequenciesLL[256] = 1 // there will be exactly one end code

	treeLL, err := newTreeFromFrequencies(frequenciesLL, 257, maxBitLen)
	if err != nil {
		return err
	}
	// mincodes 2, not 1: some decoders reject distance trees with a
	// single symbol.
	treeD, err := newTreeFromFrequencies(frequenciesD, 2, maxBitLen)
	if err != nil {
		return err
	}

	numCodesLL := treeLL.numCodes
	if numCodesLL > 286 {
		numCodesLL = 286
	}
	numCodesD := treeD.numCodes
	if numCodesD > 30 {
		numCodesD = 30
	}

	// The code lengths of both trees, concatenated.
	bitlenLLD := make([]uint32, 0, numCodesLL+numCodesD)
	for i := 0; i < numCodesLL; i++ {
		bitlenLLD = append(bitlenLLD, uint32(treeLL.length(i)))
	}
	for i := 0; i < numCodesD; i++ {
		bitlenLLD = append(bitlenLLD, uint32(treeD.length(i)))
	}

	// Run-length compress with repeat codes 16 (copy previous 3-6
	// times), 17 (3-10 zeros) and 18 (11-138 zeros). Repeat codes are
	// followed inline by their extra-bits value.
	var bitlenLLDE []uint32
	for i := 0; i < len(bitlenLLD); i++ {
		j := 0 // number of repetitions after position i
		for i+j+1 < len(bitlenLLD) && bitlenLLD[i+j+1] == bitlenLLD[i] {
			j++
		}

		if bitlenLLD[i] == 0 && j >= 2 {
			j++ // include the first zero
			if j <= 10 {
				bitlenLLDE = append(bitlenLLDE, 17, uint32(j-3))
			} else {
				if j > 138 {
					j = 138
				}
				bitlenLLDE = append(bitlenLLDE, 18, uint32(j-11))
			}
			i += j - 1
		} else if j >= 3 {
			num, rest := j/6, j%6
			bitlenLLDE = append(bitlenLLDE, bitlenLLD[i])
			for k := 0; k < num; k++ {
				bitlenLLDE = append(bitlenLLDE, 16, 6-3)
			}
			if rest >= 3 {
				bitlenLLDE = append(bitlenLLDE, 16, uint32(rest-3))
			} else {
				j -= rest
			}
			i += j
		} else {
			bitlenLLDE = append(bitlenLLDE, bitlenLLD[i])
		}
	}

	// The tree of trees.
	frequenciesCL := make([]uint32, NumCodeLengthCodes)
	for i := 0; i < len(bitlenLLDE); i++ {
		frequenciesCL[bitlenLLDE[i]]++
		if bitlenLLDE[i] >= 16 {
			i++ // skip the extra-bits value
		}
	}
	treeCL, err := newTreeFromFrequencies(frequenciesCL, NumCodeLengthCodes, maxBitLenCL)
	if err != nil {
		return err
	}

	bitlenCL := make([]uint32, treeCL.numCodes)
	for i := 0; i < treeCL.numCodes; i++ {
		bitlenCL[i] = uint32(treeCL.length(clclOrder[i]))
	}
	for len(bitlenCL) > 4 && bitlenCL[len(bitlenCL)-1] == 0 {
		bitlenCL = bitlenCL[:len(bitlenCL)-1]
	}

	// Header: BFINAL, BTYPE=2 (LSB-first), HLIT, HDIST, HCLEN.
	if final {
		bw.WriteBit(1)
	} else {
		bw.WriteBit(0)
	}
	bw.WriteBit(0)
	bw.WriteBit(1)

	hlit := uint32(numCodesLL - 257)
	hdist := uint32(numCodesD - 1)
	hclen := len(bitlenCL) - 4
	for hclen > 0 && bitlenCL[hclen+4-1] == 0 {
		hclen--
	}
	bw.WriteBits(hlit, 5)
	bw.WriteBits(hdist, 5)
	bw.WriteBits(uint32(hclen), 4)

	for i := 0; i < hclen+4; i++ {
		bw.WriteBits(bitlenCL[i], 3)
	}

	for i := 0; i < len(bitlenLLDE); i++ {
		sym := int(bitlenLLDE[i])
		bw.WriteBitsRev(treeCL.code(sym), treeCL.length(sym))
		switch sym {
		case 16:
			i++
			bw.WriteBits(bitlenLLDE[i], 2)
		case 17:
			i++
			bw.WriteBits(bitlenLLDE[i], 3)
		case 18:
			i++
			bw.WriteBits(bitlenLLDE[i], 7)
		}
	}

	writeLZ77Data(bw, lz, treeLL, treeD)
	if treeLL.length(256) == 0 {
		return ErrEmptyEndCode
	}
	bw.WriteBitsRev(treeLL.code(256), treeLL.length(256))
	return nil
}
