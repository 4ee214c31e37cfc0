package flate

import (
	"errors"

	"github.com/deepteams/png/internal/bitio"
)

// Errors from Huffman table construction and symbol decoding.
var (
	ErrOversubscribed    = errors.New("flate: oversubscribed Huffman tree")
	ErrHuffmanOutOfInput = errors.New("flate: input exhausted while decoding Huffman symbol")
	ErrInvalidTreeJump   = errors.New("flate: Huffman decode jumped outside the code tree")
	ErrAlphabetTooLarge  = errors.New("flate: alphabet cannot be represented within the bit-length limit")
)

// treeUnfilled marks tree2d cells that have not been assigned yet
// during construction.
const treeUnfilled = 32767

// huffmanTree holds one canonical Huffman code in both forms: the
// encode form (per-symbol code and length, a length of 0 meaning the
// symbol is absent) and the decode form (a flattened binary trie).
//
// The trie tree2d has numCodes*2 cells: cell 2*pos+bit holds either a
// symbol (< numCodes) or an internal-node pointer (>= numCodes; subtract
// numCodes for the child position). A well-formed tree needs at most
// numCodes-1 internal nodes; needing more means the code lengths are
// oversubscribed.
type huffmanTree struct {
	codes    []uint32
	lengths  []int
	tree2d   []uint32
	numCodes int
	maxLen   int
}

// newTreeFromLengths builds a tree from the per-symbol code lengths as
// stored in a DEFLATE stream.
func newTreeFromLengths(bitlen []int, maxLen int) (*huffmanTree, error) {
	t := &huffmanTree{
		lengths:  append([]int(nil), bitlen...),
		numCodes: len(bitlen),
		maxLen:   maxLen,
	}
	t.buildCodes()
	if err := t.build2D(); err != nil {
		return nil, err
	}
	return t, nil
}

// newTreeFromFrequencies builds a length-limited optimal tree from
// symbol frequencies. Trailing zero-frequency symbols are trimmed, but
// never below minCodes.
func newTreeFromFrequencies(freq []uint32, minCodes, maxLen int) (*huffmanTree, error) {
	numCodes := len(freq)
	for numCodes > minCodes && freq[numCodes-1] == 0 {
		numCodes--
	}
	lengths, err := codeLengths(freq[:numCodes], maxLen)
	if err != nil {
		return nil, err
	}
	t := &huffmanTree{
		lengths:  lengths,
		numCodes: numCodes,
		maxLen:   maxLen,
	}
	t.buildCodes()
	if err := t.build2D(); err != nil {
		return nil, err
	}
	return t, nil
}

// code returns the canonical codeword of sym, MSB-aligned to length(sym) bits.
func (t *huffmanTree) code(sym int) uint32 { return t.codes[sym] }

// length returns the code length of sym; 0 means the symbol is absent.
func (t *huffmanTree) length(sym int) int { return t.lengths[sym] }

// buildCodes assigns canonical codes per RFC 1951 section 3.2.2:
// count the lengths, derive nextCode per length, then hand out codes
// in symbol order.
func (t *huffmanTree) buildCodes() {
	blCount := make([]int, t.maxLen+1)
	nextCode := make([]uint32, t.maxLen+1)
	t.codes = make([]uint32, t.numCodes)

	for _, l := range t.lengths {
		blCount[l]++
	}
	for bits := 1; bits <= t.maxLen; bits++ {
		nextCode[bits] = (nextCode[bits-1] + uint32(blCount[bits-1])) << 1
	}
	for n := 0; n < t.numCodes; n++ {
		if t.lengths[n] != 0 {
			t.codes[n] = nextCode[t.lengths[n]]
			nextCode[t.lengths[n]]++
		}
	}
}

// build2D converts the codes to the flattened trie used for decoding.
func (t *huffmanTree) build2D() error {
	t.tree2d = make([]uint32, t.numCodes*2)
	for i := range t.tree2d {
		t.tree2d[i] = treeUnfilled
	}

	nodeFilled := 0 // number of internal nodes created so far
	treePos := 0
	for n := 0; n < t.numCodes; n++ {
		for i := 0; i < t.lengths[n]; i++ {
			bit := (t.codes[n] >> (t.lengths[n] - i - 1)) & 1
			if treePos+2 > t.numCodes {
				return ErrOversubscribed
			}
			cell := &t.tree2d[2*treePos+int(bit)]
			if *cell == treeUnfilled {
				if i+1 == t.lengths[n] {
					*cell = uint32(n) // leaf
					treePos = 0
				} else {
					nodeFilled++
					*cell = uint32(nodeFilled + t.numCodes)
					treePos = nodeFilled
				}
			} else {
				// Running into a leaf, or ending on an existing node,
				// means the lengths claim more code space than exists.
				if int(*cell) < t.numCodes || i+1 == t.lengths[n] {
					return ErrOversubscribed
				}
				treePos = int(*cell) - t.numCodes
			}
		}
	}
	for i := range t.tree2d {
		if t.tree2d[i] == treeUnfilled {
			t.tree2d[i] = 0
		}
	}
	return nil
}

// decodeSymbol walks the trie one bit at a time until a leaf is hit.
func (t *huffmanTree) decodeSymbol(r *bitio.Reader) (int, error) {
	treePos := 0
	for {
		if !r.CanRead(1) {
			return 0, ErrHuffmanOutOfInput
		}
		ct := t.tree2d[2*treePos+int(r.ReadBit())]
		if int(ct) < t.numCodes {
			return int(ct), nil
		}
		treePos = int(ct) - t.numCodes
		if treePos >= t.numCodes {
			return 0, ErrInvalidTreeJump
		}
	}
}

// Fixed trees per RFC 1951 section 3.2.6.
var (
	fixedLitLenTree   *huffmanTree
	fixedDistanceTree *huffmanTree
)

func init() {
	bitlenLL := make([]int, NumDeflateCodeSymbols)
	for i := 0; i <= 143; i++ {
		bitlenLL[i] = 8
	}
	for i := 144; i <= 255; i++ {
		bitlenLL[i] = 9
	}
	for i := 256; i <= 279; i++ {
		bitlenLL[i] = 7
	}
	for i := 280; i <= 287; i++ {
		bitlenLL[i] = 8
	}
	bitlenD := make([]int, NumDistanceSymbols)
	for i := range bitlenD {
		bitlenD[i] = 5
	}

	var err error
	if fixedLitLenTree, err = newTreeFromLengths(bitlenLL, maxBitLen); err != nil {
		panic(err)
	}
	if fixedDistanceTree, err = newTreeFromLengths(bitlenD, maxBitLen); err != nil {
		panic(err)
	}
}
