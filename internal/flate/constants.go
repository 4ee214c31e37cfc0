// Package flate implements the DEFLATE compressed data format of
// RFC 1951 together with the zlib container of RFC 1950, self-contained:
// Huffman code construction (including length-limited codes via boundary
// package-merge), an LZ77 match finder over a hashed sliding window, a
// dynamic-block compressor, an inflater, and the Adler-32 checksum.
//
// The compressor always emits dynamic Huffman blocks; the inflater
// accepts stored, fixed, and dynamic blocks.
package flate

const (
	// NumDeflateCodeSymbols is the size of the lit/len alphabet:
	// 0-255 literals, 256 end code, 257-285 length codes, 286-287 unused.
	NumDeflateCodeSymbols = 288
	// NumDistanceSymbols is the size of the distance alphabet (30-31 unused).
	NumDistanceSymbols = 32
	// NumCodeLengthCodes is the size of the code-length alphabet.
	NumCodeLengthCodes = 19

	// FirstLengthCodeIndex and LastLengthCodeIndex delimit the length
	// codes within the lit/len alphabet.
	FirstLengthCodeIndex = 257
	LastLengthCodeIndex  = 285

	// MaxSupportedLength is the maximum LZ77 match length in DEFLATE.
	MaxSupportedLength = 258

	// MaxWindowSize is the largest sliding window DEFLATE permits.
	MaxWindowSize = 32768

	// maxBitLen caps lit/len and distance code lengths; maxBitLenCL caps
	// code-length-alphabet code lengths.
	maxBitLen   = 15
	maxBitLenCL = 7
)

// lengthBase is the base length for each length code (codes 257-285).
var lengthBase = [29]int{
	3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
	35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258,
}

// lengthExtra is the number of extra bits carried by each length code.
var lengthExtra = [29]int{
	0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
	3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0,
}

// distanceBase is the base distance for each distance code.
var distanceBase = [30]int{
	1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
	257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193,
	12289, 16385, 24577,
}

// distanceExtra is the number of extra bits carried by each distance code.
var distanceExtra = [30]int{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13,
}

// clclOrder is the order in which the code lengths of the code-length
// alphabet are stored in a dynamic block header.
var clclOrder = [19]int{
	16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15,
}

// searchCodeIndex returns the index of the largest table value <= value.
// The table must be sorted ascending.
func searchCodeIndex(table []int, value int) int {
	left, right := 1, len(table)-1
	for left <= right {
		mid := (left + right) >> 1
		if table[mid] >= value {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}
	if left >= len(table) || table[left] > value {
		left--
	}
	return left
}
