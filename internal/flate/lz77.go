package flate

import "errors"

// Errors from the LZ77 encoder.
var (
	ErrWindowSize      = errors.New("flate: window size out of range (must be 1..32768)")
	ErrWindowNotPow2   = errors.New("flate: window size must be a power of two")
	ErrImpossibleOffset = errors.New("flate: impossible offset in LZ77 encoding")
	ErrLazyAtPosZero   = errors.New("flate: lazy matching at position 0 is impossible")
)

// The hash covers 3 bytes, the minimum match length of DEFLATE, so 16
// bits of hash space is plenty: PNG filter output is dominated by small
// values and long zero runs, and a stronger hash does not pay for
// itself.
const (
	hashNumValues = 65536
	hashBitMask   = hashNumValues - 1
)

// hash holds the sliding-window hash chains. head maps a hash value to
// the most recent window position seen for it (-1 when none); chain
// maps a window position to the previous one with the same hash, with
// chain[wpos] == wpos marking the end; val records which hash a
// position was inserted under, so stale buckets can be detected after
// the window wrapped.
//
// The parallel headz/chainz/zeros structures chain positions by the
// length of the zero run starting there (capped at 258), a second index
// that accelerates the all-zeros regions PNG filters produce.
type hash struct {
	head  []int32
	chain []uint16
	val   []int32

	headz  []int32
	chainz []uint16
	zeros  []uint16
}

// newHash allocates hash chains for the given window size.
func newHash(windowSize int) *hash {
	h := &hash{
		head:   make([]int32, hashNumValues),
		chain:  make([]uint16, windowSize),
		val:    make([]int32, windowSize),
		headz:  make([]int32, MaxSupportedLength+1),
		chainz: make([]uint16, windowSize),
		zeros:  make([]uint16, windowSize),
	}
	h.reset()
	return h
}

// reset clears all chains. chain[i] == i marks uninitialized entries.
func (h *hash) reset() {
	for i := range h.head {
		h.head[i] = -1
	}
	for i := range h.val {
		h.val[i] = -1
	}
	for i := range h.chain {
		h.chain[i] = uint16(i)
	}
	for i := range h.headz {
		h.headz[i] = -1
	}
	for i := range h.chainz {
		h.chainz[i] = uint16(i)
	}
	for i := range h.zeros {
		h.zeros[i] = 0
	}
}

// update pushes window position wpos onto the chain for hashval and
// onto the zero-run chain for numzeros.
func (h *hash) update(wpos int, hashval uint32, numzeros int) {
	h.val[wpos] = int32(hashval)
	if h.head[hashval] != -1 {
		h.chain[wpos] = uint16(h.head[hashval])
	}
	h.head[hashval] = int32(wpos)

	h.zeros[wpos] = uint16(numzeros)
	if h.headz[numzeros] != -1 {
		h.chainz[wpos] = uint16(h.headz[numzeros])
	}
	h.headz[numzeros] = int32(wpos)
}

// getHash hashes the 3 bytes at pos: b0 ^ b1<<4 ^ b2<<8, masked to 16
// bits. Near the end of the input fewer bytes take part.
func getHash(data []byte, pos int) uint32 {
	var result uint32
	if pos+2 < len(data) {
		result ^= uint32(data[pos])
		result ^= uint32(data[pos+1]) << 4
		result ^= uint32(data[pos+2]) << 8
	} else {
		if pos >= len(data) {
			return 0
		}
		for i, b := range data[pos:] {
			result ^= uint32(b) << (i * 8)
		}
	}
	return result & hashBitMask
}

// countZeros returns the length of the zero run starting at pos, capped
// at the maximum DEFLATE match length.
func countZeros(data []byte, pos int) int {
	end := pos + MaxSupportedLength
	if end > len(data) {
		end = len(data)
	}
	n := 0
	for pos+n < end && data[pos+n] == 0 {
		n++
	}
	return n
}

// appendLengthDistance appends a length/distance pair to the symbol
// stream as (length code, extra length bits, distance code, extra
// distance bits).
func appendLengthDistance(out []uint32, length, distance int) []uint32 {
	lengthCode := searchCodeIndex(lengthBase[:], length)
	distCode := searchCodeIndex(distanceBase[:], distance)
	return append(out,
		uint32(lengthCode+FirstLengthCodeIndex),
		uint32(length-lengthBase[lengthCode]),
		uint32(distCode),
		uint32(distance-distanceBase[distCode]),
	)
}

// encodeLZ77 encodes in[inpos:inend] into a symbol stream: literals
// 0..255 and length codes 257..285 followed inline by their extra-bit
// words and distance code. The hash chains in h persist across blocks
// of the same input so matches may reach back before inpos.
func encodeLZ77(out []uint32, h *hash, in []byte, inpos, inend, windowSize, minMatch, niceMatch int, lazyMatching bool) ([]uint32, error) {
	if windowSize == 0 || windowSize > MaxWindowSize {
		return out, ErrWindowSize
	}
	if windowSize&(windowSize-1) != 0 {
		return out, ErrWindowNotPow2
	}
	// Matches, zero runs and hashes must not reach past the block end.
	in = in[:inend]

	// For large windows assume the caller wants maximum compression;
	// otherwise cap the chain walk for speed.
	maxChainLength := windowSize
	maxLazyMatch := MaxSupportedLength
	if windowSize < 8192 {
		maxChainLength = windowSize / 8
		maxLazyMatch = 64
	}
	if niceMatch > MaxSupportedLength {
		niceMatch = MaxSupportedLength
	}

	numzeros := 0
	lazy := false
	lazyLength, lazyOffset := 0, 0

	for pos := inpos; pos < inend; pos++ {
		wpos := pos & (windowSize - 1)
		chainLength := 0

		hashval := getHash(in, pos)
		if hashval == 0 {
			if numzeros == 0 {
				numzeros = countZeros(in, pos)
			} else if pos+numzeros > len(in) || in[pos+numzeros-1] != 0 {
				numzeros--
			}
		} else {
			numzeros = 0
		}

		h.update(wpos, hashval, numzeros)

		length := 0
		offset := 0
		hashpos := int(h.chain[wpos])

		lastLimit := pos + MaxSupportedLength
		if lastLimit > len(in) {
			lastLimit = len(in)
		}

		prevOffset := 0
		for {
			if chainLength >= maxChainLength {
				break
			}
			chainLength++
			currentOffset := wpos - hashpos
			if currentOffset < 0 {
				currentOffset += windowSize
			}
			if currentOffset < prevOffset {
				break // went completely around the circular buffer
			}
			prevOffset = currentOffset
			if currentOffset > 0 {
				fore := pos
				back := pos - currentOffset

				// Long zero runs dominate PNG data; skip over what both
				// sides are known to share.
				if numzeros >= 3 {
					skip := int(h.zeros[hashpos])
					if skip > numzeros {
						skip = numzeros
					}
					back += skip
					fore += skip
				}
				for fore < lastLimit && in[back] == in[fore] {
					back++
					fore++
				}
				currentLength := fore - pos

				if currentLength > length {
					length = currentLength
					offset = currentOffset
					if currentLength >= niceMatch {
						break
					}
				}
			}

			if hashpos == int(h.chain[hashpos]) {
				break
			}

			if numzeros >= 3 && length > numzeros {
				hashpos = int(h.chainz[hashpos])
				if int(h.zeros[hashpos]) != numzeros {
					break
				}
			} else {
				hashpos = int(h.chain[hashpos])
				if h.val[hashpos] != int32(hashval) {
					break // stale bucket from a previous trip around the window
				}
			}
		}

		if lazyMatching {
			if !lazy && length >= 3 && length <= maxLazyMatch && length < MaxSupportedLength {
				lazy = true
				lazyLength = length
				lazyOffset = offset
				continue // try the next byte first
			}
			if lazy {
				lazy = false
				if pos == 0 {
					return out, ErrLazyAtPosZero
				}
				if length > lazyLength+1 {
					// Emit the previous byte as a literal and keep the
					// longer match found here.
					out = append(out, uint32(in[pos-1]))
				} else {
					length = lazyLength
					offset = lazyOffset
					// The hash chains will be re-updated for this
					// position; drop the heads added above so no wrong
					// entry remains.
					h.head[hashval] = -1
					h.headz[numzeros] = -1
					pos--
				}
			}
		}
		if length >= 3 && offset > windowSize {
			return out, ErrImpossibleOffset
		}

		if length < 3 || length < minMatch || (length == 3 && offset > 4096) {
			// A match of only 3 with a far offset costs more in extra
			// distance bits than the literal.
			out = append(out, uint32(in[pos]))
		} else {
			out = appendLengthDistance(out, length, offset)
			for i := 1; i < length; i++ {
				pos++
				wpos = pos & (windowSize - 1)
				hashval = getHash(in, pos)
				if hashval == 0 {
					if numzeros == 0 {
						numzeros = countZeros(in, pos)
					} else if pos+numzeros > len(in) || in[pos+numzeros-1] != 0 {
						numzeros--
					}
				} else {
					numzeros = 0
				}
				h.update(wpos, hashval, numzeros)
			}
		}
	}

	return out, nil
}
