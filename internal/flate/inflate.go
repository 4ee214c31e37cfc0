package flate

import (
	"errors"

	"github.com/deepteams/png/internal/bitio"
)

// Errors from the inflater.
var (
	ErrOutOfInput            = errors.New("flate: input exhausted while inflating")
	ErrInvalidBlockType      = errors.New("flate: invalid block type 3")
	ErrNLENMismatch          = errors.New("flate: NLEN is not the ones complement of LEN in a stored block")
	ErrDynamicTreeOutOfInput = errors.New("flate: input exhausted while reading dynamic Huffman tree")
	ErrRepeatWithoutPrev     = errors.New("flate: repeat code in dynamic tree with no previous code length")
	ErrDynamicTreeOverflow   = errors.New("flate: repeat code in dynamic tree overflows the code count")
	ErrInvalidDistCode       = errors.New("flate: invalid distance code (30-31 are never used)")
	ErrDistanceTooFarBack    = errors.New("flate: back-reference distance exceeds output produced so far")
)

// Inflate decompresses a complete DEFLATE stream.
func Inflate(in []byte) ([]byte, error) {
	var out []byte
	r := bitio.NewReader(in)
	for {
		if !r.CanRead(3) {
			return nil, ErrOutOfInput
		}
		bfinal := r.ReadBit()
		btype := r.ReadBits(2)

		var err error
		switch btype {
		case 0:
			out, err = inflateStored(out, r, in)
		case 1, 2:
			out, err = inflateHuffmanBlock(out, r, int(btype))
		default:
			return nil, ErrInvalidBlockType
		}
		if err != nil {
			return nil, err
		}
		if bfinal == 1 {
			return out, nil
		}
	}
}

// inflateStored copies a stored (BTYPE=0) block: byte-align, then
// LEN and NLEN as 16-bit little-endian, then LEN raw bytes.
func inflateStored(out []byte, r *bitio.Reader, in []byte) ([]byte, error) {
	r.AlignToByte()
	p := r.BytePos()

	if p+4 > len(in) {
		return out, ErrOutOfInput
	}
	length := int(in[p]) + 256*int(in[p+1])
	nlen := int(in[p+2]) + 256*int(in[p+3])
	if length+nlen != 65535 {
		return out, ErrNLENMismatch
	}

	if p+4+length > len(in) {
		return out, ErrOutOfInput
	}
	out = append(out, in[p+4:p+4+length]...)
	r.SkipBytes(4 + length)
	return out, nil
}

// readDynamicTrees reads the compressed Huffman tree description of a
// dynamic block and builds the lit/len and distance trees.
func readDynamicTrees(r *bitio.Reader) (treeLL, treeD *huffmanTree, err error) {
	if !r.CanRead(14) {
		return nil, nil, ErrDynamicTreeOutOfInput
	}
	// RFC 1951 stores these minus 257, 1, and 4; fold the offsets in
	// right away.
	hlit := int(r.ReadBits(5)) + 257
	hdist := int(r.ReadBits(5)) + 1
	hclen := int(r.ReadBits(4)) + 4

	if !r.CanRead(hclen * 3) {
		return nil, nil, ErrDynamicTreeOutOfInput
	}
	bitlenCL := make([]int, NumCodeLengthCodes)
	for i := 0; i < hclen; i++ {
		bitlenCL[clclOrder[i]] = int(r.ReadBits(3))
	}
	treeCL, err := newTreeFromLengths(bitlenCL, maxBitLenCL)
	if err != nil {
		return nil, nil, err
	}

	bitlenLL := make([]int, NumDeflateCodeSymbols)
	bitlenD := make([]int, NumDistanceSymbols)

	setLength := func(i, value int) {
		if i < hlit {
			bitlenLL[i] = value
		} else {
			bitlenD[i-hlit] = value
		}
	}

	i := 0
	for i < hlit+hdist {
		code, err := treeCL.decodeSymbol(r)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case code <= 15: // literal code length
			setLength(i, code)
			i++
		case code == 16: // repeat previous length 3-6 times
			if i == 0 {
				return nil, nil, ErrRepeatWithoutPrev
			}
			if !r.CanRead(2) {
				return nil, nil, ErrDynamicTreeOutOfInput
			}
			replength := 3 + int(r.ReadBits(2))
			value := 0
			if i < hlit+1 {
				value = bitlenLL[i-1]
			} else {
				value = bitlenD[i-hlit-1]
			}
			for n := 0; n < replength; n++ {
				if i >= hlit+hdist {
					return nil, nil, ErrDynamicTreeOverflow
				}
				setLength(i, value)
				i++
			}
		case code == 17: // repeat zero 3-10 times
			if !r.CanRead(3) {
				return nil, nil, ErrDynamicTreeOutOfInput
			}
			replength := 3 + int(r.ReadBits(3))
			for n := 0; n < replength; n++ {
				if i >= hlit+hdist {
					return nil, nil, ErrDynamicTreeOverflow
				}
				setLength(i, 0)
				i++
			}
		default: // code == 18: repeat zero 11-138 times
			if !r.CanRead(7) {
				return nil, nil, ErrDynamicTreeOutOfInput
			}
			replength := 11 + int(r.ReadBits(7))
			for n := 0; n < replength; n++ {
				if i >= hlit+hdist {
					return nil, nil, ErrDynamicTreeOverflow
				}
				setLength(i, 0)
				i++
			}
		}
	}

	if bitlenLL[256] == 0 {
		return nil, nil, ErrEmptyEndCode
	}

	if treeLL, err = newTreeFromLengths(bitlenLL, maxBitLen); err != nil {
		return nil, nil, err
	}
	if treeD, err = newTreeFromLengths(bitlenD, maxBitLen); err != nil {
		return nil, nil, err
	}
	return treeLL, treeD, nil
}

// inflateHuffmanBlock decodes one fixed (BTYPE=1) or dynamic (BTYPE=2)
// block into out.
func inflateHuffmanBlock(out []byte, r *bitio.Reader, btype int) ([]byte, error) {
	var treeLL, treeD *huffmanTree
	var err error
	if btype == 1 {
		treeLL, treeD = fixedLitLenTree, fixedDistanceTree
	} else {
		if treeLL, treeD, err = readDynamicTrees(r); err != nil {
			return out, err
		}
	}

	for {
		codeLL, err := treeLL.decodeSymbol(r)
		if err != nil {
			return out, err
		}
		switch {
		case codeLL <= 255: // literal
			out = append(out, byte(codeLL))

		case codeLL >= FirstLengthCodeIndex && codeLL <= LastLengthCodeIndex:
			length := lengthBase[codeLL-FirstLengthCodeIndex]
			numExtraL := lengthExtra[codeLL-FirstLengthCodeIndex]
			if !r.CanRead(numExtraL) {
				return out, ErrOutOfInput
			}
			length += int(r.ReadBits(numExtraL))

			codeD, err := treeD.decodeSymbol(r)
			if err != nil {
				return out, err
			}
			if codeD > 29 {
				return out, ErrInvalidDistCode
			}
			distance := distanceBase[codeD]
			numExtraD := distanceExtra[codeD]
			if !r.CanRead(numExtraD) {
				return out, ErrOutOfInput
			}
			distance += int(r.ReadBits(numExtraD))

			start := len(out)
			if distance > start {
				return out, ErrDistanceTooFarBack
			}
			backward := start - distance
			if distance < length {
				// Overlapping copy must run byte by byte so already
				// written output feeds the copy.
				for i := 0; i < length; i++ {
					out = append(out, out[backward+i])
				}
			} else {
				out = append(out, out[backward:backward+length]...)
			}

		case codeLL == 256: // end of block
			return out, nil

		default: // 286-287 exist in no valid stream
			return out, ErrInvalidTreeJump
		}
	}
}
