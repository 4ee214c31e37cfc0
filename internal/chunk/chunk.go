// Package chunk reads and writes the 12-byte-framed chunks of a PNG
// stream: a 31-bit big-endian length, a 4-byte type, the payload, and a
// CRC-32 covering type and payload.
package chunk

import (
	"encoding/binary"
	"errors"
)

// Overhead is the number of framing bytes around a chunk's payload.
const Overhead = 12

// MaxLength is the largest payload the format allows (31 bits).
const MaxLength = 1<<31 - 1

// Errors from chunk parsing.
var (
	ErrOverrunsBuffer = errors.New("chunk: chunk overruns its buffer")
	ErrLengthTooLarge = errors.New("chunk: chunk length exceeds 2^31-1")
)

// Chunk is a parsed view into a PNG stream. Data aliases the stream
// buffer and must not be modified.
type Chunk struct {
	Type string
	Data []byte
	crc  uint32
}

// Critical reports whether the chunk is critical (uppercase first type
// letter). Unknown ancillary chunks may be skipped; unknown critical
// chunks mean the image cannot be decoded faithfully.
func (c Chunk) Critical() bool {
	return len(c.Type) == 4 && c.Type[0]&0x20 == 0
}

// VerifyCRC reports whether the stored CRC matches the chunk contents.
func (c Chunk) VerifyCRC() bool {
	state := CRC32Update(^uint32(0), []byte(c.Type))
	return CRC32Update(state, c.Data)^0xffffffff == c.crc
}

// Append appends one framed chunk to out and returns the extended
// slice. The CRC is computed over the type and payload.
func Append(out []byte, ctype string, data []byte) []byte {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:], ctype)
	out = append(out, header[:]...)
	out = append(out, data...)

	state := CRC32Update(^uint32(0), []byte(ctype))
	crc := CRC32Update(state, data) ^ 0xffffffff
	var trailer [4]byte
	binary.BigEndian.PutUint32(trailer[:], crc)
	return append(out, trailer[:]...)
}

// Reader iterates over the chunks of a buffer. The PNG signature must
// already have been consumed by the caller.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader over buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// More reports whether a complete 12-byte frame could still follow.
func (r *Reader) More() bool {
	return r.pos+Overhead <= len(r.buf)
}

// Next parses the chunk at the cursor and advances past it.
func (r *Reader) Next() (Chunk, error) {
	if r.pos+Overhead > len(r.buf) {
		return Chunk{}, ErrOverrunsBuffer
	}
	length := binary.BigEndian.Uint32(r.buf[r.pos:])
	if length > MaxLength {
		return Chunk{}, ErrLengthTooLarge
	}
	end := r.pos + Overhead + int(length)
	if end > len(r.buf) {
		return Chunk{}, ErrOverrunsBuffer
	}
	c := Chunk{
		Type: string(r.buf[r.pos+4 : r.pos+8]),
		Data: r.buf[r.pos+8 : r.pos+8+int(length)],
		crc:  binary.BigEndian.Uint32(r.buf[r.pos+8+int(length):]),
	}
	r.pos = end
	return c, nil
}
