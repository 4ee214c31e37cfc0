package flate

import "errors"

// Errors from the zlib container layer.
var (
	ErrZlibTooSmall    = errors.New("flate: zlib data smaller than the 2-byte header")
	ErrBadFCheck       = errors.New("flate: invalid FCHECK in zlib header")
	ErrBadMethod       = errors.New("flate: zlib compression method or window size not usable for PNG")
	ErrDictNotAllowed  = errors.New("flate: zlib preset dictionary not allowed")
)

// ZlibDecompress strips the RFC 1950 container and inflates the
// payload. The trailing Adler-32 is not verified.
func ZlibDecompress(in []byte) ([]byte, error) {
	if len(in) < 2 {
		return nil, ErrZlibTooSmall
	}
	if (uint32(in[0])*256+uint32(in[1]))%31 != 0 {
		// FCHECK is defined to make CMF*256+FLG a multiple of 31.
		return nil, ErrBadFCheck
	}

	cm := in[0] & 15
	cinfo := (in[0] >> 4) & 15
	fdict := (in[1] >> 5) & 1

	if cm != 8 || cinfo > 7 {
		// Only method 8 with a window up to 32K is valid in PNG.
		return nil, ErrBadMethod
	}
	if fdict != 0 {
		return nil, ErrDictNotAllowed
	}

	return Inflate(in[2:])
}

// ZlibCompress deflates in and wraps it in the RFC 1950 container:
// CMF/FLG header, deflate data, big-endian Adler-32 of the
// uncompressed input.
func ZlibCompress(in []byte, o *Options) ([]byte, error) {
	deflated, err := Deflate(in, o)
	if err != nil {
		return nil, err
	}

	// CMF 0x78: method 8, CINFO 7 (any window up to 32768 fits).
	const cmf = 120
	cmfflg := uint32(256 * cmf)
	fcheck := 31 - cmfflg%31
	cmfflg += fcheck

	out := make([]byte, 0, len(deflated)+6)
	out = append(out, byte(cmfflg>>8), byte(cmfflg&255))
	out = append(out, deflated...)

	adler := Adler32(in)
	out = append(out, byte(adler>>24), byte(adler>>16), byte(adler>>8), byte(adler))
	return out, nil
}
