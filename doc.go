// Package png implements a self-contained encoder and decoder for the
// PNG image format, including all compression logic the format needs:
// its own DEFLATE/INFLATE engine with length-limited Huffman code
// construction and an LZ77 hash-chain match finder, zlib framing with
// Adler-32, chunk framing with CRC-32, the five scanline filters with
// adaptive selection, Adam7 interlacing, and bit-exact conversion
// between all PNG color types and bit depths.
//
// Two API surfaces are offered. Decode, DecodeConfig and Encode follow
// the standard library's image codec conventions and work with
// image.Image values. The raw API (DecodeRaw, EncodeRaw, State) works
// with packed pixel buffers in any supported ColorMode, and exposes the
// compression layer (Inflate, Deflate, ZlibCompress, ZlibDecompress)
// and the color converter (Convert) standalone.
//
// The encoder picks the smallest lossless color mode automatically
// (greyscale, palette, RGB or RGBA at 1 to 16 bits) unless told
// otherwise, and emits only IHDR, PLTE, tRNS, IDAT and IEND chunks.
// The decoder skips unknown ancillary chunks.
package png
