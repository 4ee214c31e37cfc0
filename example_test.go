package png_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log"

	"github.com/deepteams/png"
)

func Example() {
	// Draw a small checkerboard and encode it.
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if (x+y)%2 == 0 {
				c = color.NRGBA{0, 0, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img, nil); err != nil {
		log.Fatal(err)
	}

	decoded, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		log.Fatal(err)
	}
	bounds := decoded.Bounds()
	fmt.Println(bounds.Dx(), "x", bounds.Dy())
	// Output: 8 x 8
}

func ExampleEncodeRaw() {
	// Encode a 2x2 RGBA byte buffer directly; the encoder picks the
	// smallest color mode by itself.
	pixels := []byte{
		255, 0, 0, 255 /**/, 0, 255, 0, 255,
		0, 0, 255, 255 /**/, 255, 255, 255, 255,
	}
	data, err := png.EncodeRaw(pixels, 2, 2, png.RGBA, 8)
	if err != nil {
		log.Fatal(err)
	}

	out, w, h, err := png.DecodeRaw(data, png.RGBA, 8)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(w, h, bytes.Equal(pixels, out))
	// Output: 2 2 true
}

func ExampleZlibCompress() {
	data := bytes.Repeat([]byte("banana "), 100)
	compressed, err := png.ZlibCompress(data, nil)
	if err != nil {
		log.Fatal(err)
	}
	restored, err := png.ZlibDecompress(compressed)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(compressed) < len(data), bytes.Equal(data, restored))
	// Output: true true
}
