package main

import (
	"bytes"
	"image"
	"testing"

	"github.com/deepteams/png"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"photo.jpg", ".png", "photo.png"},
		{"dir/image.gif", ".png", "dir/image.png"},
		{"noext", ".png", "noext.png"},
		{"-", ".png", "-"},
	}
	for _, tt := range tests {
		if got := replaceExt(tt.in, tt.ext); got != tt.want {
			t.Errorf("replaceExt(%q, %q) = %q, want %q", tt.in, tt.ext, got, tt.want)
		}
	}
}

func TestDecodeAnyPNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, format, err := decodeAny(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeAny: %v", err)
	}
	if format != "png" {
		t.Errorf("format = %q, want png", format)
	}
	if b := decoded.Bounds(); b.Dx() != 3 || b.Dy() != 3 {
		t.Errorf("bounds = %v, want 3x3", b)
	}
}
