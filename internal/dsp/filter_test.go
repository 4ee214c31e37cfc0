package dsp

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestPaeth(t *testing.T) {
	tests := []struct {
		a, b, c, want byte
	}{
		{0, 0, 0, 0},
		{10, 20, 10, 20}, // p = 20, closest is b
		{20, 10, 10, 20}, // p = 20, closest is a
		{10, 10, 20, 10}, // tie between a and b resolves to a
		{255, 255, 0, 255},
		{1, 2, 3, 1}, // p = 0: |p-a|=1, |p-b|=2, |p-c|=3 -> a
	}
	for _, tt := range tests {
		if got := paeth(tt.a, tt.b, tt.c); got != tt.want {
			t.Errorf("paeth(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.c, got, tt.want)
		}
	}
}

func TestFilterInversionPerType(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	row := make([]byte, 31)
	prev := make([]byte, 31)
	rng.Read(row)
	rng.Read(prev)

	for _, bytewidth := range []int{1, 2, 3, 4, 8} {
		for typ := byte(0); typ < 5; typ++ {
			filtered := make([]byte, len(row))
			recon := make([]byte, len(row))

			// With a previous row.
			filterScanline(filtered, row, prev, bytewidth, typ)
			if err := unfilterScanline(recon, filtered, prev, bytewidth, typ); err != nil {
				t.Fatalf("unfilterScanline: %v", err)
			}
			if !bytes.Equal(recon, row) {
				t.Errorf("bytewidth %d type %d: inversion failed with prev row", bytewidth, typ)
			}

			// First row: no previous.
			filterScanline(filtered, row, nil, bytewidth, typ)
			if err := unfilterScanline(recon, filtered, nil, bytewidth, typ); err != nil {
				t.Fatalf("unfilterScanline: %v", err)
			}
			if !bytes.Equal(recon, row) {
				t.Errorf("bytewidth %d type %d: inversion failed without prev row", bytewidth, typ)
			}
		}
	}
}

func TestUnfilterRejectsBadType(t *testing.T) {
	if err := unfilterScanline(make([]byte, 4), make([]byte, 4), nil, 1, 5); err != ErrFilterType {
		t.Errorf("err = %v, want ErrFilterType", err)
	}
}

func filterRoundTrip(t *testing.T, w, h, bpp int, strategy Strategy) {
	t.Helper()
	linebytes := (w*bpp + 7) / 8
	in := make([]byte, h*linebytes)
	rng := rand.New(rand.NewSource(int64(w*1000 + h*10 + bpp)))
	rng.Read(in)

	filtered := make([]byte, h*(linebytes+1))
	if err := Filter(filtered, in, w, h, bpp, strategy); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	out := make([]byte, h*linebytes)
	if err := Unfilter(out, filtered, w, h, bpp); err != nil {
		t.Fatalf("Unfilter: %v", err)
	}
	if !bytes.Equal(out, in) {
		t.Fatalf("w=%d h=%d bpp=%d strategy=%d: round trip mismatch", w, h, bpp, strategy)
	}
}

func TestFilterRoundTrip(t *testing.T) {
	for _, strategy := range []Strategy{StrategyZero, StrategyMinsum, StrategyEntropy} {
		filterRoundTrip(t, 13, 7, 24, strategy)
		filterRoundTrip(t, 1, 1, 32, strategy)
		filterRoundTrip(t, 5, 9, 8, strategy)
		filterRoundTrip(t, 17, 3, 4, strategy)
		filterRoundTrip(t, 16, 16, 64, strategy)
	}
}

func TestFilterZeroStrategyEmitsTypeZero(t *testing.T) {
	w, h, bpp := 4, 3, 8
	in := []byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}
	out := make([]byte, h*(w+1))
	if err := Filter(out, in, w, h, bpp, StrategyZero); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	for y := 0; y < h; y++ {
		if out[y*(w+1)] != 0 {
			t.Errorf("row %d filter type = %d, want 0", y, out[y*(w+1)])
		}
	}
}

func TestFilterMinsumPrefersSub(t *testing.T) {
	// A smooth horizontal ramp compresses to tiny Sub residuals.
	w, h := 64, 1
	in := make([]byte, w)
	for i := range in {
		in[i] = byte(i * 3)
	}
	out := make([]byte, h*(w+1))
	if err := Filter(out, in, w, h, 8, StrategyMinsum); err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if out[0] == 0 {
		t.Error("minsum chose filter 0 for a ramp row")
	}
}

func TestFilterUnknownStrategy(t *testing.T) {
	if err := Filter(make([]byte, 2), make([]byte, 1), 1, 1, 8, Strategy(9)); err != ErrFilterStrategy {
		t.Errorf("err = %v, want ErrFilterStrategy", err)
	}
}
