package pool

import "testing"

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{0, 0}, {1, 0}, {256, 0}, {257, 1}, {1024, 1},
		{4096, 2}, {65536, 4}, {262144, 5}, {1 << 21, 6},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.size); got != tt.want {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestGetPutRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 100, 256, 1000, 70000} {
		b := Get(size)
		if len(b) != size {
			t.Fatalf("Get(%d) returned len %d", size, len(b))
		}
		for i := range b {
			if b[i] != 0 {
				t.Fatalf("Get(%d) returned dirty buffer at %d", size, i)
			}
			b[i] = 0xff
		}
		Put(b)
	}

	// A reused buffer must come back zeroed.
	b := Get(512)
	for i := range b {
		if b[i] != 0 {
			t.Fatalf("reused buffer not zeroed at %d", i)
		}
	}
	Put(b)
}
