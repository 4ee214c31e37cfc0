package flate

import "testing"

// kraftSum returns sum(2^(maxLen-len_i)) over present symbols; a valid
// prefix code has kraftSum <= 2^maxLen.
func kraftSum(lengths []int, maxLen int) int {
	sum := 0
	for _, l := range lengths {
		if l > 0 {
			sum += 1 << (maxLen - l)
		}
	}
	return sum
}

func TestCodeLengthsKraftAndLimit(t *testing.T) {
	tests := []struct {
		name   string
		freq   []uint32
		maxLen int
	}{
		{"uniform", []uint32{5, 5, 5, 5, 5, 5, 5, 5}, 15},
		{"skewed", []uint32{1, 1, 2, 4, 8, 16, 32, 64, 128, 256}, 15},
		{"tight limit", []uint32{1, 1, 2, 4, 8, 16, 32, 64, 128, 256}, 4},
		{"fibonacci", []uint32{1, 1, 2, 3, 5, 8, 13, 21, 34, 55, 89, 144}, 7},
		{"sparse", []uint32{0, 0, 7, 0, 0, 0, 3, 0, 0, 9, 0}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lengths, err := codeLengths(tt.freq, tt.maxLen)
			if err != nil {
				t.Fatalf("codeLengths: %v", err)
			}
			for i, l := range lengths {
				if tt.freq[i] > 0 && l == 0 {
					t.Errorf("present symbol %d got length 0", i)
				}
				if tt.freq[i] == 0 && l != 0 {
					t.Errorf("absent symbol %d got length %d", i, l)
				}
				if l > tt.maxLen {
					t.Errorf("symbol %d length %d exceeds limit %d", i, l, tt.maxLen)
				}
			}
			if got, max := kraftSum(lengths, tt.maxLen), 1<<tt.maxLen; got > max {
				t.Errorf("Kraft sum %d exceeds %d", got, max)
			}
		})
	}
}

func TestCodeLengthsOptimality(t *testing.T) {
	// With a generous limit the result must match the unconstrained
	// Huffman cost. freq {1,1,2,4} has optimal lengths {3,3,2,1},
	// weighted cost 1*3+1*3+2*2+4*1 = 14.
	lengths, err := codeLengths([]uint32{1, 1, 2, 4}, 15)
	if err != nil {
		t.Fatalf("codeLengths: %v", err)
	}
	cost := 0
	for i, f := range []uint32{1, 1, 2, 4} {
		cost += int(f) * lengths[i]
	}
	if cost != 14 {
		t.Errorf("weighted cost = %d, want 14 (lengths %v)", cost, lengths)
	}
}

func TestCodeLengthsBoundaryCases(t *testing.T) {
	// No present symbols: two symbols still get length 1.
	lengths, err := codeLengths(make([]uint32, 8), 15)
	if err != nil {
		t.Fatalf("codeLengths: %v", err)
	}
	if lengths[0] != 1 || lengths[1] != 1 {
		t.Errorf("empty histogram lengths = %v, want lengths[0]=lengths[1]=1", lengths)
	}

	// One present symbol: it and one companion get length 1.
	freq := make([]uint32, 8)
	freq[5] = 42
	lengths, err = codeLengths(freq, 15)
	if err != nil {
		t.Fatalf("codeLengths: %v", err)
	}
	if lengths[5] != 1 || lengths[0] != 1 {
		t.Errorf("single-symbol lengths = %v, want lengths[5]=lengths[0]=1", lengths)
	}
}

func TestCodeLengthsAlphabetTooLarge(t *testing.T) {
	freq := make([]uint32, 32)
	for i := range freq {
		freq[i] = uint32(i + 1)
	}
	if _, err := codeLengths(freq, 4); err != ErrAlphabetTooLarge {
		t.Errorf("err = %v, want ErrAlphabetTooLarge", err)
	}
}

func TestCodeLengthsLargeAlphabetTightLimit(t *testing.T) {
	// Stress the node pool's mark-and-sweep reclamation: a big alphabet
	// with a tight bit limit churns through many chain nodes.
	freq := make([]uint32, 286)
	for i := range freq {
		freq[i] = uint32(i%13 + 1)
	}
	lengths, err := codeLengths(freq, 9)
	if err != nil {
		t.Fatalf("codeLengths: %v", err)
	}
	if got, max := kraftSum(lengths, 9), 1<<9; got > max {
		t.Errorf("Kraft sum %d exceeds %d", got, max)
	}
	for i, l := range lengths {
		if l == 0 || l > 9 {
			t.Fatalf("symbol %d length %d out of range 1..9", i, l)
		}
	}
}
