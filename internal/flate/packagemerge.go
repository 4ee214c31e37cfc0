package flate

import "sort"

// Length-limited Huffman code lengths via boundary package-merge
// ("A Fast and Space-Economical Algorithm for Length-Limited Coding",
// Katajainen, Moffat, Turpin, 1995).
//
// Chain nodes live in a fixed-size arena addressed by integer index,
// with -1 as the nil tail. When the arena is exhausted, nodes still
// reachable from the lookahead chains are marked and the rest swept
// back onto the free list.

// bpmNil is the empty tail marker.
const bpmNil = int32(-1)

// bpmNode is one chain node: a cumulative weight and the number of
// leaves accounted for so far ("count" in the paper).
type bpmNode struct {
	weight int
	index  int
	tail   int32
	inUse  bool
}

// bpmLeaf is a present symbol with its frequency.
type bpmLeaf struct {
	weight int
	symbol int
}

// bpmLists holds the node arena and the two lookahead chain heads of
// each of the maxLen lists.
type bpmLists struct {
	memory   []bpmNode
	freelist []int32
	nextFree int
	chains0  []int32
	chains1  []int32
}

// create allocates a chain node from the arena, garbage collecting
// unreachable nodes first when the arena is saturated.
func (l *bpmLists) create(weight, index int, tail int32) int32 {
	if l.nextFree >= len(l.freelist) {
		for i := range l.memory {
			l.memory[i].inUse = false
		}
		for i := range l.chains0 {
			for n := l.chains0[i]; n != bpmNil; n = l.memory[n].tail {
				l.memory[n].inUse = true
			}
			for n := l.chains1[i]; n != bpmNil; n = l.memory[n].tail {
				l.memory[n].inUse = true
			}
		}
		l.freelist = l.freelist[:0]
		for i := range l.memory {
			if !l.memory[i].inUse {
				l.freelist = append(l.freelist, int32(i))
			}
		}
		l.nextFree = 0
	}
	n := l.freelist[l.nextFree]
	l.nextFree++
	l.memory[n] = bpmNode{weight: weight, index: index, tail: tail}
	return n
}

// boundaryPM performs one package-merge step on list c: it replaces the
// older lookahead chain with a new one, which is either the next leaf
// or a package of the two chain heads of list c-1.
func boundaryPM(l *bpmLists, leaves []bpmLeaf, c, num int) {
	lastIndex := l.memory[l.chains1[c]].index

	if c == 0 {
		if lastIndex >= len(leaves) {
			return
		}
		l.chains0[c] = l.chains1[c]
		l.chains1[c] = l.create(leaves[lastIndex].weight, lastIndex+1, bpmNil)
		return
	}

	sum := l.memory[l.chains0[c-1]].weight + l.memory[l.chains1[c-1]].weight
	l.chains0[c] = l.chains1[c]
	if lastIndex < len(leaves) && sum > leaves[lastIndex].weight {
		l.chains1[c] = l.create(leaves[lastIndex].weight, lastIndex+1, l.memory[l.chains1[c]].tail)
		return
	}
	l.chains1[c] = l.create(sum, lastIndex, l.chains1[c-1])
	// Only the final list's chain matters in the end, so the recursion
	// can stop early on the very last step.
	if num+1 < 2*len(leaves)-2 {
		boundaryPM(l, leaves, c-1, num)
		boundaryPM(l, leaves, c-1, num)
	}
}

// codeLengths returns optimal prefix-code lengths for the given symbol
// frequencies, none exceeding maxLen. Symbols with zero frequency get
// length 0. At least two symbols always receive a code: some decoders
// reject trees with fewer.
func codeLengths(frequencies []uint32, maxLen int) ([]int, error) {
	numCodes := len(frequencies)
	if numCodes == 0 {
		return nil, ErrAlphabetTooLarge
	}
	if 1<<maxLen < numCodes {
		return nil, ErrAlphabetTooLarge
	}

	lengths := make([]int, numCodes)
	leaves := make([]bpmLeaf, 0, numCodes)
	for i, f := range frequencies {
		if f > 0 {
			leaves = append(leaves, bpmLeaf{weight: int(f), symbol: i})
		}
	}

	switch len(leaves) {
	case 0:
		// RFC 1951 section 3.2.7 needs only one symbol, but some
		// decoders insist on two.
		lengths[0] = 1
		if numCodes > 1 {
			lengths[1] = 1
		}
		return lengths, nil
	case 1:
		lengths[leaves[0].symbol] = 1
		if numCodes > 1 {
			if leaves[0].symbol == 0 {
				lengths[1] = 1
			} else {
				lengths[0] = 1
			}
		}
		return lengths, nil
	}

	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].weight < leaves[j].weight
	})

	memSize := 2 * maxLen * (maxLen + 1)
	l := &bpmLists{
		memory:   make([]bpmNode, memSize),
		freelist: make([]int32, memSize),
		chains0:  make([]int32, maxLen),
		chains1:  make([]int32, maxLen),
	}
	for i := range l.freelist {
		l.freelist[i] = int32(i)
	}

	l.create(leaves[0].weight, 1, bpmNil)
	l.create(leaves[1].weight, 2, bpmNil)
	for i := range l.chains0 {
		l.chains0[i] = 0
		l.chains1[i] = 1
	}

	// Each step appends one chain to the last list; 2*n-2 chains are
	// needed in total and two already exist.
	for i := 2; i < 2*len(leaves)-2; i++ {
		boundaryPM(l, leaves, maxLen-1, i)
	}

	for n := l.chains1[maxLen-1]; n != bpmNil; n = l.memory[n].tail {
		for i := 0; i < l.memory[n].index; i++ {
			lengths[leaves[i].symbol]++
		}
	}
	return lengths, nil
}
