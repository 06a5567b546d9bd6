package huffman

// DictSize is the number of distinct byte values a block's dictionary
// is indexed by.
const DictSize = 256

// Node is one entry in a Huffman tree: a leaf carrying a symbol's
// frequency and assigned code, or an internal node summing its
// children's frequencies. A node is a leaf iff both Left and Right are
// nil.
type Node struct {
	Freq uint32 // symbol frequency (leaf) or sum of children (internal)
	Code byte   // the 8-bit symbol; meaningful only on leaves
	Bits uint32 // assigned code word, right-justified
	Blen uint8  // bit length of Bits, in [1, 32] once assigned

	Parent      *Node // weak back-reference, not owning
	Left, Right *Node // owning
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// BuildTree constructs a Huffman tree from a 256-slot dictionary of
// optional leaves (nil slots are symbols absent from the block). It
// implements the canonical priority-queue merge: pop the two lowest
// frequency entries, graft them under a fresh internal node, and push
// it back, until one root remains.
//
// A block with exactly one distinct symbol has no natural code (a
// single leaf has no edges to number). Rather than leave that block
// undecodable, BuildTree pairs the lone leaf with a zero-frequency
// sentinel leaf so the ordinary code-assignment pass still produces a
// usable blen=1 code; this is the one deliberate deviation from the
// reference construction, which does not handle that case.
func BuildTree(dict [DictSize]*Node) (*Node, error) {
	pq := newPQueue()
	count := 0
	for _, leaf := range dict {
		if leaf == nil {
			continue
		}
		pq.Insert(leaf)
		count++
	}
	if count == 0 {
		return nil, ErrEmptyHistogram
	}
	if count == 1 {
		// Sentinel leaf is never looked up by symbol value; it exists
		// purely to give the lone real leaf an edge to number.
		pq.Insert(&Node{Freq: 0})
	}

	for pq.Len() >= 2 {
		first := pq.PopMin()  // lowest frequency, goes right
		second := pq.PopMin() // next lowest, goes left
		internal := &Node{
			Freq:  first.Freq + second.Freq,
			Left:  second,
			Right: first,
		}
		second.Parent = internal
		first.Parent = internal
		pq.Insert(internal)
	}

	return pq.PopMin(), nil
}

// AssignCodes walks the tree assigning canonical, prefix-free codes to
// every leaf: left descent appends a 0 bit, right descent a 1 bit. It
// returns the total compressed size in bits (the sum of freq*blen over
// all leaves), or ErrCodeTooLong if any leaf would need a code longer
// than 32 bits.
func AssignCodes(root *Node) (uint64, error) {
	return assignCodes(root, 0, 0)
}

func assignCodes(n *Node, level int, bits uint64) (uint64, error) {
	if n.IsLeaf() {
		blen := level
		if blen < 1 {
			blen = 1
		}
		if blen > 32 {
			return 0, ErrCodeTooLong
		}
		n.Blen = uint8(blen)
		n.Bits = uint32(bits)
		return uint64(n.Freq) * uint64(blen), nil
	}

	leftBits, err := assignCodes(n.Left, level+1, bits<<1)
	if err != nil {
		return 0, err
	}
	rightBits, err := assignCodes(n.Right, level+1, (bits<<1)|1)
	if err != nil {
		return 0, err
	}
	return leftBits + rightBits, nil
}
