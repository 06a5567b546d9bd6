package huffman

// SymbolCode is one (symbol, code) entry as carried on the wire: the
// parallel-array representation of a leaf that the frame codec
// serializes and the decompressor rebuilds a lookup table from.
type SymbolCode struct {
	Symbol byte
	Bits   uint32
	Blen   uint8
}

// Encoded is the result of compressing one block: the packed bit
// buffer, its authoritative bit length, the per-symbol code table, and
// the tree/dictionary that produced it (kept so the block can inspect
// or discard them independently of the packed bytes).
type Encoded struct {
	ZData      []byte
	ZDataSize  uint32
	Table      []SymbolCode
	Tree       *Node
	Dictionary [DictSize]*Node
}

// Compress builds a histogram over raw, constructs its Huffman tree,
// assigns canonical codes, and packs raw into a bit-exact buffer.
func Compress(raw []byte) (*Encoded, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyHistogram
	}

	var hist [DictSize]uint32
	for _, b := range raw {
		hist[b]++
	}

	var dict [DictSize]*Node
	for sym, freq := range hist {
		if freq == 0 {
			continue
		}
		dict[sym] = &Node{Freq: freq, Code: byte(sym)}
	}

	root, err := BuildTree(dict)
	if err != nil {
		return nil, err
	}
	totalBits, err := AssignCodes(root)
	if err != nil {
		return nil, err
	}

	zdata := make([]byte, (totalBits+7)/8)
	packBits(raw, dict, zdata)

	table := make([]SymbolCode, 0, DictSize)
	for sym, leaf := range dict {
		if leaf == nil {
			continue
		}
		table = append(table, SymbolCode{Symbol: byte(sym), Bits: leaf.Bits, Blen: leaf.Blen})
	}

	return &Encoded{
		ZData:      zdata,
		ZDataSize:  uint32(totalBits),
		Table:      table,
		Tree:       root,
		Dictionary: dict,
	}, nil
}

// packBits is the MSB-first bit packer from spec.md §4.4. The
// accumulator is widened to 64 bits (the spec's description uses 32):
// after draining to fewer than 8 pending bits, a single code of up to
// 32 bits can push the pending count to 39, which a 32-bit register
// cannot hold without silently dropping the oldest bits. 64 bits gives
// headroom (7 pending + 32 new = 39, well under 64) while leaving the
// algorithm itself — and the bit-count invariant it must satisfy —
// unchanged.
func packBits(raw []byte, dict [DictSize]*Node, zdata []byte) {
	var acc uint64
	var shift uint
	pos := 0

	for _, b := range raw {
		leaf := dict[b]
		acc = ((acc & widthMask(shift)) << uint(leaf.Blen)) | uint64(leaf.Bits)
		shift += uint(leaf.Blen)
		for shift >= 8 {
			zdata[pos] = byte((acc >> (shift - 8)) & 0xFF)
			pos++
			shift -= 8
		}
	}
	if shift > 0 {
		remaining := acc & widthMask(shift)
		zdata[pos] = byte(remaining << (8 - shift))
	}
}

func widthMask(n uint) uint64 {
	if n == 0 {
		return 0
	}
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// codeHash derives the flat lookup key for a (bits, blen) code as
// described in spec.md §4.5: an infinite run of 1-bits shifted so that
// a single 0 bit sits just above the code's most significant bit, with
// the code's own bits OR'd in below it. The reference implementation
// truncates this to a small HASHMASK (20 bits, good for blen ≤ 15) and
// indexes a fixed array; here the key is carried as a full uint64 and
// used against a map, which sidesteps the HASHMASK/blen tradeoff
// entirely (blen up to the supported 32 bits never collides) at the
// cost of a map lookup instead of an array index — the "enlarge the
// hash" option the design notes call out, taken to its natural limit.
func codeHash(bits uint32, blen uint8) uint64 {
	h := ^uint64(0) << (uint(blen) + 1)
	h |= uint64(bits)
	return h
}

// hashEntry is one resolved code in the decompressor's flat lookup
// table.
type hashEntry struct {
	symbol byte
	blen   uint8
}

// buildLookup constructs the flat prefix table from a block's wire
// table, matching spec.md §4.5.
func buildLookup(table []SymbolCode) map[uint64]hashEntry {
	lookup := make(map[uint64]hashEntry, len(table))
	for _, sc := range table {
		lookup[codeHash(sc.Bits, sc.Blen)] = hashEntry{symbol: sc.Symbol, blen: sc.Blen}
	}
	return lookup
}

// Decompress unpacks zdataSize meaningful bits from zdata using the
// code table, resolving symbols via the flat hash lookup as described
// in spec.md §4.5.
func Decompress(table []SymbolCode, zdataSize uint32, zdata []byte) ([]byte, error) {
	lookup := buildLookup(table)

	out := make([]byte, 0, zdataSize/8+1)
	var bits uint64
	var shift uint
	var consumed uint32

	for consumed < zdataSize {
		byteIdx := consumed / 8
		bitIdx := 7 - (consumed % 8)
		bit := (zdata[byteIdx] >> bitIdx) & 1

		bits = (bits << 1) | uint64(bit)
		shift++
		consumed++

		if shift > 64 {
			return nil, ErrMalformedBitstream
		}

		if entry, ok := lookup[codeHash(uint32(bits), uint8(shift))]; ok && int(entry.blen) == int(shift) {
			out = append(out, entry.symbol)
			bits = 0
			shift = 0
		}
	}

	if shift != 0 {
		return nil, ErrMalformedBitstream
	}

	return out, nil
}
