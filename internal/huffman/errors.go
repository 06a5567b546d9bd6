package huffman

import "errors"

// Sentinel errors for the failure kinds named by the engine's contract.
// Callers match against these with errors.Is rather than string-sniffing.
var (
	// ErrCodeTooLong is returned when a block's symbol distribution is so
	// unbalanced that canonical code assignment would need more than 32
	// bits for a leaf.
	ErrCodeTooLong = errors.New("huffman: assigned code exceeds 32 bits")

	// ErrEmptyHistogram is returned when Compress is asked to build a tree
	// over a block with no symbols at all.
	ErrEmptyHistogram = errors.New("huffman: histogram has no symbols")

	// ErrMalformedBitstream is returned by Decompress when the declared
	// bit budget is exhausted without resolving a final code.
	ErrMalformedBitstream = errors.New("huffman: malformed bitstream")
)
