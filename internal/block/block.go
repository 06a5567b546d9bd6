// Package block implements the unit of work shared across the
// pipeline's reader, workers, and writer: a Block carrying either raw
// or compressed bytes through a small state machine, and a Bounded
// FIFO of blocks used to hand work between goroutines while
// preserving input order.
package block

import (
	"sync/atomic"

	"github.com/d4s/chw/internal/huffman"
)

// State is one stage of a Block's lifecycle.
type State int32

const (
	// StateEmpty is the zero value: no buffers allocated yet.
	StateEmpty State = iota
	// StateRawReady holds raw bytes awaiting compression.
	StateRawReady
	// StateZDataReady holds compressed bytes awaiting decompression.
	StateZDataReady
	// StateProcessing is exclusively owned by one worker; no other
	// goroutine may pop or inspect it.
	StateProcessing
	// StateReady holds a block's final output representation.
	StateReady
	// StateError marks a block whose worker failed; the writer drains
	// it like StateReady but surfaces the error.
	StateError
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateRawReady:
		return "RAW_READY"
	case StateZDataReady:
		return "ZDATA_READY"
	case StateProcessing:
		return "PROCESSING"
	case StateReady:
		return "READY"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Block is the unit of compression: it owns its raw buffer, its
// packed bit buffer, the Huffman tree built for it, and a 256-slot
// dictionary aliasing that tree's leaves. next/prev are reserved for
// whichever FIFO currently holds the block.
type Block struct {
	state int32

	Raw []byte

	ZData     []byte
	ZDataSize uint32

	Table      []huffman.SymbolCode
	Tree       *huffman.Node
	Dictionary [huffman.DictSize]*huffman.Node

	// Seq is the block's position in the input stream, assigned by the
	// reader. It is not required for correctness (the FIFO's strict
	// head-only pop already preserves order) but is useful for tests
	// and diagnostics.
	Seq uint64

	Err error

	next, prev *Block
}

// NewRaw creates a block holding a copy of data in StateRawReady.
func NewRaw(data []byte) *Block {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Block{Raw: buf, state: int32(StateRawReady)}
}

// NewZData creates a block holding a copy of zdata in StateZDataReady,
// carrying the code table parsed from its frame.
func NewZData(zdata []byte, zdataSize uint32, table []huffman.SymbolCode) *Block {
	buf := make([]byte, len(zdata))
	copy(buf, zdata)
	return &Block{ZData: buf, ZDataSize: zdataSize, Table: table, state: int32(StateZDataReady)}
}

// NewEmpty creates a block with no buffers, in StateEmpty.
func NewEmpty() *Block {
	return &Block{state: int32(StateEmpty)}
}

// GetState atomically reads the block's state.
func (b *Block) GetState() State {
	return State(atomic.LoadInt32(&b.state))
}

// SetState atomically writes the block's state.
func (b *Block) SetState(s State) {
	atomic.StoreInt32(&b.state, int32(s))
}

// compareAndSwapState is used by the FIFO's claim operation to
// transition a block out of a scanned state atomically with the scan
// itself.
func (b *Block) compareAndSwapState(old, new State) bool {
	return atomic.CompareAndSwapInt32(&b.state, int32(old), int32(new))
}

// Compress runs the Huffman codec over b.Raw and transitions the
// block to StateReady (or StateError on failure). b must be
// StateProcessing when this is called.
func (b *Block) Compress() {
	enc, err := huffman.Compress(b.Raw)
	if err != nil {
		b.Err = err
		b.SetState(StateError)
		return
	}
	b.ZData = enc.ZData
	b.ZDataSize = enc.ZDataSize
	b.Table = enc.Table
	b.Tree = enc.Tree
	b.Dictionary = enc.Dictionary
	b.SetState(StateReady)
}

// Decompress runs the Huffman codec's inverse over b.ZData and
// transitions the block to StateReady (or StateError on failure). b
// must be StateProcessing when this is called.
func (b *Block) Decompress() {
	raw, err := huffman.Decompress(b.Table, b.ZDataSize, b.ZData)
	if err != nil {
		b.Err = err
		b.SetState(StateError)
		return
	}
	b.Raw = raw
	b.SetState(StateReady)
}

// Destroy releases b's buffers and tree. In Go this just drops
// references for the garbage collector, but it preserves the explicit
// lifecycle boundary the spec describes: after Destroy, b must not be
// reused.
func (b *Block) Destroy() {
	b.Raw = nil
	b.ZData = nil
	b.Table = nil
	b.Tree = nil
	for i := range b.Dictionary {
		b.Dictionary[i] = nil
	}
}
