// Package frame implements the on-wire record for one compressed
// block: a self-describing, length-prefixed message carrying the
// block's code table and packed payload.
//
// The record is encoded with the protobuf wire format via
// google.golang.org/protobuf/encoding/protowire — the low-level
// encoder the generated code for a message like
//
//	message Frame {
//	  uint32 bits_len = 1;
//	  repeated uint32 symbols_table = 2 [packed = true];
//	  repeated uint32 lengths_table = 3 [packed = true];
//	  repeated uint32 codes_table   = 4 [packed = true];
//	  bytes  payload = 5;
//	}
//
// would itself call. Hand-driving protowire avoids a protoc step for
// five fixed fields, while still putting real protobuf wire bytes on
// the wire, matching the "protobuf-style record" spec.md §6 calls for
// and the protobuf-c messages original_source/testpbread.c and
// testpbwrite.c exercised.
package frame

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/d4s/chw/internal/huffman"
)

const (
	fieldBitsLen       = protowire.Number(1)
	fieldSymbolsTable  = protowire.Number(2)
	fieldLengthsTable  = protowire.Number(3)
	fieldCodesTable    = protowire.Number(4)
	fieldPayload       = protowire.Number(5)
)

// ErrMalformedFrame is returned when a record cannot be decoded as a
// valid Frame: a field carries the wrong wire type, a length prefix
// runs past the buffer, or the three code tables disagree in length.
var ErrMalformedFrame = errors.New("frame: malformed record")

// Frame is the decoded form of one wire record.
type Frame struct {
	BitsLen uint32
	Table   []huffman.SymbolCode
	Payload []byte
}

// Marshal encodes f as a protobuf wire-format record.
func (f *Frame) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, fieldBitsLen, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(f.BitsLen))

	if len(f.Table) > 0 {
		b = appendPackedVarints(b, fieldSymbolsTable, f.Table, func(sc huffman.SymbolCode) uint64 {
			return uint64(sc.Symbol)
		})
		b = appendPackedVarints(b, fieldLengthsTable, f.Table, func(sc huffman.SymbolCode) uint64 {
			return uint64(sc.Blen)
		})
		b = appendPackedVarints(b, fieldCodesTable, f.Table, func(sc huffman.SymbolCode) uint64 {
			return uint64(sc.Bits)
		})
	}

	if len(f.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, f.Payload)
	}

	return b
}

func appendPackedVarints(b []byte, num protowire.Number, table []huffman.SymbolCode, get func(huffman.SymbolCode) uint64) []byte {
	var packed []byte
	for _, sc := range table {
		packed = protowire.AppendVarint(packed, get(sc))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendBytes(b, packed)
	return b
}

// Unmarshal decodes a protobuf wire-format record into a Frame.
func Unmarshal(b []byte) (*Frame, error) {
	var bitsLen uint32
	var symbols, lengths, codes []uint64
	var payload []byte

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: tag: %v", ErrMalformedFrame, protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case fieldBitsLen, fieldSymbolsTable, fieldLengthsTable, fieldCodesTable, fieldPayload:
			want := protowire.BytesType
			if num == fieldBitsLen {
				want = protowire.VarintType
			}
			if typ != want {
				return nil, fmt.Errorf("%w: field %d: wire type %d, want %d", ErrMalformedFrame, num, typ, want)
			}
		}

		switch num {
		case fieldBitsLen:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: bits_len: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			bitsLen = uint32(v)
			b = b[n:]
		case fieldSymbolsTable:
			vals, n, err := consumePacked(b)
			if err != nil {
				return nil, err
			}
			symbols = vals
			b = b[n:]
		case fieldLengthsTable:
			vals, n, err := consumePacked(b)
			if err != nil {
				return nil, err
			}
			lengths = vals
			b = b[n:]
		case fieldCodesTable:
			vals, n, err := consumePacked(b)
			if err != nil {
				return nil, err
			}
			codes = vals
			b = b[n:]
		case fieldPayload:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: payload: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			payload = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: unknown field %d: %v", ErrMalformedFrame, num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if len(symbols) != len(lengths) || len(lengths) != len(codes) {
		return nil, fmt.Errorf("%w: table length mismatch (symbols=%d lengths=%d codes=%d)",
			ErrMalformedFrame, len(symbols), len(lengths), len(codes))
	}

	table := make([]huffman.SymbolCode, len(symbols))
	for i := range symbols {
		if lengths[i] < 1 || lengths[i] > 32 {
			return nil, fmt.Errorf("%w: lengths_table[%d]=%d out of range", ErrMalformedFrame, i, lengths[i])
		}
		table[i] = huffman.SymbolCode{
			Symbol: byte(symbols[i]),
			Blen:   uint8(lengths[i]),
			Bits:   uint32(codes[i]),
		}
	}

	return &Frame{BitsLen: bitsLen, Table: table, Payload: payload}, nil
}

func consumePacked(b []byte) ([]uint64, int, error) {
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return nil, 0, fmt.Errorf("%w: packed field: %v", ErrMalformedFrame, protowire.ParseError(n))
	}
	var vals []uint64
	for len(packed) > 0 {
		v, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return nil, 0, fmt.Errorf("%w: packed varint: %v", ErrMalformedFrame, protowire.ParseError(m))
		}
		vals = append(vals, v)
		packed = packed[m:]
	}
	return vals, n, nil
}
