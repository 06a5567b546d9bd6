package frame

import (
	"encoding/binary"
	"io"
)

// BufferSize is the raw read chunk size per block (512 KiB), matching
// spec.md §6's BUFFERSIZE constant.
const BufferSize = 512 * 1024

// HPBMessageMax bounds the length prefix a reader will accept for a
// single frame, matching spec.md §6's HPB_MESSAGE_MAX constant.
const HPBMessageMax = 2 * BufferSize

// malformedLengthPrefix is the sentinel length value spec.md §8's
// boundary scenario uses to signal a clean, deliberate end of stream.
const malformedLengthPrefix = 0xFFFFFFFF

// WriteFrame writes f to w as a big-endian uint32 length prefix
// followed by its protobuf wire-format record.
func WriteFrame(w io.Writer, f *Frame) error {
	body := f.Marshal()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(body)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed frame from r.
//
// Any failure to produce a complete, valid frame — a short read, a
// length prefix that exceeds HPBMessageMax, the 0xFFFFFFFF sentinel,
// or a record that fails to decode — is reported as io.EOF, matching
// spec.md §7's policy that reader-side failures (IO_READ,
// MALFORMED_FRAME) are treated as a clean end of stream rather than
// propagated.
func ReadFrame(r io.Reader) (*Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, io.EOF
	}
	length := binary.BigEndian.Uint32(lenBuf[:])

	if length == malformedLengthPrefix || length > HPBMessageMax {
		return nil, io.EOF
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, io.EOF
	}

	f, err := Unmarshal(body)
	if err != nil {
		return nil, io.EOF
	}
	return f, nil
}
