package pipeline

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/d4s/chw/internal/frame"
	"github.com/d4s/chw/internal/huffman"
)

func roundTrip(t *testing.T, data []byte, workers int) []byte {
	t.Helper()
	var compressed bytes.Buffer
	if err := Compress(bytes.NewReader(data), &compressed, Options{Workers: workers}); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	var out bytes.Buffer
	if err := Decompress(bytes.NewReader(compressed.Bytes()), &out, Options{Workers: workers}); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	return out.Bytes()
}

func TestPipelineEmptyInput(t *testing.T) {
	var compressed bytes.Buffer
	if err := Compress(bytes.NewReader(nil), &compressed, Options{Workers: 2}); err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if compressed.Len() != 0 {
		t.Errorf("compressed output for empty input: %d bytes, want 0", compressed.Len())
	}
}

func TestPipelineRoundTripSmall(t *testing.T) {
	for _, workers := range []int{1, 2, 4} {
		data := []byte("the quick brown fox jumps over the lazy dog, the quick brown fox.")
		got := roundTrip(t, data, workers)
		if string(got) != string(data) {
			t.Errorf("workers=%d: round-trip mismatch: got %q, want %q", workers, got, data)
		}
	}
}

func TestPipelineRoundTripMultiBlock(t *testing.T) {
	data := make([]byte, BufferSize*3+123)
	for i := range data {
		data[i] = byte(i % 251)
	}
	got := roundTrip(t, data, 4)
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d bytes", len(got), len(data))
	}
}

func TestPipelineFrameCountMatchesBlockCount(t *testing.T) {
	data := make([]byte, BufferSize*2+1)
	for i := range data {
		data[i] = byte(i)
	}
	var compressed bytes.Buffer
	if err := Compress(bytes.NewReader(data), &compressed, Options{Workers: 3}); err != nil {
		t.Fatalf("Compress: %v", err)
	}

	wantFrames := (len(data) + BufferSize - 1) / BufferSize
	gotFrames := 0
	r := bytes.NewReader(compressed.Bytes())
	for {
		if _, err := frame.ReadFrame(r); err != nil {
			break
		}
		gotFrames++
	}
	if gotFrames != wantFrames {
		t.Errorf("frame count = %d, want %d", gotFrames, wantFrames)
	}
}

func TestPipelineUnbalancedData(t *testing.T) {
	data := huffman.UnbalancedSequence(8)
	got := roundTrip(t, data, 3)
	if !bytes.Equal(got, data) {
		t.Fatalf("round-trip mismatch on unbalanced data")
	}
}

// TestPipelineDecompressAbortsOnBlockError builds a stream with far
// more frames than block.FIFOQueueMaxLen, one of which is deliberately
// malformed, and checks that Decompress returns the block's error
// promptly instead of hanging: with the queue full of unread frames
// and a single slow worker, the reader must still be unblocked from
// FIFO.Push once the writer gives up on the errored block.
func TestPipelineDecompressAbortsOnBlockError(t *testing.T) {
	const totalFrames = 40
	const errorFrameIndex = 2

	var stream bytes.Buffer
	for i := 0; i < totalFrames; i++ {
		if i == errorFrameIndex {
			// A table whose code never matches the payload's bit
			// pattern: huffman.Decompress exhausts the declared bit
			// budget without resolving a symbol and returns
			// ErrMalformedBitstream (see codec_test.go).
			f := &frame.Frame{
				BitsLen: 4,
				Table:   []huffman.SymbolCode{{Symbol: 'A', Bits: 1, Blen: 2}},
				Payload: []byte{0x00},
			}
			if err := frame.WriteFrame(&stream, f); err != nil {
				t.Fatalf("WriteFrame: %v", err)
			}
			continue
		}
		data := bytes.Repeat([]byte{byte('a' + i%5)}, 64)
		enc, err := huffman.Compress(data)
		if err != nil {
			t.Fatalf("Compress block %d: %v", i, err)
		}
		f := &frame.Frame{BitsLen: enc.ZDataSize, Table: enc.Table, Payload: enc.ZData}
		if err := frame.WriteFrame(&stream, f); err != nil {
			t.Fatalf("WriteFrame block %d: %v", i, err)
		}
	}

	done := make(chan error, 1)
	go func() {
		var out bytes.Buffer
		done <- Decompress(bytes.NewReader(stream.Bytes()), &out, Options{Workers: 1})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, huffman.ErrMalformedBitstream) {
			t.Errorf("Decompress error = %v, want wrapping ErrMalformedBitstream", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Decompress hung instead of aborting on the malformed block")
	}
}
