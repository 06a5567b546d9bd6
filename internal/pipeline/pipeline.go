// Package pipeline implements the reader/worker/writer orchestration
// of spec.md §4.8: a bounded FIFO of blocks shared by one reader, a
// pool of workers, and one writer, coordinated by block state
// transitions and a process-level lifecycle signal, preserving input
// order on output.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"

	glog "github.com/labstack/gommon/log"

	"github.com/d4s/chw/internal/block"
	"github.com/d4s/chw/internal/frame"
	"github.com/d4s/chw/internal/huffman"
)

// logger is the pipeline's debug/diagnostic logger, standing in for
// the original source's compile-time DBGPRINT macro: a level check
// (Logger.SetLevel) rather than a build flag gates the chatter.
var logger = glog.New("chw")

const (
	// BufferSize is the raw read chunk per block, BUFFERSIZE in spec.md §6.
	BufferSize = frame.BufferSize
	// HPBMessageMax bounds a single frame's length prefix.
	HPBMessageMax = frame.HPBMessageMax
)

// ProcessState is the pipeline's process-level lifecycle signal. It
// only ever advances WORKING -> PENDING -> FINISHED.
type ProcessState int32

const (
	StateWorking ProcessState = iota
	StatePending
	StateFinished
)

func (s ProcessState) String() string {
	switch s {
	case StateWorking:
		return "WORKING"
	case StatePending:
		return "PENDING"
	case StateFinished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

// lifecycle is the small shared context passed to every goroutine,
// replacing the reference implementation's module-scoped globals
// (spec.md §9's "Global mutable process-state flag" design note).
type lifecycle struct {
	state   int32
	workers int32
}

func (l *lifecycle) State() ProcessState {
	return ProcessState(atomic.LoadInt32(&l.state))
}

func (l *lifecycle) setPending() {
	atomic.StoreInt32(&l.state, int32(StatePending))
}

func (l *lifecycle) setFinished() {
	atomic.StoreInt32(&l.state, int32(StateFinished))
}

// exitWorker decrements the live worker count and, if it has just
// reached zero, advances the lifecycle to FINISHED.
func (l *lifecycle) exitWorker() {
	if atomic.AddInt32(&l.workers, -1) == 0 {
		l.setFinished()
	}
}

// Options configures a pipeline run.
type Options struct {
	// Workers is the number of compress/decompress worker goroutines.
	// Defaults to runtime.GOMAXPROCS(0) if zero or negative.
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// blockError pairs a block's sequence number with the error it failed
// with, for diagnostics.
type blockError struct {
	seq uint64
	err error
}

func (e *blockError) Error() string {
	return fmt.Sprintf("block %d: %v", e.seq, e.err)
}

// Compress reads r in BufferSize chunks, compresses each chunk as an
// independent block across opts.Workers goroutines, and writes one
// frame per block to w in input order.
func Compress(r io.Reader, w io.Writer, opts Options) error {
	fifo := block.NewFIFO()
	lc := &lifecycle{workers: int32(opts.workers())}

	var wg sync.WaitGroup
	var firstErr atomic.Value // holds error

	recordErr := func(err error) {
		if err == nil {
			return
		}
		firstErr.CompareAndSwap(nil, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		compressReader(r, fifo, lc)
	}()

	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			compressWorker(fifo, lc)
		}()
	}

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		recordErr(compressWriter(w, fifo, lc))
	}()

	wg.Wait()
	<-writeDone

	if v := firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func compressReader(r io.Reader, fifo *block.FIFO, lc *lifecycle) {
	var seq uint64
	buf := make([]byte, BufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			logger.Debugf("reader: read block of %d bytes (seq=%d)", n, seq)
			b := block.NewRaw(buf[:n])
			b.Seq = seq
			seq++
			if !fifo.Push(b) {
				// The writer hit a fatal block error and aborted the
				// queue: stop feeding it and let the worker pool wind
				// down via the PENDING transition below.
				logger.Debug("reader: queue aborted, stopping")
				lc.setPending()
				return
			}
		}
		if err != nil {
			// IO_READ is treated as end of stream (spec.md §7): any
			// non-positive read, including a real I/O error, advances
			// the lifecycle to PENDING rather than propagating.
			if err != io.EOF {
				logger.Debugf("reader: treating read error as EOF: %v", err)
			}
			lc.setPending()
			logger.Debug("reader: set state PENDING")
			return
		}
		if n == 0 {
			lc.setPending()
			return
		}
	}
}

func compressWorker(fifo *block.FIFO, lc *lifecycle) {
	for {
		b := fifo.ClaimFirst(block.StateRawReady, block.StateProcessing)
		if b == nil {
			if lc.State() == StatePending {
				lc.exitWorker()
				return
			}
			runtime.Gosched()
			continue
		}
		logger.Debugf("worker: compressing block %d", b.Seq)
		b.Compress()
	}
}

func compressWriter(w io.Writer, fifo *block.FIFO, lc *lifecycle) error {
	for {
		b := fifo.PopReady()
		if b == nil {
			if lc.State() == StateFinished && fifo.Len() == 0 {
				return nil
			}
			runtime.Gosched()
			continue
		}

		if b.GetState() == block.StateError {
			err := &blockError{seq: b.Seq, err: b.Err}
			b.Destroy()
			// Abort wakes a reader blocked in Push and discards
			// whatever is still queued, so the reader and any idle
			// workers can observe PENDING/an empty queue and exit
			// instead of spinning forever on a stream nothing will
			// finish writing.
			fifo.Abort()
			return err
		}

		f := &frame.Frame{BitsLen: b.ZDataSize, Table: b.Table, Payload: b.ZData}
		if err := frame.WriteFrame(w, f); err != nil {
			// IO_WRITE is fatal (spec.md §7): abort the queue so the
			// reader and workers unwind instead of spinning forever.
			b.Destroy()
			fifo.Abort()
			return fmt.Errorf("write frame: %w", err)
		}
		b.Destroy()
	}
}

// Decompress reverses Compress: it reads frames from r, decompresses
// each into a block across opts.Workers goroutines, and writes raw
// bytes to w in input order.
func Decompress(r io.Reader, w io.Writer, opts Options) error {
	fifo := block.NewFIFO()
	lc := &lifecycle{workers: int32(opts.workers())}

	var wg sync.WaitGroup
	var firstErr atomic.Value

	recordErr := func(err error) {
		if err == nil {
			return
		}
		firstErr.CompareAndSwap(nil, err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		decompressReader(r, fifo, lc)
	}()

	for i := 0; i < opts.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decompressWorker(fifo, lc)
		}()
	}

	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		recordErr(decompressWriter(w, fifo, lc))
	}()

	wg.Wait()
	<-writeDone

	if v := firstErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func decompressReader(r io.Reader, fifo *block.FIFO, lc *lifecycle) {
	var seq uint64
	for {
		f, err := frame.ReadFrame(r)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debugf("reader: treating frame error as EOF: %v", err)
			}
			lc.setPending()
			logger.Debug("reader: set state PENDING")
			return
		}
		b := block.NewZData(f.Payload, f.BitsLen, f.Table)
		b.Seq = seq
		seq++
		if !fifo.Push(b) {
			logger.Debug("reader: queue aborted, stopping")
			lc.setPending()
			return
		}
	}
}

func decompressWorker(fifo *block.FIFO, lc *lifecycle) {
	for {
		b := fifo.ClaimFirst(block.StateZDataReady, block.StateProcessing)
		if b == nil {
			if lc.State() == StatePending {
				lc.exitWorker()
				return
			}
			runtime.Gosched()
			continue
		}
		logger.Debugf("worker: decompressing block %d", b.Seq)
		b.Decompress()
	}
}

func decompressWriter(w io.Writer, fifo *block.FIFO, lc *lifecycle) error {
	for {
		b := fifo.PopReady()
		if b == nil {
			if lc.State() == StateFinished && fifo.Len() == 0 {
				return nil
			}
			runtime.Gosched()
			continue
		}

		if b.GetState() == block.StateError {
			err := &blockError{seq: b.Seq, err: b.Err}
			b.Destroy()
			fifo.Abort()
			return fmt.Errorf("%w: %v", huffman.ErrMalformedBitstream, err)
		}

		if _, err := w.Write(b.Raw); err != nil {
			b.Destroy()
			fifo.Abort()
			return fmt.Errorf("write raw: %w", err)
		}
		b.Destroy()
	}
}
