package block

import "sync"

// FIFOQueueMaxLen bounds the number of blocks the pipeline will hold
// in flight at once.
const FIFOQueueMaxLen = 20

// FIFO is a bounded, order-preserving queue of blocks shared across
// the pipeline's reader, workers, and writer goroutines. All three
// operations execute under a single mutex, matching spec.md §4.7's
// requirement that a scan-then-claim (ClaimFirst) be atomic with the
// scan that finds the candidate — the design notes' recommended fix
// for the reference implementation's get_first()-then-set_state()
// race.
type FIFO struct {
	mu         sync.Mutex
	notFull    *sync.Cond
	head, tail *Block
	len        int
	aborted    bool
}

// NewFIFO returns an empty, ready-to-use FIFO.
func NewFIFO() *FIFO {
	f := &FIFO{}
	f.notFull = sync.NewCond(&f.mu)
	return f
}

// Push appends b to the tail, blocking while the queue is at
// FIFOQueueMaxLen capacity. It reports whether b was actually queued:
// once Abort has been called, Push returns false immediately instead
// of blocking or growing the queue, so a reader stuck waiting for
// space during an abort wakes up rather than hanging forever.
func (f *FIFO) Push(b *Block) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for !f.aborted && f.len >= FIFOQueueMaxLen {
		f.notFull.Wait()
	}
	if f.aborted {
		return false
	}
	b.prev = f.tail
	b.next = nil
	if f.tail != nil {
		f.tail.next = b
	} else {
		f.head = b
	}
	f.tail = b
	f.len++
	return true
}

// Abort discards every queued block and marks the queue aborted: any
// goroutine currently blocked in Push wakes up and returns false, and
// every future Push/ClaimFirst call is a no-op. It is used by the
// writer to unwind the pipeline after a fatal block error, so the
// reader and workers can exit instead of blocking forever on a queue
// nothing will ever drain again.
func (f *FIFO) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborted = true
	f.head, f.tail = nil, nil
	f.len = 0
	f.notFull.Broadcast()
}

// PopReady detaches and returns the head block if its state is
// StateReady or StateError (the writer drains errored blocks the same
// way it drains finished ones, surfacing the error to its caller).
// Only the head may ever be returned, which is what guarantees output
// order matches input order regardless of worker scheduling.
func (f *FIFO) PopReady() *Block {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.head == nil {
		return nil
	}
	switch f.head.GetState() {
	case StateReady, StateError:
	default:
		return nil
	}

	b := f.head
	f.head = b.next
	if f.head != nil {
		f.head.prev = nil
	} else {
		f.tail = nil
	}
	b.next, b.prev = nil, nil
	f.len--
	f.notFull.Signal()
	return b
}

// ClaimFirst scans head-to-tail for the first block in state want and
// atomically transitions it to claim, returning it. It returns nil if
// no block is in state want. The scan and the transition happen under
// the same lock so two workers can never claim the same block.
func (f *FIFO) ClaimFirst(want, claim State) *Block {
	f.mu.Lock()
	defer f.mu.Unlock()
	for n := f.head; n != nil; n = n.next {
		if n.GetState() == want {
			n.compareAndSwapState(want, claim)
			return n
		}
	}
	return nil
}

// Len returns the number of blocks currently queued.
func (f *FIFO) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.len
}
