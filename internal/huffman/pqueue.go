package huffman

// pqueue is a min-ordered sequence of tree nodes kept sorted ascending
// by frequency. Ties are broken by insertion order: a newly inserted
// entry with a frequency equal to an existing entry's is placed after
// it. The queues involved are small (at most 256 leaves plus merges),
// so a plain insertion-sorted slice is the right tool — no heap
// package needed, and container/heap's sift-based ordering doesn't
// give the stable insertion-order tie-break the canonical codes need.
type pqueue struct {
	entries []*Node
}

func newPQueue() *pqueue {
	return &pqueue{}
}

// Insert places node before the first existing entry with strictly
// greater frequency, or at the tail if none is found.
func (q *pqueue) Insert(node *Node) {
	for i, e := range q.entries {
		if e.Freq > node.Freq {
			q.entries = append(q.entries, nil)
			copy(q.entries[i+1:], q.entries[i:])
			q.entries[i] = node
			return
		}
	}
	q.entries = append(q.entries, node)
}

// PopMin removes and returns the head of the queue, or nil if empty.
func (q *pqueue) PopMin() *Node {
	if len(q.entries) == 0 {
		return nil
	}
	node := q.entries[0]
	q.entries = q.entries[1:]
	return node
}

// Len returns the number of entries remaining.
func (q *pqueue) Len() int {
	return len(q.entries)
}
