package huffman

// UnbalancedSequence generates the boundary-scenario distribution from
// spec.md §8: n symbols starting at 'A', where symbol i occurs 2^i
// times. This mirrors the original source's standalone
// gen_unbalanced_data generator, kept here as a reusable helper rather
// than a separate peripheral program since spec.md §1 scopes data
// generators out of the core.
func UnbalancedSequence(n int) []byte {
	var out []byte
	for i := 0; i < n; i++ {
		sym := byte('A' + i)
		count := 1 << uint(i)
		for j := 0; j < count; j++ {
			out = append(out, sym)
		}
	}
	return out
}
