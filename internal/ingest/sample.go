package ingest

import (
	"math/rand/v2"
	"slices"
)

// SampleIndices picks size distinct row indices out of n with a seeded
// partial Fisher-Yates shuffle and returns them in ascending order.
// A non-positive size or one covering every row keeps all rows.
func SampleIndices(n, size int, seed uint64) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if size <= 0 || size >= n {
		return idx
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range size {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	picked := idx[:size:size]
	slices.Sort(picked)
	return picked
}

// Sample returns the rows at the sampled indices, keeping input order.
func Sample[T any](rows []T, size int, seed uint64) []T {
	indices := SampleIndices(len(rows), size, seed)
	if len(indices) == len(rows) {
		return rows
	}
	out := make([]T, len(indices))
	for i, j := range indices {
		out[i] = rows[j]
	}
	return out
}
