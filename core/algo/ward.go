package algo

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Merge is one agglomeration step between the clusters represented by A and B.
type Merge struct {
	A, B   int
	Height float64 // Ward criterion on squared distances
}

// condensed is an upper-triangular pairwise distance matrix without the diagonal.
type condensed struct {
	n    int
	data []float64
}

func (c *condensed) idx(i, j int) int {
	if i > j {
		i, j = j, i
	}
	return i*c.n - i*(i+1)/2 + (j - i - 1)
}

func (c *condensed) at(i, j int) float64     { return c.data[c.idx(i, j)] }
func (c *condensed) set(i, j int, v float64) { c.data[c.idx(i, j)] = v }

// WardLinkage builds the full Ward merge tree of the rows of x with the
// nearest-neighbour chain algorithm. Memory grows with the square of the row count.
func WardLinkage(x *mat.Dense, workers int) ([]Merge, error) {
	points := rowViews(x)
	n := len(points)
	if n < 2 {
		return nil, fmt.Errorf("ward linkage needs at least 2 points (received %d)", n)
	}

	dist := &condensed{n: n, data: make([]float64, n*(n-1)/2)}
	forEachChunk(workers, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := i + 1; j < n; j++ {
				dist.set(i, j, sqDist(points[i], points[j]))
			}
		}
	})

	size := make([]int, n)
	active := make([]bool, n)
	for i := range n {
		size[i] = 1
		active[i] = true
	}

	merges := make([]Merge, 0, n-1)
	chain := make([]int, 0, n)
	next := 0 // lowest index that may still be active
	for remaining := n; remaining > 1; {
		if len(chain) == 0 {
			for !active[next] {
				next++
			}
			chain = append(chain, next)
		}
		a := chain[len(chain)-1]

		b, best := -1, 0.0
		if len(chain) > 1 {
			b = chain[len(chain)-2]
			best = dist.at(a, b)
		}
		for j := range n {
			if j == a || !active[j] {
				continue
			}
			if d := dist.at(a, j); b < 0 || d < best {
				b, best = j, d
			}
		}

		if len(chain) > 1 && b == chain[len(chain)-2] {
			chain = chain[:len(chain)-2]
			keep, drop := min(a, b), max(a, b)
			merges = append(merges, Merge{A: keep, B: drop, Height: best})
			sa, sb := float64(size[a]), float64(size[b])
			for k := range n {
				if !active[k] || k == a || k == b {
					continue
				}
				sk := float64(size[k])
				d := ((sa+sk)*dist.at(a, k) + (sb+sk)*dist.at(b, k) - sk*best) / (sa + sb + sk)
				dist.set(keep, k, d)
			}
			size[keep] += size[drop]
			active[drop] = false
			remaining--
			continue
		}
		chain = append(chain, b)
	}
	return merges, nil
}

// CutTree labels n points into k clusters by applying the n-k lowest merges.
// Labels are numbered in order of first appearance.
func CutTree(merges []Merge, n, k int) ([]int, error) {
	if k < 1 || k > n {
		return nil, fmt.Errorf("cluster count must be between 1 and %d (received %d)", n, k)
	}
	if len(merges) != n-1 {
		return nil, fmt.Errorf("expected %d merges for %d points, got %d", n-1, n, len(merges))
	}
	ordered := slices.Clone(merges)
	slices.SortStableFunc(ordered, func(a, b Merge) int {
		return cmp.Compare(a.Height, b.Height)
	})

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, m := range ordered[:n-k] {
		ra, rb := find(m.A), find(m.B)
		if ra != rb {
			parent[max(ra, rb)] = min(ra, rb)
		}
	}

	labels := make([]int, n)
	ids := map[int]int{}
	for i := range n {
		root := find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels, nil
}

// Ward clusters x into k groups with Ward linkage.
func Ward(x *mat.Dense, k, workers int) ([]int, error) {
	rows, _ := x.Dims()
	merges, err := WardLinkage(x, workers)
	if err != nil {
		return nil, err
	}
	return CutTree(merges, rows, k)
}
