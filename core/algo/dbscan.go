package algo

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// DBSCANOptions configures a density-based clustering run.
type DBSCANOptions struct {
	Eps       float64
	MinPoints int // neighbourhood size, the point itself included, that makes a core point
	Workers   int
}

// DBSCANResult holds per-point labels; Noise marks unclustered points.
type DBSCANResult struct {
	Labels    []int
	NClusters int
	NNoise    int
}

// sortedIndex orders points by their first coordinate so neighbourhood queries
// only scan a window of width 2*eps.
type sortedIndex struct {
	points [][]float64
	order  []int
	pos    []int
	eps    float64
	eps2   float64
}

func newSortedIndex(points [][]float64, eps float64) *sortedIndex {
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(points[a][0], points[b][0])
	})
	pos := make([]int, len(points))
	for p, i := range order {
		pos[i] = p
	}
	return &sortedIndex{points: points, order: order, pos: pos, eps: eps, eps2: eps * eps}
}

// visit calls fn for every point within eps of point i, i itself included.
func (s *sortedIndex) visit(i int, fn func(j int)) {
	p := s.points[i]
	start := s.pos[i]
	for q := start; q >= 0; q-- {
		j := s.order[q]
		if p[0]-s.points[j][0] > s.eps {
			break
		}
		if sqDist(p, s.points[j]) <= s.eps2 {
			fn(j)
		}
	}
	for q := start + 1; q < len(s.order); q++ {
		j := s.order[q]
		if s.points[j][0]-p[0] > s.eps {
			break
		}
		if sqDist(p, s.points[j]) <= s.eps2 {
			fn(j)
		}
	}
}

// DBSCAN clusters x by density. Clusters are numbered in order of their lowest
// core point index, which keeps the labelling independent of worker count.
func DBSCAN(x *mat.Dense, opts DBSCANOptions) (*DBSCANResult, error) {
	if opts.Eps <= 0 {
		return nil, fmt.Errorf("eps must be positive (received %g)", opts.Eps)
	}
	if opts.MinPoints < 1 {
		return nil, fmt.Errorf("min points must be positive (received %d)", opts.MinPoints)
	}
	points := rowViews(x)
	index := newSortedIndex(points, opts.Eps)

	core := make([]bool, len(points))
	forEachChunk(opts.Workers, len(points), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			n := 0
			index.visit(i, func(int) { n++ })
			core[i] = n >= opts.MinPoints
		}
	})

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = Noise
	}
	cluster := 0
	var stack []int
	for i := range points {
		if labels[i] != Noise || !core[i] {
			continue
		}
		labels[i] = cluster
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			index.visit(p, func(j int) {
				if labels[j] != Noise {
					return
				}
				labels[j] = cluster
				if core[j] {
					stack = append(stack, j)
				}
			})
		}
		cluster++
	}

	res := &DBSCANResult{Labels: labels, NClusters: cluster}
	for _, l := range labels {
		if l == Noise {
			res.NNoise++
		}
	}
	return res, nil
}
