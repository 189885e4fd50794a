package algo

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// KMeansOptions configures a k-means fit.
type KMeansOptions struct {
	K        int
	Restarts int
	MaxIter  int
	Tol      float64 // relative to the mean column variance
	Seed     uint64
	Workers  int
}

// KMeansModel is the best-of-restarts k-means solution.
type KMeansModel struct {
	K          int
	Centroids  [][]float64
	Labels     []int
	Inertia    float64
	Iterations int
	Restart    int // index of the winning restart
}

// DefaultTolerance is the default k-means convergence tolerance.
const DefaultTolerance = 1e-4

// FitKMeans runs k-means++ seeded Lloyd iterations Restarts times and keeps the
// lowest-inertia solution, the earliest restart winning ties. Restarts run in
// parallel; each is seeded from (Seed, K, restart) so the result does not depend
// on scheduling.
func FitKMeans(ctx context.Context, x *mat.Dense, opts KMeansOptions) (*KMeansModel, error) {
	points := rowViews(x)
	if opts.K < 1 || opts.K > len(points) {
		return nil, fmt.Errorf("k must be between 1 and %d (received %d)", len(points), opts.K)
	}
	restarts := max(opts.Restarts, 1)
	maxIter := max(opts.MaxIter, 1)
	tol := opts.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}
	tol *= meanColumnVariance(points)

	slots := make([]*KMeansModel, restarts)
	err := runIndexed(ctx, opts.Workers, restarts, func(_ context.Context, r int) error {
		rng := rand.New(rand.NewPCG(opts.Seed, restartStream(opts.K, r)))
		slots[r] = lloyd(points, opts.K, maxIter, tol, rng)
		slots[r].Restart = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	best := slots[0]
	for _, m := range slots[1:] {
		if m.Inertia < best.Inertia {
			best = m
		}
	}
	return best, nil
}

// restartStream derives the second PCG word for one (K, restart) pair.
func restartStream(k, restart int) uint64 {
	return uint64(k)<<32 ^ uint64(restart)*0x9e3779b97f4a7c15
}

// lloyd runs one seeded k-means fit.
func lloyd(points [][]float64, k, maxIter int, tol float64, rng *rand.Rand) *KMeansModel {
	dim := len(points[0])
	centroids := kmeansPlusPlus(points, k, rng)
	labels := make([]int, len(points))
	dists := make([]float64, len(points))
	next := newCentroids(k, dim)
	counts := make([]int, k)

	iter := 0
	for iter < maxIter {
		iter++
		assign(points, centroids, labels, dists)

		for c := range next {
			clear(next[c])
			counts[c] = 0
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d, v := range p {
				next[c][d] += v
			}
		}
		relocateEmpty(points, labels, next, counts, dists)
		for c := range next {
			if counts[c] == 0 {
				continue
			}
			inv := 1 / float64(counts[c])
			for d := range next[c] {
				next[c][d] *= inv
			}
		}

		shift := 0.0
		for c := range centroids {
			shift += sqDist(centroids[c], next[c])
			copy(centroids[c], next[c])
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centroids, labels, dists)
	return &KMeansModel{
		K:          k,
		Centroids:  centroids,
		Labels:     labels,
		Inertia:    inertia,
		Iterations: iter,
	}
}

// kmeansPlusPlus picks the first centroid uniformly and each next one with
// probability proportional to its squared distance to the nearest chosen centroid.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), points[rng.IntN(n)]...))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, centroids[0])
	}
	for len(centroids) < k {
		total := 0.0
		for _, d := range closest {
			total += d
		}
		var pick int
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			pick = n - 1
			for i, d := range closest {
				acc += d
				if acc > target {
					pick = i
					break
				}
			}
		} else {
			pick = rng.IntN(n)
		}
		c := append([]float64(nil), points[pick]...)
		centroids = append(centroids, c)
		for i, p := range points {
			if d := sqDist(p, c); d < closest[i] {
				closest[i] = d
			}
		}
	}
	return centroids
}

// assign labels every point with its nearest centroid (lowest index on ties),
// fills dists with the squared distances and returns their sum.
func assign(points, centroids [][]float64, labels []int, dists []float64) float64 {
	inertia := 0.0
	for i, p := range points {
		best, bestDist := 0, math.Inf(1)
		for c, centroid := range centroids {
			if d := sqDist(p, centroid); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
		dists[i] = bestDist
		inertia += bestDist
	}
	return inertia
}

// relocateEmpty moves each empty cluster onto the point farthest from its
// current centroid, taking it out of its old cluster. Each point is used at most once.
func relocateEmpty(points [][]float64, labels []int, sums [][]float64, counts []int, dists []float64) {
	var used map[int]bool
	for c := range counts {
		if counts[c] > 0 {
			continue
		}
		if used == nil {
			used = map[int]bool{}
		}
		far, farDist := -1, -1.0
		for i, d := range dists {
			if !used[i] && d > farDist {
				far, farDist = i, d
			}
		}
		if far < 0 {
			continue
		}
		used[far] = true
		if old := labels[far]; counts[old] > 1 {
			for d, v := range points[far] {
				sums[old][d] -= v
			}
			counts[old]--
		}
		copy(sums[c], points[far])
		counts[c] = 1
	}
}

func newCentroids(k, dim int) [][]float64 {
	out := make([][]float64, k)
	for c := range out {
		out[c] = make([]float64, dim)
	}
	return out
}

func meanColumnVariance(points [][]float64) float64 {
	if len(points) == 0 {
		return 0
	}
	dim := len(points[0])
	n := float64(len(points))
	total := 0.0
	for d := range dim {
		mean := 0.0
		for _, p := range points {
			mean += p[d]
		}
		mean /= n
		v := 0.0
		for _, p := range points {
			diff := p[d] - mean
			v += diff * diff
		}
		total += v / n
	}
	return total / float64(dim)
}

// rowViews exposes the rows of x without copying.
func rowViews(x *mat.Dense) [][]float64 {
	rows, _ := x.Dims()
	out := make([][]float64, rows)
	for i := range rows {
		out[i] = x.RawRowView(i)
	}
	return out
}

// Rows returns views of the rows of x. The views alias x.
func Rows(x *mat.Dense) [][]float64 {
	return rowViews(x)
}

// SelectRows copies the rows of x at idx into a new matrix.
func SelectRows(x *mat.Dense, idx []int) *mat.Dense {
	if len(idx) == 0 {
		return &mat.Dense{}
	}
	_, cols := x.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, j := range idx {
		out.SetRow(i, x.RawRowView(j))
	}
	return out
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
