package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/patrolq/internal/contract"
)

// Noise is the label density-based clustering gives to unclustered points.
const Noise = -1

// clusterIndex maps arbitrary non-negative labels to dense indices in
// first-appearance order and counts members. Negative labels are skipped.
func clusterIndex(labels []int) (dense []int, counts []int) {
	ids := map[int]int{}
	dense = make([]int, len(labels))
	for i, l := range labels {
		if l < 0 {
			dense[i] = -1
			continue
		}
		id, ok := ids[l]
		if !ok {
			id = len(counts)
			ids[l] = id
			counts = append(counts, 0)
		}
		dense[i] = id
		counts[id]++
	}
	return dense, counts
}

// CountClusters returns the number of distinct non-noise labels.
func CountClusters(labels []int) int {
	_, counts := clusterIndex(labels)
	return len(counts)
}

// CheckSilhouette reports whether a labelling can be scored by Silhouette:
// at least 2 non-noise clusters with at least 2 members each.
func CheckSilhouette(labels []int) error {
	_, counts := clusterIndex(labels)
	return checkSilhouetteCounts(counts)
}

func checkSilhouetteCounts(counts []int) error {
	if len(counts) < 2 {
		return fmt.Errorf("%w: silhouette needs at least 2 clusters (found %d)", contract.ErrMetricUncomputable, len(counts))
	}
	for c, n := range counts {
		if n < 2 {
			return fmt.Errorf("%w: cluster %d has %d member(s)", contract.ErrMetricUncomputable, c, n)
		}
	}
	return nil
}

// Silhouette returns the mean silhouette coefficient of the labelled points.
// It needs at least 2 clusters with at least 2 members each; otherwise it
// returns ErrMetricUncomputable. Points labelled Noise are ignored.
func Silhouette(points [][]float64, labels []int, workers int) (float64, error) {
	if len(points) != len(labels) {
		return 0, fmt.Errorf("got %d labels for %d points", len(labels), len(points))
	}
	dense, counts := clusterIndex(labels)
	if err := checkSilhouetteCounts(counts); err != nil {
		return 0, err
	}

	members := make([]int, 0, len(points))
	for i, d := range dense {
		if d >= 0 {
			members = append(members, i)
		}
	}

	scores := make([]float64, len(members))
	forEachChunk(workers, len(members), func(lo, hi int) {
		sums := make([]float64, len(counts))
		for m := lo; m < hi; m++ {
			i := members[m]
			clear(sums)
			for _, j := range members {
				if j == i {
					continue
				}
				sums[dense[j]] += math.Sqrt(sqDist(points[i], points[j]))
			}
			own := dense[i]
			a := sums[own] / float64(counts[own]-1)
			b := math.Inf(1)
			for c, s := range sums {
				if c == own {
					continue
				}
				b = math.Min(b, s/float64(counts[c]))
			}
			if denom := math.Max(a, b); denom > 0 {
				scores[m] = (b - a) / denom
			}
		}
	})

	total := 0.0
	for _, s := range scores {
		total += s
	}
	return total / float64(len(scores)), nil
}

// DaviesBouldin returns the Davies-Bouldin index of the labelled points.
// It needs at least 2 non-empty clusters. Coincident centroids contribute a
// ratio of 0 rather than infinity.
func DaviesBouldin(points [][]float64, labels []int) (float64, error) {
	if len(points) != len(labels) {
		return 0, fmt.Errorf("got %d labels for %d points", len(labels), len(points))
	}
	dense, counts := clusterIndex(labels)
	k := len(counts)
	if k < 2 {
		return 0, fmt.Errorf("%w: davies-bouldin needs at least 2 clusters (found %d)", contract.ErrMetricUncomputable, k)
	}

	dim := len(points[0])
	centroids := newCentroids(k, dim)
	for i, p := range points {
		c := dense[i]
		if c < 0 {
			continue
		}
		for d, v := range p {
			centroids[c][d] += v
		}
	}
	for c := range centroids {
		for d := range centroids[c] {
			centroids[c][d] /= float64(counts[c])
		}
	}

	scatter := make([]float64, k)
	for i, p := range points {
		if c := dense[i]; c >= 0 {
			scatter[c] += math.Sqrt(sqDist(p, centroids[c]))
		}
	}
	for c := range scatter {
		scatter[c] /= float64(counts[c])
	}

	total := 0.0
	for i := range k {
		worst := 0.0
		for j := range k {
			if i == j {
				continue
			}
			sep := math.Sqrt(sqDist(centroids[i], centroids[j]))
			if sep == 0 {
				continue
			}
			worst = math.Max(worst, (scatter[i]+scatter[j])/sep)
		}
		total += worst
	}
	return total / float64(k), nil
}
