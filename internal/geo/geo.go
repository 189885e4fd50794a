// Package geo computes geographic profiles of clusters on the sphere.
package geo

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
	"github.com/huangsam/patrolq/schema"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371000.0

// CellLevel is the S2 level of profile cell tokens (roughly 1 km cells).
const CellLevel = 13

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Centroid returns the spherical centroid of a set of points: the normalized
// mean of their unit vectors. ok is false for an empty or antipodal set.
func Centroid(lats, lons []float64) (lat, lon float64, ok bool) {
	var sum r3.Vector
	for i := range lats {
		p := s2.PointFromLatLng(s2.LatLngFromDegrees(lats[i], lons[i]))
		sum = sum.Add(p.Vector)
	}
	if sum.Norm() < 1e-12 {
		return 0, 0, false
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})
	return ll.Lat.Degrees(), ll.Lng.Degrees(), true
}

// CellToken returns the token of the S2 cell at CellLevel containing a point.
func CellToken(lat, lon float64) string {
	return s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon)).Parent(CellLevel).ToToken()
}

// Profiles summarizes each cluster of a label assignment over its records.
// Records and labels must line up; negative labels are skipped. Profiles are
// ordered by cluster label.
func Profiles(records []schema.CleanedRecord, labels []int) []schema.ClusterProfile {
	members := map[int][]int{}
	for i, l := range labels {
		if l >= 0 && i < len(records) {
			members[l] = append(members[l], i)
		}
	}
	clusters := make([]int, 0, len(members))
	for l := range members {
		clusters = append(clusters, l)
	}
	slices.Sort(clusters)

	out := make([]schema.ClusterProfile, 0, len(clusters))
	for _, l := range clusters {
		out = append(out, profile(records, l, members[l]))
	}
	return out
}

func profile(records []schema.CleanedRecord, label int, idx []int) schema.ClusterProfile {
	lats := make([]float64, len(idx))
	lons := make([]float64, len(idx))
	arrests := 0
	byType := map[string]int{}
	for k, i := range idx {
		rec := records[i]
		lats[k], lons[k] = rec.Latitude, rec.Longitude
		if rec.Arrest {
			arrests++
		}
		byType[rec.PrimaryType]++
	}

	p := schema.ClusterProfile{
		Cluster:           label,
		Size:              len(idx),
		ArrestRate:        float64(arrests) / float64(len(idx)),
		DominantCrimeType: dominant(byType),
	}
	clat, clon, ok := Centroid(lats, lons)
	if !ok {
		return p
	}
	p.CentroidLatitude, p.CentroidLongitude = clat, clon
	p.CellToken = CellToken(clat, clon)

	total := 0.0
	for k := range lats {
		d := Distance(clat, clon, lats[k], lons[k])
		total += d
		p.MaxRadiusMeters = math.Max(p.MaxRadiusMeters, d)
	}
	p.MeanRadiusMeters = total / float64(len(lats))
	return p
}

// dominant returns the most frequent key, the lexically smallest among ties.
func dominant(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
