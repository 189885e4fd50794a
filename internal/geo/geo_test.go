package geo

import (
	"testing"

	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(41.88, -87.63, 41.88, -87.63), 1e-9)
	// One degree of latitude is about 111.2 km on the mean sphere.
	assert.InDelta(t, 111195, Distance(41, -87, 42, -87), 50)
}

func TestCentroid(t *testing.T) {
	lat, lon, ok := Centroid([]float64{41, 43}, []float64{-87, -87})
	require.True(t, ok)
	assert.InDelta(t, 42, lat, 1e-3)
	assert.InDelta(t, -87, lon, 1e-9)

	_, _, ok = Centroid(nil, nil)
	assert.False(t, ok)

	_, _, ok = Centroid([]float64{0, 0}, []float64{0, 180})
	assert.False(t, ok)
}

func TestCellToken(t *testing.T) {
	a := CellToken(41.8781, -87.6298)
	b := CellToken(41.8781, -87.6298)
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, CellToken(34.05, -118.24))
}

func TestProfiles(t *testing.T) {
	records := []schema.CleanedRecord{
		{Latitude: 41.80, Longitude: -87.60, PrimaryType: "THEFT", Arrest: true},
		{Latitude: 41.82, Longitude: -87.60, PrimaryType: "BATTERY"},
		{Latitude: 41.90, Longitude: -87.70, PrimaryType: "ROBBERY"},
		{Latitude: 41.90, Longitude: -87.70, PrimaryType: "ROBBERY", Arrest: true},
		{Latitude: 0, Longitude: 0, PrimaryType: "NOISE"},
	}
	labels := []int{1, 1, 0, 0, -1}

	profiles := Profiles(records, labels)
	require.Len(t, profiles, 2)

	first := profiles[0]
	assert.Equal(t, 0, first.Cluster)
	assert.Equal(t, 2, first.Size)
	assert.Equal(t, "ROBBERY", first.DominantCrimeType)
	assert.InDelta(t, 0.5, first.ArrestRate, 1e-12)
	assert.InDelta(t, 0, first.MaxRadiusMeters, 1e-6)
	assert.NotEmpty(t, first.CellToken)

	second := profiles[1]
	assert.Equal(t, 1, second.Cluster)
	assert.Equal(t, "BATTERY", second.DominantCrimeType, "ties resolve lexically")
	assert.InDelta(t, 41.81, second.CentroidLatitude, 1e-4)
	assert.InDelta(t, 1112, second.MaxRadiusMeters, 5)
	assert.InDelta(t, second.MaxRadiusMeters, second.MeanRadiusMeters, 1e-6)
}
