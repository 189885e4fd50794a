package features

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/patrolq/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(crimeType string, hour int, arrest, domestic, weekend bool) schema.CleanedRecord {
	return schema.CleanedRecord{
		PrimaryType: crimeType,
		Date:        time.Date(2023, 6, 10, hour, 0, 0, 0, time.UTC),
		Latitude:    41.9,
		Longitude:   -87.6,
		Hour:        hour,
		Month:       6,
		Arrest:      arrest,
		Domestic:    domestic,
		IsWeekend:   weekend,
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		crimeType string
		want      float64
	}{
		{"HOMICIDE", 5},
		{"ROBBERY", 4},
		{"BATTERY", 3},
		{"THEFT", BaselineSeverity},
		{"battery", BaselineSeverity},
		{"", BaselineSeverity},
	}
	for _, tt := range tests {
		t.Run(tt.crimeType, func(t *testing.T) {
			assert.Equal(t, tt.want, Severity(tt.crimeType))
		})
	}
}

func TestSeason(t *testing.T) {
	want := map[int]int{1: 1, 2: 1, 3: 2, 5: 2, 6: 3, 8: 3, 9: 4, 11: 4, 12: 1}
	for month, season := range want {
		assert.Equal(t, season, Season(month), "month %d", month)
	}
	for month := 1; month <= 12; month++ {
		s := Season(month)
		assert.GreaterOrEqual(t, s, 1)
		assert.LessOrEqual(t, s, 4)
	}
}

func TestBuild(t *testing.T) {
	assert.Nil(t, Build(nil))

	records := []schema.CleanedRecord{
		record("ROBBERY", 22, true, false, true),
		record("THEFT", 9, false, true, false),
	}
	m := Build(records)
	require.NotNil(t, m)
	rows, cols := m.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, len(schema.FeatureColumns), cols)

	assert.Equal(t, []float64{41.9, -87.6, 22, 6, 1, 1, 0, 4}, m.RawRowView(0))
	assert.Equal(t, []float64{41.9, -87.6, 9, 6, 0, 0, 1, 1}, m.RawRowView(1))
}

func TestSummarize(t *testing.T) {
	records := []schema.CleanedRecord{
		record("THEFT", 10, true, false, false),
		record("THEFT", 10, false, false, true),
		record("BATTERY", 22, false, true, false),
		record("ASSAULT", 22, true, true, false),
	}
	summary := Summarize(records)

	assert.Equal(t, 4, summary.TotalCrimes)
	assert.InDelta(t, 0.5, summary.ArrestRate, 1e-12)
	assert.InDelta(t, 0.5, summary.DomesticRate, 1e-12)
	assert.InDelta(t, 0.25, summary.WeekendShare, 1e-12)
	assert.Equal(t, []schema.CategoryCount{
		{CrimeType: "THEFT", Count: 2},
		{CrimeType: "ASSAULT", Count: 1},
		{CrimeType: "BATTERY", Count: 1},
	}, summary.CrimeTypes)
	assert.Equal(t, []schema.HourCount{{Hour: 10, Crimes: 2}, {Hour: 22, Crimes: 2}}, summary.HourlyCrimes)
	assert.Equal(t, []schema.SeasonCount{
		{Season: 1, Crimes: 0}, {Season: 2, Crimes: 0}, {Season: 3, Crimes: 4}, {Season: 4, Crimes: 0},
	}, summary.SeasonCrimes)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.TotalCrimes)
	assert.Zero(t, empty.ArrestRate)
}

func TestWriteCrossTable(t *testing.T) {
	summary := Summarize([]schema.CleanedRecord{
		record("THEFT", 1, false, false, false),
		record("BATTERY", 2, false, false, false),
		record("BATTERY", 3, false, false, false),
	})

	var buf bytes.Buffer
	require.NoError(t, WriteCrossTable(&buf, summary))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1+2*3)
	assert.Equal(t, CrossTableHeader, rows[0])
	assert.Equal(t, []string{"BATTERY", "2", "1", "1"}, rows[1])
}

func TestSaveSummary(t *testing.T) {
	dir := t.TempDir()
	summary := Summarize([]schema.CleanedRecord{record("THEFT", 1, true, false, false)})

	summaryPath := filepath.Join(dir, schema.SummaryFile)
	crossPath := filepath.Join(dir, schema.CrossTableFile)
	require.NoError(t, SaveSummary(summaryPath, crossPath, summary))

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.EqualValues(t, 1, back["total_crimes"])
	assert.EqualValues(t, 1, back["arrest_rate"])

	_, err = os.Stat(crossPath)
	assert.NoError(t, err)
}

func TestSummarizeSeasons(t *testing.T) {
	var records []schema.CleanedRecord
	for _, month := range []int{12, 1, 2, 3, 6, 9, 11} {
		rec := record("THEFT", 12, false, false, false)
		rec.Month = month
		records = append(records, rec)
	}

	summary := Summarize(records)
	assert.Equal(t, []schema.SeasonCount{
		{Season: 1, Crimes: 3}, {Season: 2, Crimes: 1}, {Season: 3, Crimes: 1}, {Season: 4, Crimes: 2},
	}, summary.SeasonCrimes)
}
