// Package features turns cleaned incidents into the numeric feature matrix
// and computes exploratory summaries over them.
package features

import (
	"github.com/huangsam/patrolq/schema"
	"gonum.org/v1/gonum/mat"
)

// BaselineSeverity is the severity of any crime type not in the severity table.
const BaselineSeverity = 1

var severityByType = map[string]float64{
	"HOMICIDE": 5,
	"ROBBERY":  4,
	"BATTERY":  3,
}

// Severity maps a crime type to its ordinal severity. Matching is exact.
func Severity(crimeType string) float64 {
	if s, ok := severityByType[crimeType]; ok {
		return s
	}
	return BaselineSeverity
}

// Season returns the quarter-of-year bucket (1-4) for a month, with
// December grouped alongside January and February.
func Season(month int) int {
	return month%12/3 + 1
}

// Vector returns the feature vector of one record in schema.FeatureColumns order.
func Vector(rec schema.CleanedRecord) []float64 {
	return []float64{
		rec.Latitude,
		rec.Longitude,
		float64(rec.Hour),
		float64(rec.Month),
		boolToFloat(rec.IsWeekend),
		boolToFloat(rec.Arrest),
		boolToFloat(rec.Domestic),
		Severity(rec.PrimaryType),
	}
}

// Build projects the records into a dense rows x len(schema.FeatureColumns) matrix.
// It returns nil for an empty input.
func Build(records []schema.CleanedRecord) *mat.Dense {
	if len(records) == 0 {
		return nil
	}
	cols := len(schema.FeatureColumns)
	data := make([]float64, 0, len(records)*cols)
	for _, rec := range records {
		data = append(data, Vector(rec)...)
	}
	return mat.NewDense(len(records), cols, data)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
