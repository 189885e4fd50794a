package ingest

import (
	"fmt"
	"math"
	"time"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// Clean drops records without coordinates or with an unparsable timestamp and
// derives the time fields of the survivors. The input is not modified.
// Zero survivors is reported as ErrDataExhausted.
func Clean(records []schema.IncidentRecord) ([]schema.CleanedRecord, schema.CleanStats, error) {
	stats := schema.CleanStats{RawRows: len(records)}
	cleaned := make([]schema.CleanedRecord, 0, len(records))

	for _, rec := range records {
		if !validCoordinate(rec.Latitude) || !validCoordinate(rec.Longitude) {
			stats.MissingCoordinates++
			continue
		}
		ts, ok := ParseTimestamp(rec.RawDate)
		if !ok {
			stats.UnparsableDates++
			continue
		}
		cleaned = append(cleaned, deriveRecord(rec, ts))
	}

	stats.CleanedRows = len(cleaned)
	if len(cleaned) == 0 {
		return nil, stats, fmt.Errorf("%w: %d raw rows, %d missing coordinates, %d unparsable dates",
			contract.ErrDataExhausted, stats.RawRows, stats.MissingCoordinates, stats.UnparsableDates)
	}
	return cleaned, stats, nil
}

func validCoordinate(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// deriveRecord builds the cleaned record with hour, day name, month and weekend flag.
func deriveRecord(rec schema.IncidentRecord, ts time.Time) schema.CleanedRecord {
	weekday := ts.Weekday()
	return schema.CleanedRecord{
		ID:                  rec.ID,
		CaseNumber:          rec.CaseNumber,
		Date:                ts,
		Block:               rec.Block,
		PrimaryType:         rec.PrimaryType,
		Description:         rec.Description,
		LocationDescription: rec.LocationDescription,
		Arrest:              rec.Arrest,
		Domestic:            rec.Domestic,
		District:            rec.District,
		Latitude:            *rec.Latitude,
		Longitude:           *rec.Longitude,
		Hour:                ts.Hour(),
		Day:                 weekday.String(),
		Month:               int(ts.Month()),
		IsWeekend:           weekday == time.Saturday || weekday == time.Sunday,
	}
}
