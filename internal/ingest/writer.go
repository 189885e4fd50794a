package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// CleanedDateLayout is the timestamp layout of the persisted cleaned dataset.
const CleanedDateLayout = "2006-01-02 15:04:05"

// WriteCleaned persists the cleaned dataset at path, replacing any previous version atomically.
func WriteCleaned(path string, records []schema.CleanedRecord) error {
	return contract.WriteFileAtomic(path, func(w io.Writer) error {
		return EncodeCleaned(w, records)
	})
}

// EncodeCleaned writes the cleaned dataset as CSV with the fixed cleaned header.
func EncodeCleaned(w io.Writer, records []schema.CleanedRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(schema.CleanedColumns); err != nil {
		return err
	}
	row := make([]string, len(schema.CleanedColumns))
	for _, rec := range records {
		row[0] = rec.ID
		row[1] = rec.CaseNumber
		row[2] = rec.Date.Format(CleanedDateLayout)
		row[3] = rec.Block
		row[4] = rec.PrimaryType
		row[5] = rec.Description
		row[6] = rec.LocationDescription
		row[7] = formatFlag(rec.Arrest)
		row[8] = formatFlag(rec.Domestic)
		row[9] = rec.District
		row[10] = strconv.FormatFloat(rec.Latitude, 'f', -1, 64)
		row[11] = strconv.FormatFloat(rec.Longitude, 'f', -1, 64)
		row[12] = strconv.Itoa(rec.Hour)
		row[13] = rec.Day
		row[14] = strconv.Itoa(rec.Month)
		row[15] = formatFlag(rec.IsWeekend)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCleaned parses a cleaned dataset written by EncodeCleaned.
func ReadCleaned(ctx context.Context, r io.Reader) ([]schema.CleanedRecord, error) {
	incidents, err := ReadIncidents(ctx, r)
	if err != nil {
		return nil, err
	}
	cleaned, _, err := Clean(incidents)
	return cleaned, err
}

func formatFlag(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
