// Package ingest reads raw incident files, cleans them and persists the cleaned dataset.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// Input column names. Lookup is case-insensitive.
const (
	colID                  = "id"
	colCaseNumber          = "case number"
	colDate                = "date"
	colBlock               = "block"
	colPrimaryType         = "primary type"
	colDescription         = "description"
	colLocationDescription = "location description"
	colArrest              = "arrest"
	colDomestic            = "domestic"
	colDistrict            = "district"
	colLatitude            = "latitude"
	colLongitude           = "longitude"
)

var requiredColumns = []string{colDate, colLatitude, colLongitude, colPrimaryType, colArrest, colDomestic}

// LoadIncidents opens the CSV at path and reads every incident record.
// A missing file is reported as ErrSourceNotFound.
func LoadIncidents(ctx context.Context, path string) ([]schema.IncidentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contract.ErrSourceNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return ReadIncidents(ctx, f)
}

// ReadIncidents parses incident records from a CSV stream with a header row.
func ReadIncidents(ctx context.Context, r io.Reader) ([]schema.IncidentRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("input has no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("input is missing required column %q", col)
		}
	}

	var records []schema.IncidentRecord
	for line := 2; ; line++ {
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		records = append(records, schema.IncidentRecord{
			ID:                  get(colID),
			CaseNumber:          get(colCaseNumber),
			RawDate:             get(colDate),
			Block:               get(colBlock),
			PrimaryType:         get(colPrimaryType),
			Description:         get(colDescription),
			LocationDescription: get(colLocationDescription),
			Arrest:              contract.ParseFlag(get(colArrest)),
			Domestic:            contract.ParseFlag(get(colDomestic)),
			District:            get(colDistrict),
			Latitude:            parseCoordinate(get(colLatitude)),
			Longitude:           parseCoordinate(get(colLongitude)),
		})
	}
	return records, nil
}

// headerIndex maps lower-cased header names to their column positions.
// The first occurrence of a duplicated name wins.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

// parseCoordinate returns nil for empty or non-numeric cells.
func parseCoordinate(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
