package features

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"io"
	"slices"
	"strconv"

	"github.com/huangsam/patrolq/internal/contract"
	"github.com/huangsam/patrolq/schema"
)

// CrossTableHeader is the header of the crime-type by hour export.
var CrossTableHeader = []string{"Crime_Type", "Count", "Hour", "Crimes"}

// Summarize computes the exploratory statistics of a cleaned dataset.
// Crime types are sorted by count descending, then by name.
func Summarize(records []schema.CleanedRecord) schema.CrimeSummary {
	summary := schema.CrimeSummary{TotalCrimes: len(records)}
	if len(records) == 0 {
		return summary
	}

	var arrests, domestic, weekend int
	byType := map[string]int{}
	byHour := map[int]int{}
	var bySeason [4]int
	summary.FirstIncident = records[0].Date
	summary.LastIncident = records[0].Date

	for _, rec := range records {
		if rec.Arrest {
			arrests++
		}
		if rec.Domestic {
			domestic++
		}
		if rec.IsWeekend {
			weekend++
		}
		byType[rec.PrimaryType]++
		byHour[rec.Hour]++
		bySeason[Season(rec.Month)-1]++
		if rec.Date.Before(summary.FirstIncident) {
			summary.FirstIncident = rec.Date
		}
		if rec.Date.After(summary.LastIncident) {
			summary.LastIncident = rec.Date
		}
	}

	total := float64(len(records))
	summary.ArrestRate = float64(arrests) / total
	summary.DomesticRate = float64(domestic) / total
	summary.WeekendShare = float64(weekend) / total

	for crimeType, count := range byType {
		summary.CrimeTypes = append(summary.CrimeTypes, schema.CategoryCount{CrimeType: crimeType, Count: count})
	}
	slices.SortFunc(summary.CrimeTypes, func(a, b schema.CategoryCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.CrimeType, b.CrimeType)
	})

	for hour, crimes := range byHour {
		summary.HourlyCrimes = append(summary.HourlyCrimes, schema.HourCount{Hour: hour, Crimes: crimes})
	}
	slices.SortFunc(summary.HourlyCrimes, func(a, b schema.HourCount) int {
		return cmp.Compare(a.Hour, b.Hour)
	})

	for i, crimes := range bySeason {
		summary.SeasonCrimes = append(summary.SeasonCrimes, schema.SeasonCount{Season: i + 1, Crimes: crimes})
	}
	return summary
}

// WriteCrossTable writes the cross product of the crime-type and hourly
// distributions, one row per (type, hour) pair.
func WriteCrossTable(w io.Writer, summary schema.CrimeSummary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CrossTableHeader); err != nil {
		return err
	}
	for _, ct := range summary.CrimeTypes {
		for _, hc := range summary.HourlyCrimes {
			row := []string{ct.CrimeType, strconv.Itoa(ct.Count), strconv.Itoa(hc.Hour), strconv.Itoa(hc.Crimes)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveSummary persists the summary JSON and the cross table CSV atomically.
func SaveSummary(summaryPath, crossTablePath string, summary schema.CrimeSummary) error {
	if err := contract.WriteFileAtomic(summaryPath, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}); err != nil {
		return err
	}
	return contract.WriteFileAtomic(crossTablePath, func(w io.Writer) error {
		return WriteCrossTable(w, summary)
	})
}
