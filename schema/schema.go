// Package schema has models and constants shared by all parts of patrolq.
package schema

import "time"

// IncidentRecord is one raw crime event as read from the input file.
// Coordinates are nil when the source cell is empty or not a number.
type IncidentRecord struct {
	ID                  string
	CaseNumber          string
	RawDate             string
	Block               string
	PrimaryType         string
	Description         string
	LocationDescription string
	Arrest              bool
	Domestic            bool
	District            string
	Latitude            *float64
	Longitude           *float64
}

// CleanedRecord is an IncidentRecord with a parsed timestamp and derived time fields.
type CleanedRecord struct {
	ID                  string
	CaseNumber          string
	Date                time.Time
	Block               string
	PrimaryType         string
	Description         string
	LocationDescription string
	Arrest              bool
	Domestic            bool
	District            string
	Latitude            float64
	Longitude           float64
	Hour                int    // 0-23
	Day                 string // weekday name, e.g. "Monday"
	Month               int    // 1-12
	IsWeekend           bool
}

// CleanStats counts what the cleaner kept and dropped.
type CleanStats struct {
	RawRows            int `json:"raw_rows"`
	MissingCoordinates int `json:"missing_coordinates"`
	UnparsableDates    int `json:"unparsable_dates"`
	CleanedRows        int `json:"cleaned_rows"`
}

// Excluded returns the total number of dropped rows.
func (s CleanStats) Excluded() int {
	return s.MissingCoordinates + s.UnparsableDates
}

// CrimeSummary holds the exploratory statistics of a cleaned dataset.
type CrimeSummary struct {
	TotalCrimes   int             `json:"total_crimes"`
	ArrestRate    float64         `json:"arrest_rate"`
	DomesticRate  float64         `json:"domestic_rate"`
	CrimeTypes    []CategoryCount `json:"crime_types"`
	HourlyCrimes  []HourCount     `json:"hourly_crimes"`
	SeasonCrimes  []SeasonCount   `json:"season_crimes"`
	WeekendShare  float64         `json:"weekend_share"`
	FirstIncident time.Time       `json:"first_incident"`
	LastIncident  time.Time       `json:"last_incident"`
}

// CategoryCount is a crime type with its number of incidents.
type CategoryCount struct {
	CrimeType string `json:"crime_type"`
	Count     int    `json:"count"`
}

// SeasonCount is a season (1-4, December through February first) with its
// number of incidents.
type SeasonCount struct {
	Season int `json:"season"`
	Crimes int `json:"crimes"`
}

// HourCount is an hour of day with its number of incidents.
type HourCount struct {
	Hour   int `json:"hour"`
	Crimes int `json:"crimes"`
}
