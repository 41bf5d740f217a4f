package f1

import (
	"encoding/json"
	"fmt"
	"time"
)

// Resource identifies one of the independently fetched and cached data sets.
type Resource string

const (
	ResourceDrivers      Resource = "drivers"
	ResourceConstructors Resource = "constructors"
	ResourceSeason       Resource = "season"
)

// Resources returns every resource in a stable order.
func Resources() []Resource {
	return []Resource{ResourceDrivers, ResourceConstructors, ResourceSeason}
}

// ParseResource maps a name to a Resource.
func ParseResource(s string) (Resource, error) {
	switch r := Resource(s); r {
	case ResourceDrivers, ResourceConstructors, ResourceSeason:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResource, s)
}

func (r Resource) String() string {
	return string(r)
}

// Snapshot is the latest cached document for a resource.
type Snapshot struct {
	Resource Resource `json:"resource"`
	Data     MRData   `json:"-"`

	// Raw holds the MRData payload exactly as received, envelope removed.
	Raw json.RawMessage `json:"data"`

	Checksum    string    `json:"checksum"`
	Revision    string    `json:"revision"`
	FetchedAt   time.Time `json:"fetchedAt"` // always UTC
	Placeholder bool      `json:"placeholder"`
}

// standingsList returns the first standings list, or nil.
func (s *Snapshot) standingsList() *StandingsList {
	if s.Data.StandingsTable == nil || len(s.Data.StandingsTable.StandingsLists) == 0 {
		return nil
	}
	return &s.Data.StandingsTable.StandingsLists[0]
}

func (s *Snapshot) races() []Race {
	if s.Data.RaceTable == nil {
		return nil
	}
	return s.Data.RaceTable.Races
}

// DriverRow is the flattened view of one driver standings place.
type DriverRow struct {
	Driver      string `json:"driver"`
	Points      string `json:"points"`
	Nationality string `json:"nationality"`
	Team        string `json:"team"`
	DriverID    string `json:"driverId"`
	Season      string `json:"season"`
	Place       int    `json:"place"`
}

// Attributes returns the row keyed the way the host expects it.
func (r DriverRow) Attributes() map[string]any {
	return map[string]any{
		"driver":      r.Driver,
		"points":      r.Points,
		"nationality": r.Nationality,
		"team":        r.Team,
		"driverId":    r.DriverID,
		"season":      r.Season,
		"place":       r.Place,
	}
}

// ConstructorRow is the flattened view of one constructor standings place.
type ConstructorRow struct {
	Constructor   string `json:"constructor"`
	Points        string `json:"points"`
	Nationality   string `json:"nationality"`
	ConstructorID string `json:"constructorId"`
	Season        string `json:"season"`
	Place         int    `json:"place"`
}

func (r ConstructorRow) Attributes() map[string]any {
	return map[string]any{
		"constructor":   r.Constructor,
		"points":        r.Points,
		"nationality":   r.Nationality,
		"constructorId": r.ConstructorID,
		"season":        r.Season,
		"place":         r.Place,
	}
}

// RaceRecord is the flattened view of one scheduled race weekend.
// FP3 and Sprint fields are nil when the weekend has no such session.
type RaceRecord struct {
	RaceName string `json:"raceName"`
	Season   string `json:"season"`
	Round    string `json:"round"`
	Date     string `json:"date"`
	Time     string `json:"time"`

	FP1Date  string `json:"fp1_date"`
	FP1Time  string `json:"fp1_time"`
	FP2Date  string `json:"fp2_date"`
	FP2Time  string `json:"fp2_time"`
	QualDate string `json:"qual_date"`
	QualTime string `json:"qual_time"`

	FP3Date    *string `json:"fp3_date,omitempty"`
	FP3Time    *string `json:"fp3_time,omitempty"`
	SprintDate *string `json:"sprint_date,omitempty"`
	SprintTime *string `json:"sprint_time,omitempty"`
}

// Attributes returns the record keyed the way the host expects it. Optional
// session keys are present only when the session exists.
func (r RaceRecord) Attributes() map[string]any {
	m := map[string]any{
		"raceName":  r.RaceName,
		"season":    r.Season,
		"round":     r.Round,
		"date":      r.Date,
		"time":      r.Time,
		"fp1_date":  r.FP1Date,
		"fp1_time":  r.FP1Time,
		"fp2_date":  r.FP2Date,
		"fp2_time":  r.FP2Time,
		"qual_date": r.QualDate,
		"qual_time": r.QualTime,
	}
	if r.FP3Date != nil {
		m["fp3_date"] = *r.FP3Date
		m["fp3_time"] = deref(r.FP3Time)
	}
	if r.SprintDate != nil {
		m["sprint_date"] = *r.SprintDate
		m["sprint_time"] = deref(r.SprintTime)
	}
	return m
}

// DateTime is the ISO-8601-like concatenation of the race date and time.
func (r RaceRecord) DateTime() string {
	return r.Date + "T" + r.Time
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
