package f1_test

import (
	"errors"
	"testing"
	"time"

	"github.com/i474232898/f1-sensors/internal/f1"
)

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name     string
		resource f1.Resource
		body     string
	}{
		{"not json", f1.ResourceDrivers, `<!doctype html>`},
		{"truncated", f1.ResourceSeason, `{"MRData":{"RaceTable":{"Races":[`},
		{"no envelope", f1.ResourceDrivers, `{"StandingsTable":{"StandingsLists":[]}}`},
		{"null envelope", f1.ResourceConstructors, `{"MRData":null}`},
		{"no standings table", f1.ResourceDrivers, `{"MRData":{"total":"0"}}`},
		{"points not a string", f1.ResourceDrivers, `{"MRData":{"StandingsTable":{"StandingsLists":[{"DriverStandings":[{"points":87,"Driver":{"driverId":"max_verstappen"}}]}]}}}`},
		{"driver without id", f1.ResourceDrivers, `{"MRData":{"StandingsTable":{"StandingsLists":[{"DriverStandings":[{"Driver":{"givenName":"Max"}}]}]}}}`},
		{"no race table", f1.ResourceSeason, `{"MRData":{"StandingsTable":{}}}`},
		{"race without date", f1.ResourceSeason, `{"MRData":{"RaceTable":{"Races":[{"round":"1","raceName":"x"}]}}}`},
		{"unknown resource", f1.Resource("laps"), `{"MRData":{}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f1.Decode(tc.resource, []byte(tc.body), time.Now())
			if !errors.Is(err, f1.ErrMalformed) {
				t.Fatalf("Decode() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecodeAcceptsPreSeasonStandings(t *testing.T) {
	for _, r := range []f1.Resource{f1.ResourceDrivers, f1.ResourceConstructors} {
		for _, body := range []string{
			`{"MRData":{"total":"0","StandingsTable":{"season":"2025","StandingsLists":[]}}}`,
			`{"MRData":{"total":"0","StandingsTable":{"season":"2025"}}}`,
		} {
			snap, err := f1.Decode(r, []byte(body), time.Now())
			if err != nil {
				t.Fatalf("Decode(%s, %s): %v", r, body, err)
			}
			if snap.Data.StandingsTable.Season != "2025" {
				t.Fatalf("Decode(%s) season = %q", r, snap.Data.StandingsTable.Season)
			}
		}
	}
}

func TestDecodeBodyRoundTrip(t *testing.T) {
	body := readFixture(t, "drivers.json")
	now := time.Date(2024, 3, 3, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	snap, err := f1.Decode(f1.ResourceDrivers, body, now)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if snap.FetchedAt.Location() != time.UTC {
		t.Fatalf("FetchedAt location = %s, want UTC", snap.FetchedAt.Location())
	}
	if snap.Revision == "" || snap.Placeholder {
		t.Fatalf("Decode() snapshot = revision %q placeholder %v", snap.Revision, snap.Placeholder)
	}

	again, err := f1.Decode(f1.ResourceDrivers, snap.Body(), now)
	if err != nil {
		t.Fatalf("Decode(Body()): %v", err)
	}
	if again.Checksum != snap.Checksum {
		t.Fatalf("checksum changed across Body(): %s != %s", again.Checksum, snap.Checksum)
	}
	if again.Revision == snap.Revision {
		t.Fatalf("revision reused across decodes")
	}
}

func TestDecodeSeasonKeepsOptionalSessions(t *testing.T) {
	snap, err := f1.Decode(f1.ResourceSeason, readFixture(t, "season.json"), time.Now())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	races := snap.Data.RaceTable.Races
	if len(races) != 3 {
		t.Fatalf("len(Races) = %d, want 3", len(races))
	}
	if races[0].Sprint != nil || races[0].ThirdPractice == nil {
		t.Errorf("round 1 sessions: sprint %v fp3 %v", races[0].Sprint, races[0].ThirdPractice)
	}
	if races[1].Sprint == nil || races[1].ThirdPractice != nil {
		t.Errorf("round 2 sessions: sprint %v fp3 %v", races[1].Sprint, races[1].ThirdPractice)
	}

	start, err := races[0].StartsAt()
	if err != nil {
		t.Fatalf("StartsAt: %v", err)
	}
	if want := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("StartsAt() = %s, want %s", start, want)
	}
}

func TestRaceStartsAtWithoutTime(t *testing.T) {
	start, err := f1.Race{Date: "2024-11-24"}.StartsAt()
	if err != nil {
		t.Fatalf("StartsAt: %v", err)
	}
	if want := time.Date(2024, 11, 24, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("StartsAt() = %s, want %s", start, want)
	}
	if _, err := (f1.Race{Date: "24/11/2024"}).StartsAt(); err == nil {
		t.Fatalf("StartsAt() accepted a non-ISO date")
	}
}

func TestPlaceholders(t *testing.T) {
	for _, r := range f1.Resources() {
		p := f1.Placeholder(r)
		if p == nil {
			t.Fatalf("Placeholder(%s) is nil", r)
		}
		if !p.Placeholder || p.Resource != r {
			t.Errorf("Placeholder(%s) = resource %s placeholder %v", r, p.Resource, p.Placeholder)
		}
		if _, err := f1.Decode(r, p.Body(), time.Now()); err != nil {
			t.Errorf("Placeholder(%s) body does not decode: %v", r, err)
		}
	}

	drivers := f1.Placeholder(f1.ResourceDrivers).Data.StandingsTable.StandingsLists[0]
	if id := drivers.DriverStandings[0].Driver.DriverID; id != "error" {
		t.Fatalf("placeholder driverId = %q, want error", id)
	}
}

func TestParseResource(t *testing.T) {
	for _, r := range f1.Resources() {
		got, err := f1.ParseResource(r.String())
		if err != nil || got != r {
			t.Errorf("ParseResource(%q) = %q, %v", r, got, err)
		}
	}
	if _, err := f1.ParseResource("results"); !errors.Is(err, f1.ErrUnknownResource) {
		t.Fatalf("ParseResource(results) error = %v, want ErrUnknownResource", err)
	}
}
