package f1

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Snapshot returns the latest snapshot of resource, or its placeholder when
// none has been stored yet.
func (s *Service) Snapshot(resource Resource) *Snapshot {
	snap, err := s.store.Latest(resource)
	if err != nil || snap == nil {
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.log.Error("failed to read snapshot", "resource", resource, "error", err)
		}
		return Placeholder(resource)
	}
	return snap
}

// DriverCount returns the number of driver standings places. The declared
// MRData total wins over the list length when it is a positive integer.
func (s *Service) DriverCount() int {
	snap := s.Snapshot(ResourceDrivers)
	n := 0
	if list := snap.standingsList(); list != nil {
		n = len(list.DriverStandings)
	}
	return declaredOr(snap.Data.Total, n)
}

// ConstructorCount follows the same policy as DriverCount.
func (s *Service) ConstructorCount() int {
	snap := s.Snapshot(ResourceConstructors)
	n := 0
	if list := snap.standingsList(); list != nil {
		n = len(list.ConstructorStandings)
	}
	return declaredOr(snap.Data.Total, n)
}

// RaceCount returns the declared number of races in the season.
func (s *Service) RaceCount() int {
	snap := s.Snapshot(ResourceSeason)
	return declaredOr(snap.Data.Total, len(snap.races()))
}

func declaredOr(total string, fallback int) int {
	if n, err := strconv.Atoi(total); err == nil && n > 0 {
		return n
	}
	return fallback
}

// DriverRow returns the driver standing at the 1-based place.
func (s *Service) DriverRow(place int) (DriverRow, error) {
	snap := s.Snapshot(ResourceDrivers)
	list := snap.standingsList()
	if list == nil || place < 1 || place > len(list.DriverStandings) {
		return DriverRow{}, fmt.Errorf("%w: driver place %d", ErrOutOfRange, place)
	}

	d := list.DriverStandings[place-1]
	row := DriverRow{
		Driver:      d.Driver.GivenName + " " + d.Driver.FamilyName,
		Points:      d.Points,
		Nationality: d.Driver.Nationality,
		DriverID:    d.Driver.DriverID,
		Season:      snap.Data.StandingsTable.Season,
		Place:       place,
	}
	if len(d.Constructors) > 0 {
		row.Team = d.Constructors[0].Name
	}
	return row, nil
}

// ConstructorRow returns the constructor standing at the 1-based place.
func (s *Service) ConstructorRow(place int) (ConstructorRow, error) {
	snap := s.Snapshot(ResourceConstructors)
	list := snap.standingsList()
	if list == nil || place < 1 || place > len(list.ConstructorStandings) {
		return ConstructorRow{}, fmt.Errorf("%w: constructor place %d", ErrOutOfRange, place)
	}

	c := list.ConstructorStandings[place-1]
	return ConstructorRow{
		Constructor:   c.Constructor.Name,
		Points:        c.Points,
		Nationality:   c.Constructor.Nationality,
		ConstructorID: c.Constructor.ConstructorID,
		Season:        snap.Data.StandingsTable.Season,
		Place:         place,
	}, nil
}

// NextRaceRound returns the round of the first race, in stored order, that
// starts at or after now. Once the season is over it returns RaceCount.
func (s *Service) NextRaceRound() int {
	now := s.Now()
	for _, race := range s.Snapshot(ResourceSeason).races() {
		start, err := race.StartsAt()
		if err != nil {
			s.log.Warn("skipping race with unparsable start", "round", race.Round, "error", err)
			continue
		}
		if start.Before(now) {
			continue
		}
		round, err := strconv.Atoi(race.Round)
		if err != nil {
			s.log.Warn("skipping race with bad round", "round", race.Round, "error", err)
			continue
		}
		return round
	}
	return s.RaceCount()
}

// StartsAt builds the UTC start instant from the race date and time. The
// upstream time carries a trailing "Z"; a missing time means midnight.
func (r Race) StartsAt() (time.Time, error) {
	clock := strings.TrimSuffix(r.Time, "Z")
	if clock == "" {
		clock = "00:00:00"
	}
	return time.ParseInLocation("2006-01-02 15:04:05", r.Date+" "+clock, time.UTC)
}

// RaceRecord returns the race at the 1-based round index.
func (s *Service) RaceRecord(round int) (RaceRecord, error) {
	race, err := s.race(round)
	if err != nil {
		return RaceRecord{}, err
	}
	return recordOf(race), nil
}

func (s *Service) race(round int) (Race, error) {
	races := s.Snapshot(ResourceSeason).races()
	if round < 1 || round > len(races) {
		return Race{}, fmt.Errorf("%w: race round %d", ErrOutOfRange, round)
	}
	return races[round-1], nil
}

func recordOf(race Race) RaceRecord {
	rec := RaceRecord{
		RaceName: race.RaceName,
		Season:   race.Season,
		Round:    race.Round,
		Date:     race.Date,
		Time:     race.Time,
		FP1Date:  race.FirstPractice.Date,
		FP1Time:  race.FirstPractice.Time,
		FP2Date:  race.SecondPractice.Date,
		FP2Time:  race.SecondPractice.Time,
		QualDate: race.Qualifying.Date,
		QualTime: race.Qualifying.Time,
	}
	if fp3 := race.ThirdPractice; fp3 != nil {
		date, clock := fp3.Date, fp3.Time
		rec.FP3Date, rec.FP3Time = &date, &clock
	}
	if sprint := race.Sprint; sprint != nil {
		date, clock := sprint.Date, sprint.Time
		rec.SprintDate, rec.SprintTime = &date, &clock
	}
	return rec
}

// NextRace describes the race returned by NextRaceRound.
type NextRace struct {
	Round    int        `json:"round"`
	Record   RaceRecord `json:"race"`
	StartsAt time.Time  `json:"startsAt"`

	// Finished is set when every race of the season has started.
	Finished bool `json:"finished"`
}

// NextRace resolves NextRaceRound to its record and start instant.
func (s *Service) NextRace() (NextRace, error) {
	round := s.NextRaceRound()
	race, err := s.race(round)
	if err != nil {
		return NextRace{}, err
	}
	start, err := race.StartsAt()
	if err != nil {
		return NextRace{}, fmt.Errorf("race round %d start: %w", round, err)
	}
	return NextRace{
		Round:    round,
		Record:   recordOf(race),
		StartsAt: start,
		Finished: start.Before(s.Now()),
	}, nil
}
