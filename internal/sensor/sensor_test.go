package sensor

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/i474232898/f1-sensors/internal/f1"
)

// fakeAccessors reports counts independently of the rows it can serve, so a
// sensor can outlive its index.
type fakeAccessors struct {
	drivers      []f1.DriverRow
	constructors []f1.ConstructorRow
	races        []f1.RaceRecord
	driverCount  int
	next         int
}

func (f *fakeAccessors) DriverCount() int      { return f.driverCount }
func (f *fakeAccessors) ConstructorCount() int { return len(f.constructors) }
func (f *fakeAccessors) RaceCount() int        { return len(f.races) }
func (f *fakeAccessors) NextRaceRound() int    { return f.next }

func (f *fakeAccessors) DriverRow(place int) (f1.DriverRow, error) {
	if place < 1 || place > len(f.drivers) {
		return f1.DriverRow{}, f1.ErrOutOfRange
	}
	return f.drivers[place-1], nil
}

func (f *fakeAccessors) ConstructorRow(place int) (f1.ConstructorRow, error) {
	if place < 1 || place > len(f.constructors) {
		return f1.ConstructorRow{}, f1.ErrOutOfRange
	}
	return f.constructors[place-1], nil
}

func (f *fakeAccessors) RaceRecord(round int) (f1.RaceRecord, error) {
	if round < 1 || round > len(f.races) {
		return f1.RaceRecord{}, f1.ErrOutOfRange
	}
	return f.races[round-1], nil
}

func newFake() *fakeAccessors {
	return &fakeAccessors{
		drivers: []f1.DriverRow{
			{Driver: "Max Verstappen", Points: "87", Team: "Red Bull", DriverID: "max_verstappen", Place: 1},
			{Driver: "Charles Leclerc", Points: "59", Team: "Ferrari", DriverID: "leclerc", Place: 2},
		},
		constructors: []f1.ConstructorRow{
			{Constructor: "Red Bull", Points: "146", ConstructorID: "red_bull", Place: 1},
		},
		races: []f1.RaceRecord{
			{RaceName: "Bahrain Grand Prix", Round: "1", Date: "2024-03-02", Time: "15:00:00Z"},
			{RaceName: "Saudi Arabian Grand Prix", Round: "2", Date: "2024-03-09", Time: "17:00:00Z"},
		},
		driverCount: 2,
		next:        2,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegistryIDsAndNames(t *testing.T) {
	reg := NewRegistry(newFake(), quietLogger())

	want := []string{
		"next_race_name", "next_race_date",
		"driver_01", "driver_02",
		"constructor_01",
		"race_01", "race_02",
	}
	ids := reg.IDs()
	if len(ids) != len(want) || reg.Len() != len(want) {
		t.Fatalf("IDs() = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("IDs()[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	s, err := reg.Get("driver_02")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Name != "F1 Driver 02" || s.State != "Charles Leclerc" {
		t.Fatalf("Get(driver_02) = %+v", s)
	}
	if s.Attributes["team"] != "Ferrari" {
		t.Fatalf("driver_02 team = %v", s.Attributes["team"])
	}
	if _, ok := s.Attributes["driver"]; ok {
		t.Fatalf("primary value duplicated in attributes")
	}
}

func TestNextRaceSensors(t *testing.T) {
	reg := NewRegistry(newFake(), quietLogger())

	name, _ := reg.Get("next_race_name")
	if name.State != "Saudi Arabian Grand Prix" {
		t.Fatalf("next_race_name = %q", name.State)
	}
	date, _ := reg.Get("next_race_date")
	if date.State != "2024-03-09T17:00:00Z" {
		t.Fatalf("next_race_date = %q", date.State)
	}
}

func TestSensorUnavailableWhenIndexGone(t *testing.T) {
	fake := newFake()
	reg := NewRegistry(fake, quietLogger())

	// A newer snapshot with fewer drivers than at startup.
	fake.drivers = fake.drivers[:1]

	s, err := reg.Get("driver_02")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.State != StateUnavailable || s.Attributes != nil {
		t.Fatalf("Get(driver_02) = %+v, want unavailable", s)
	}
	if first, _ := reg.Get("driver_01"); first.State != "Max Verstappen" {
		t.Fatalf("driver_01 = %q", first.State)
	}
}

func TestGetUnknownSensor(t *testing.T) {
	reg := NewRegistry(newFake(), quietLogger())
	if _, err := reg.Get("driver_99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(driver_99) error = %v, want ErrNotFound", err)
	}
}

func TestByKind(t *testing.T) {
	reg := NewRegistry(newFake(), quietLogger())

	races := reg.ByKind(KindRace)
	if len(races) != 2 || races[0].Name != "F1 Race 01" || races[1].Name != "F1 Race 02" {
		t.Fatalf("ByKind(race) = %+v", races)
	}
	if len(reg.ByKind(Kind("weather"))) != 0 {
		t.Fatalf("ByKind(unknown) returned sensors")
	}
	if len(reg.All()) != reg.Len() {
		t.Fatalf("All() length differs from Len()")
	}
}
