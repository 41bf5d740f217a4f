// Package sensor turns the snapshot accessors into named, pollable values:
// one sensor per standings place and per race, plus two next-race sensors.
package sensor

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/i474232898/f1-sensors/internal/f1"
)

// StateUnavailable is reported when a sensor's index no longer exists in the
// current snapshot.
const StateUnavailable = "unavailable"

// ErrNotFound is returned for an unknown sensor ID.
var ErrNotFound = errors.New("sensor not found")

// Kind groups sensors by the accessor behind them.
type Kind string

const (
	KindDriver       Kind = "driver"
	KindConstructor  Kind = "constructor"
	KindRace         Kind = "race"
	KindNextRaceName Kind = "next_race_name"
	KindNextRaceDate Kind = "next_race_date"
)

// Sensor is one polled value: a primary state plus auxiliary attributes.
type Sensor struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       Kind           `json:"kind"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Accessors is the read side the sensors poll.
type Accessors interface {
	DriverCount() int
	ConstructorCount() int
	RaceCount() int
	DriverRow(place int) (f1.DriverRow, error)
	ConstructorRow(place int) (f1.ConstructorRow, error)
	RaceRecord(round int) (f1.RaceRecord, error)
	NextRaceRound() int
}

type spec struct {
	id    string
	name  string
	kind  Kind
	index int
}

// Registry is the fixed set of sensors created at startup.
type Registry struct {
	acc   Accessors
	log   *slog.Logger
	specs []spec
	byID  map[string]int
}

// NewRegistry sizes the sensor set from the current counts. Call it after the
// first fetch so the counts reflect real data.
func NewRegistry(acc Accessors, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{acc: acc, log: log, byID: make(map[string]int)}

	r.add(spec{id: "next_race_name", name: "F1 Next Race Name", kind: KindNextRaceName})
	r.add(spec{id: "next_race_date", name: "F1 Next Race Date", kind: KindNextRaceDate})
	for i := 1; i <= acc.DriverCount(); i++ {
		r.add(indexed(KindDriver, "F1 Driver", i))
	}
	for i := 1; i <= acc.ConstructorCount(); i++ {
		r.add(indexed(KindConstructor, "F1 Constructor", i))
	}
	for i := 1; i <= acc.RaceCount(); i++ {
		r.add(indexed(KindRace, "F1 Race", i))
	}
	return r
}

func indexed(kind Kind, prefix string, i int) spec {
	return spec{
		id:    fmt.Sprintf("%s_%02d", kind, i),
		name:  fmt.Sprintf("%s %02d", prefix, i),
		kind:  kind,
		index: i,
	}
}

func (r *Registry) add(s spec) {
	r.byID[s.id] = len(r.specs)
	r.specs = append(r.specs, s)
}

// Len returns the number of sensors.
func (r *Registry) Len() int {
	return len(r.specs)
}

// IDs returns every sensor ID in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.specs))
	for i, s := range r.specs {
		ids[i] = s.id
	}
	return ids
}

// Get evaluates one sensor against the current snapshots.
func (r *Registry) Get(id string) (Sensor, error) {
	i, ok := r.byID[id]
	if !ok {
		return Sensor{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return r.eval(r.specs[i]), nil
}

// All evaluates every sensor.
func (r *Registry) All() []Sensor {
	out := make([]Sensor, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, r.eval(s))
	}
	return out
}

// ByKind evaluates the sensors of one kind, sorted by name.
func (r *Registry) ByKind(kind Kind) []Sensor {
	var out []Sensor
	for _, s := range r.specs {
		if s.kind == kind {
			out = append(out, r.eval(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *Registry) eval(s spec) Sensor {
	out := Sensor{ID: s.id, Name: s.name, Kind: s.kind}

	var (
		state string
		attrs map[string]any
		err   error
	)
	switch s.kind {
	case KindDriver:
		var row f1.DriverRow
		if row, err = r.acc.DriverRow(s.index); err == nil {
			state, attrs = row.Driver, row.Attributes()
			delete(attrs, "driver")
		}
	case KindConstructor:
		var row f1.ConstructorRow
		if row, err = r.acc.ConstructorRow(s.index); err == nil {
			state, attrs = row.Constructor, row.Attributes()
			delete(attrs, "constructor")
		}
	case KindRace:
		var rec f1.RaceRecord
		if rec, err = r.acc.RaceRecord(s.index); err == nil {
			state, attrs = rec.RaceName, rec.Attributes()
			delete(attrs, "raceName")
		}
	case KindNextRaceName, KindNextRaceDate:
		var rec f1.RaceRecord
		if rec, err = r.acc.RaceRecord(r.acc.NextRaceRound()); err == nil {
			state = rec.RaceName
			if s.kind == KindNextRaceDate {
				state = rec.DateTime()
			}
		}
	}

	if err != nil {
		r.log.Debug("sensor unavailable", "sensor", s.id, "error", err)
		out.State = StateUnavailable
		return out
	}
	out.State = state
	out.Attributes = attrs
	return out
}
