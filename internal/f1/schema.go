package f1

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/minio/sha256-simd"
)

// Envelope is the outer wrapper of every upstream response.
type Envelope struct {
	MRData json.RawMessage `json:"MRData"`
}

// MRData is the substantive payload. Only the fields read by accessors are
// modelled; everything else is kept in Snapshot.Raw.
type MRData struct {
	Series string `json:"series,omitempty"`
	Limit  string `json:"limit,omitempty"`
	Offset string `json:"offset,omitempty"`
	Total  string `json:"total,omitempty"`

	StandingsTable *StandingsTable `json:"StandingsTable,omitempty"`
	RaceTable      *RaceTable      `json:"RaceTable,omitempty"`
}

type StandingsTable struct {
	Season         string          `json:"season"`
	StandingsLists []StandingsList `json:"StandingsLists" validate:"dive"`
}

type StandingsList struct {
	Season               string                `json:"season"`
	Round                string                `json:"round"`
	DriverStandings      []DriverStanding      `json:"DriverStandings,omitempty" validate:"dive"`
	ConstructorStandings []ConstructorStanding `json:"ConstructorStandings,omitempty" validate:"dive"`
}

type DriverStanding struct {
	Position     string        `json:"position"`
	Points       string        `json:"points"`
	Wins         string        `json:"wins"`
	Driver       Driver        `json:"Driver"`
	Constructors []Constructor `json:"Constructors"`
}

type Driver struct {
	DriverID    string `json:"driverId" validate:"required"`
	GivenName   string `json:"givenName"`
	FamilyName  string `json:"familyName"`
	Nationality string `json:"nationality"`
}

type ConstructorStanding struct {
	Position    string      `json:"position"`
	Points      string      `json:"points"`
	Wins        string      `json:"wins"`
	Constructor Constructor `json:"Constructor"`
}

type Constructor struct {
	ConstructorID string `json:"constructorId"`
	Name          string `json:"name"`
	Nationality   string `json:"nationality"`
}

type RaceTable struct {
	Season string `json:"season"`
	Races  []Race `json:"Races" validate:"dive"`
}

// Race is one scheduled weekend. Sessions that only some weekends have are
// pointers so their absence survives decoding.
type Race struct {
	Season   string  `json:"season"`
	Round    string  `json:"round" validate:"required,numeric"`
	RaceName string  `json:"raceName" validate:"required"`
	Date     string  `json:"date" validate:"required"`
	Time     string  `json:"time,omitempty"`
	Circuit  Circuit `json:"Circuit"`

	FirstPractice  Session  `json:"FirstPractice"`
	SecondPractice Session  `json:"SecondPractice"`
	ThirdPractice  *Session `json:"ThirdPractice,omitempty"`
	Qualifying     Session  `json:"Qualifying"`
	Sprint         *Session `json:"Sprint,omitempty"`
}

type Circuit struct {
	CircuitID   string `json:"circuitId"`
	CircuitName string `json:"circuitName"`
}

type Session struct {
	Date string `json:"date"`
	Time string `json:"time,omitempty"`
}

var validate = validator.New()

// Decode parses an upstream body for resource and validates the fields the
// accessors depend on. It is the only place snapshots are built from bytes.
func Decode(resource Resource, body []byte, now time.Time) (*Snapshot, error) {
	var env Envelope
	if err := sonic.ConfigStd.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, resource, err)
	}
	if len(env.MRData) == 0 || string(env.MRData) == "null" {
		return nil, fmt.Errorf("%w: %s: missing MRData envelope", ErrMalformed, resource)
	}

	snap, err := decodePayload(resource, env.MRData)
	if err != nil {
		return nil, err
	}
	snap.FetchedAt = now.UTC()
	return snap, nil
}

func decodePayload(resource Resource, payload []byte) (*Snapshot, error) {
	var data MRData
	if err := sonic.ConfigStd.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, resource, err)
	}
	if err := checkShape(resource, &data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, resource, err)
	}

	return &Snapshot{
		Resource: resource,
		Data:     data,
		Raw:      append(json.RawMessage(nil), payload...),
		Checksum: Checksum(payload),
		Revision: uuid.NewString(),
	}, nil
}

func checkShape(resource Resource, data *MRData) error {
	switch resource {
	case ResourceDrivers, ResourceConstructors:
		// Before the first round of a season StandingsLists is empty; that
		// is a valid document with no places.
		if data.StandingsTable == nil {
			return fmt.Errorf("no StandingsTable")
		}
		if err := validate.Struct(data.StandingsTable); err != nil {
			return err
		}
	case ResourceSeason:
		if data.RaceTable == nil {
			return fmt.Errorf("no RaceTable")
		}
		if err := validate.Struct(data.RaceTable); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResource, string(resource))
	}
	return nil
}

// Checksum returns the hex sha256 of an unwrapped payload.
func Checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Body re-wraps the payload in its envelope, giving a document Decode accepts.
func (s *Snapshot) Body() []byte {
	out := make([]byte, 0, len(s.Raw)+11)
	out = append(out, `{"MRData":`...)
	out = append(out, s.Raw...)
	return append(out, '}')
}
