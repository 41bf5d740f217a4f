package f1

import "fmt"

// Sentinel documents served while a resource has no usable snapshot. Every
// field an accessor reads is present, so reads degrade to "error" values
// instead of failing.
const (
	placeholderDrivers = `{"StandingsTable":{"season":"error","StandingsLists":[{"season":"error","round":"error","DriverStandings":[{"position":"1","positionText":"1","points":"error","wins":"error","Driver":{"driverId":"error","givenName":"error","familyName":"error","nationality":"error"},"Constructors":[{"constructorId":"error","name":"error","nationality":"error"}]}]}]}}`

	placeholderConstructors = `{"StandingsTable":{"season":"error","StandingsLists":[{"season":"error","round":"1","ConstructorStandings":[{"position":"1","positionText":"1","points":"0","wins":"0","Constructor":{"constructorId":"error","url":"error","name":"error","nationality":"error"}}]}]}}`

	placeholderSeason = `{"series":"f1","limit":"30","offset":"0","total":"1","RaceTable":{"season":"error","Races":[{"season":"error","round":"1","url":"error","raceName":"error","Circuit":{"circuitId":"error","url":"error","circuitName":"error","Location":{"lat":"error","long":"error","locality":"error","country":"error"}},"date":"2022-03-20","time":"15:00:00Z","FirstPractice":{"date":"2022-03-18","time":"12:00:00Z"},"SecondPractice":{"date":"2022-03-18","time":"15:00:00Z"},"ThirdPractice":{"date":"2022-03-19","time":"12:00:00Z"},"Qualifying":{"date":"2022-03-19","time":"15:00:00Z"}}]}}`
)

var placeholders = func() map[Resource]*Snapshot {
	docs := map[Resource]string{
		ResourceDrivers:      placeholderDrivers,
		ResourceConstructors: placeholderConstructors,
		ResourceSeason:       placeholderSeason,
	}
	m := make(map[Resource]*Snapshot, len(docs))
	for r, doc := range docs {
		snap, err := decodePayload(r, []byte(doc))
		if err != nil {
			panic(fmt.Sprintf("f1: invalid placeholder for %s: %v", r, err))
		}
		snap.Revision = "placeholder"
		snap.Placeholder = true
		m[r] = snap
	}
	return m
}()

// Placeholder returns the fixed sentinel snapshot for resource. The result is
// shared and must not be modified.
func Placeholder(resource Resource) *Snapshot {
	return placeholders[resource]
}
