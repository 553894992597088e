package matching

import (
	"math/rand/v2"

	"github.com/tbourn/ltrain-backend/internal/stations"
)

// VenueSource lists the venues registered near a station.
type VenueSource interface {
	Venues(stationID string) []stations.Venue
}

// VenuePicker suggests a venue at a station, uniformly at random among the
// registered options. Repeated calls for the same station may differ.
type VenuePicker struct {
	Source VenueSource

	// IntN returns a value in [0,n). Defaults to math/rand/v2.IntN.
	IntN func(n int) int
}

// NewVenuePicker returns a picker backed by src.
func NewVenuePicker(src VenueSource) *VenuePicker {
	return &VenuePicker{Source: src, IntN: rand.IntN}
}

// VenueFor returns a venue name for stationID, or ok=false when the station
// has none.
func (p *VenuePicker) VenueFor(stationID string) (name string, ok bool) {
	if p == nil || p.Source == nil {
		return "", false
	}
	venues := p.Source.Venues(stationID)
	if len(venues) == 0 {
		return "", false
	}
	pick := p.IntN
	if pick == nil {
		pick = rand.IntN
	}
	return venues[pick(len(venues))].Name, true
}
