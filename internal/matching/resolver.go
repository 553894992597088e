// Package matching contains the pure functions behind meetup negotiation:
// choosing a meeting station for two riders, suggesting a venue there, and
// scoring profiles for discovery ranking.
package matching

import "github.com/tbourn/ltrain-backend/internal/domain"

// Line reports a station's position along the line. *stations.Catalog
// satisfies it.
type Line interface {
	Index(id string) (int, bool)
}

// MeetingStation picks where the proposer (a) and the target (b) should
// meet.
//
//   - same station: that station.
//   - either station off the line: a.
//   - opposite directions: a. The proposer is favoured; this is a product
//     simplification rather than a fairness rule.
//   - same direction: whichever of a and b comes first in line order.
//
// Empty directions are treated as domain.DefaultDirection.
func MeetingStation(line Line, a, b string, dirA, dirB domain.Direction) string {
	if a == b {
		return a
	}

	ia, okA := line.Index(a)
	ib, okB := line.Index(b)
	if !okA || !okB {
		return a
	}

	if normalize(dirA) != normalize(dirB) {
		return a
	}

	if ia < ib {
		return a
	}
	return b
}

func normalize(d domain.Direction) domain.Direction {
	if d == "" {
		return domain.DefaultDirection
	}
	return d
}
