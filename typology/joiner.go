package typology

// Estuary typology join.
//
// The typology layer is a global set of coastal polygons, each tagged with a
// geomorphic type code. Segments inherit the type of the polygon they
// intersect. A segment crossing several polygons takes the one it overlaps
// most, measured by the in-polygon length of its geometry, so the assignment
// is deterministic regardless of input ordering.

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"tidal-atlas/geometry"
	"tidal-atlas/models"
	"tidal-atlas/spatial"
)

// Geomorphic type codes of the typology layer.
const (
	TypeKarst        = 0
	TypeCoastalPlain = 1
	TypeDelta        = 2
	TypeLagoon       = 3
	TypeFjordRia     = 4
	TypeLargeRiver   = 5
	TypeSmallDelta   = 6
	TypeArchipelagic = 7
	TypeTidalSystem  = 51
	TypeUnknown      = -9999
)

// TypeName returns the display name of a typology code.
func TypeName(code int) string {
	switch code {
	case TypeKarst:
		return "Karst"
	case TypeCoastalPlain:
		return "Coastal Plain"
	case TypeDelta:
		return "Delta"
	case TypeLagoon:
		return "Lagoon"
	case TypeFjordRia:
		return "Fjord/Ria"
	case TypeLargeRiver:
		return "Large River"
	case TypeSmallDelta:
		return "Small Delta"
	case TypeArchipelagic:
		return "Archipelagic"
	case TypeTidalSystem:
		return "Tidal System"
	default:
		return "Unknown"
	}
}

// ModelCode collapses the typology codes into the ordinal estuary-type
// feature the models consume. Types without a strong tidal signature map to
// the non-estuary bucket.
func ModelCode(code int) float64 {
	switch code {
	case TypeDelta:
		return 1
	case TypeTidalSystem:
		return 2
	case TypeLagoon:
		return 3
	case TypeFjordRia:
		return 4
	case TypeCoastalPlain:
		return 5
	default:
		return 0
	}
}

// Assignment is the typology result for one segment.
type Assignment struct {
	SegmentID string
	ZoneID    string
	TypeCode  int
	OverlapKm float64
}

// Joiner assigns typology zones to river segments.
type Joiner struct {
	zones []geometry.TypologyZone
}

// NewJoiner wraps a zone set. Zones are used as loaded; the caller owns
// filtering out malformed polygons.
func NewJoiner(zones []geometry.TypologyZone) *Joiner {
	return &Joiner{zones: zones}
}

// Assign joins each segment against the typology layer. Segments touching no
// zone are absent from the result; their estuary-type feature stays at the
// non-estuary default. Each segment appears at most once.
func (j *Joiner) Assign(segments []models.Segment) map[string]Assignment {
	out := make(map[string]Assignment)
	for _, seg := range segments {
		best, ok := j.bestZone(seg)
		if !ok {
			continue
		}
		out[seg.ID] = best
	}
	return out
}

func (j *Joiner) bestZone(seg models.Segment) (Assignment, bool) {
	var best Assignment
	found := false

	for _, zone := range j.zones {
		overlap := overlapKm(seg.Geometry, zone.Geometry)
		if overlap <= 0 {
			continue
		}
		if !found || overlap > best.OverlapKm {
			best = Assignment{
				SegmentID: seg.ID,
				ZoneID:    zone.ID,
				TypeCode:  zone.TypeCode,
				OverlapKm: overlap,
			}
			found = true
		}
	}

	return best, found
}

// overlapKm estimates the length of the segment lying inside the zone. Each
// edge is attributed to the zone when its midpoint falls inside, which is
// exact for edges short relative to the polygon and cheap for the rest.
func overlapKm(line orb.LineString, zone orb.MultiPolygon) float64 {
	if len(line) == 0 {
		return 0
	}
	if len(line) == 1 {
		if planar.MultiPolygonContains(zone, line[0]) {
			return math.SmallestNonzeroFloat64
		}
		return 0
	}

	var total float64
	for i := 0; i+1 < len(line); i++ {
		a, b := line[i], line[i+1]
		mid := orb.Point{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
		if !planar.MultiPolygonContains(zone, mid) {
			continue
		}
		total += spatial.HaversineKm(a.Lat(), a.Lon(), b.Lat(), b.Lon())
	}
	return total
}
