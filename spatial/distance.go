package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers

	// KmPerDegree is the flat conversion used for degree-space distances.
	// Network distances in this pipeline are indicative, not geodetic.
	KmPerDegree = 111.0
)

// HaversineKm calculates the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// DegreeDistance is the Euclidean distance in degree space.
func DegreeDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// DegreesToKm converts a degree-space distance to kilometers using the flat
// per-degree factor.
func DegreesToKm(deg float64) float64 {
	return deg * KmPerDegree
}
