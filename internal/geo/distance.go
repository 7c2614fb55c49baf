// Package geo holds the great-circle distance math used by trip
// reconstruction.
package geo

import "math"

// earthRadiusKm is the mean Earth radius used by the spherical model.
const earthRadiusKm = 6371

// DistanceKm returns the great-circle distance between two points in
// kilometers using the haversine formula. Symmetric, and zero for
// coincident points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
