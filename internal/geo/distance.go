// Package geo provides great-circle geometry on a spherical Earth.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all distance computations.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometers between two
// surface points given in decimal degrees, using the haversine formula.
//
// The haversine form is numerically stable for small separations and takes
// the shortest angular path across the antimeridian without any special
// casing: the longitude difference enters only through sin(Δλ/2), which is
// periodic. Meridian convergence near the poles falls out of the
// cos(φ1)·cos(φ2) term.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lon1r := lon1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	lon2r := lon2 * math.Pi / 180

	dlat := lat2r - lat1r
	dlon := lon2r - lon1r

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)

	a := sinLat*sinLat + math.Cos(lat1r)*math.Cos(lat2r)*sinLon*sinLon

	// Clamp guards against a marginally exceeding 1 from rounding on
	// near-antipodal inputs, which would make Sqrt return NaN territory
	// for Asin.
	if a > 1 {
		a = 1
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}
