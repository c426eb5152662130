package geospatial

import (
	"math"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// EarthRadiusKm is the IUGG mean Earth radius.
const EarthRadiusKm = 6371.0088

// Haversine calculates the great-circle distance in kilometers between two
// lat/lon pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push a a hair past 1 for near-antipodal points.
	a = math.Min(1, math.Max(0, a))

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// DistanceKm returns the surface distance between two points. It is
// symmetric and zero for identical points. Inputs are assumed valid.
func DistanceKm(a, b domain.GeoPoint) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
