package routing

import (
	"math"

	"github.com/shenikar/incident_orchestrator/internal/models"
)

const earthRadiusKm = 6371.0

// DistanceKm - расстояние по большому кругу (формула гаверсинусов)
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180.0
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func serviceDistanceKm(s models.EmergencyService, loc models.GPSLocation) float64 {
	return DistanceKm(s.Latitude, s.Longitude, loc.Latitude, loc.Longitude)
}
