package solver

import (
	"math"

	"adhan-manager/internal/domain"
)

var makkah = domain.Coordinates{Latitude: 21.4225241, Longitude: 39.8261818}

// Qibla returns the direction of the Kaaba in degrees clockwise from true north.
func (s *Solver) Qibla(coords domain.Coordinates) float64 {
	dLng := makkah.Longitude - coords.Longitude
	term1 := sin(dLng)
	term2 := cos(coords.Latitude)*tan(makkah.Latitude) - sin(coords.Latitude)*cos(dLng)
	if term1 == 0 && term2 == 0 {
		return 0
	}
	return fixAngle(rtd(math.Atan2(term1, term2)))
}
