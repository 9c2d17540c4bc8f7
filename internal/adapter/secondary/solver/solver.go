// Package solver computes prayer clock times from resolved parameters using
// the sun's declination and equation of time.
package solver

import (
	"fmt"
	"math"
	"time"

	"adhan-manager/internal/domain"
)

const (
	riseSetAngle = 0.833
	iterations   = 2
	polarMaxLat  = 65.0
	polarLatStep = 0.5
	polarMaxDays = 182
)

// Solver implements domain.PrayerTimeSolver.
type Solver struct{}

// New creates a solver.
func New() *Solver {
	return &Solver{}
}

// dayTimes holds hours since 0h UTC of the requested date.
type dayTimes struct {
	fajr, sunrise, dhuhr, asr, sunset, maghrib, isha float64
}

// Compute returns the prayer times of the calendar day of date, in date's location.
func (s *Solver) Compute(coords domain.Coordinates, date time.Time, params domain.ResolvedParameters) (domain.PrayerTimeSet, error) {
	if err := coords.Validate(); err != nil {
		return domain.PrayerTimeSet{}, err
	}
	y, m, d := date.Date()

	times, ok := computeDay(coords, y, m, d, params)
	if !ok {
		var err error
		times, err = resolvePolar(coords, y, m, d, params)
		if err != nil {
			return domain.PrayerTimeSet{}, err
		}
	}

	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	at := func(hours float64, p domain.Prayer) time.Time {
		t := midnight.Add(time.Duration(hours * float64(time.Hour)))
		t = t.Add(time.Duration(params.Adjustments[p]) * time.Minute)
		return t.Round(time.Minute).In(date.Location())
	}
	return domain.PrayerTimeSet{
		Fajr:    at(times.fajr, domain.PrayerFajr),
		Sunrise: at(times.sunrise, domain.PrayerSunrise),
		Dhuhr:   at(times.dhuhr, domain.PrayerDhuhr),
		Asr:     at(times.asr, domain.PrayerAsr),
		Maghrib: at(times.maghrib, domain.PrayerMaghrib),
		Isha:    at(times.isha, domain.PrayerIsha),
	}, nil
}

func resolvePolar(coords domain.Coordinates, y int, m time.Month, d int, params domain.ResolvedParameters) (dayTimes, error) {
	switch params.PolarCircleResolution {
	case domain.PolarAqrabBalad:
		sign := 1.0
		if coords.Latitude < 0 {
			sign = -1
		}
		for lat := math.Min(polarMaxLat, math.Abs(coords.Latitude)); lat >= 0; lat -= polarLatStep {
			near := domain.Coordinates{Latitude: sign * lat, Longitude: coords.Longitude}
			if times, ok := computeDay(near, y, m, d, params); ok {
				return times, nil
			}
		}
	case domain.PolarAqrabYaum:
		base := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		for offset := 1; offset <= polarMaxDays; offset++ {
			for _, dir := range []int{-1, 1} {
				ny, nm, nd := base.AddDate(0, 0, dir*offset).Date()
				if times, ok := computeDay(coords, ny, nm, nd, params); ok {
					return times, nil
				}
			}
		}
	}
	return dayTimes{}, fmt.Errorf("%w (%.4f, %.4f on %04d-%02d-%02d)",
		domain.ErrPolarUnresolved, coords.Latitude, coords.Longitude, y, m, d)
}

// computeDay reports false when the sun does not rise or set that day.
func computeDay(coords domain.Coordinates, y int, m time.Month, d int, params domain.ResolvedParameters) (dayTimes, bool) {
	jd := julianDay(y, int(m), d) - coords.Longitude/(15*24)
	c := calc{lat: coords.Latitude, jd: jd}

	t := dayTimes{fajr: 5, sunrise: 6, dhuhr: 12, asr: 13, sunset: 18, maghrib: 18, isha: 18}
	for i := 0; i < iterations; i++ {
		t = c.pass(t, params)
	}
	if math.IsNaN(t.sunrise) || math.IsNaN(t.sunset) {
		return dayTimes{}, false
	}

	night := fixHour(t.sunrise - t.sunset)
	t.fajr = adjustHighLatitude(t.fajr, t.sunrise, params.FajrAngle, night, true, params.HighLatitudeRule)
	if params.IshaInterval > 0 {
		t.isha = t.maghrib + float64(params.IshaInterval)/60
	} else {
		t.isha = adjustHighLatitude(t.isha, t.sunset, params.IshaAngle, night, false, params.HighLatitudeRule)
	}
	if params.MaghribAngle > 0 {
		t.maghrib = adjustHighLatitude(t.maghrib, t.sunset, params.MaghribAngle, night, false, params.HighLatitudeRule)
	}
	if math.IsNaN(t.asr) {
		return dayTimes{}, false
	}

	offset := coords.Longitude / 15
	t.fajr -= offset
	t.sunrise -= offset
	t.dhuhr -= offset
	t.asr -= offset
	t.sunset -= offset
	t.maghrib -= offset
	t.isha -= offset
	return t, true
}

type calc struct {
	lat float64
	jd  float64
}

// pass refines local solar times using the previous estimates.
func (c calc) pass(prev dayTimes, params domain.ResolvedParameters) dayTimes {
	p := func(h float64) float64 { return h / 24 }
	next := dayTimes{
		fajr:    c.sunAngleTime(params.FajrAngle, p(prev.fajr), true),
		sunrise: c.sunAngleTime(riseSetAngle, p(prev.sunrise), true),
		dhuhr:   c.midDay(p(prev.dhuhr)),
		asr:     c.asrTime(params.Madhab.ShadowLength(), p(prev.asr)),
		sunset:  c.sunAngleTime(riseSetAngle, p(prev.sunset), false),
		isha:    c.sunAngleTime(params.IshaAngle, p(prev.isha), false),
	}
	next.maghrib = next.sunset
	if params.MaghribAngle > 0 {
		next.maghrib = c.sunAngleTime(params.MaghribAngle, p(prev.maghrib), false)
	}
	return next
}

func (c calc) midDay(portion float64) float64 {
	_, eqt := sunPosition(c.jd + portion)
	return fixHour(12 - eqt)
}

func (c calc) sunAngleTime(angle, portion float64, ccw bool) float64 {
	decl, _ := sunPosition(c.jd + portion)
	noon := c.midDay(portion)
	t := arccos((-sin(angle)-sin(decl)*sin(c.lat))/(cos(decl)*cos(c.lat))) / 15
	if ccw {
		return noon - t
	}
	return noon + t
}

func (c calc) asrTime(factor, portion float64) float64 {
	decl, _ := sunPosition(c.jd + portion)
	angle := -arccot(factor + tan(math.Abs(c.lat-decl)))
	return c.sunAngleTime(angle, portion, false)
}

// adjustHighLatitude bounds a twilight time to a portion of the night
// measured from base (sunrise for Fajr, sunset for Isha).
func adjustHighLatitude(t, base, angle, night float64, ccw bool, rule domain.HighLatitudeRule) float64 {
	portion := nightPortion(rule, angle) * night
	var diff float64
	if ccw {
		diff = fixHour(base - t)
	} else {
		diff = fixHour(t - base)
	}
	if math.IsNaN(t) || diff > portion {
		if ccw {
			return base - portion
		}
		return base + portion
	}
	return t
}

func nightPortion(rule domain.HighLatitudeRule, angle float64) float64 {
	switch rule {
	case domain.HighLatitudeSeventhOfTheNight:
		return 1.0 / 7
	case domain.HighLatitudeTwilightAngle:
		return angle / 60
	default:
		return 1.0 / 2
	}
}
