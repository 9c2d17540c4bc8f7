package solver

import "math"

func dtr(d float64) float64 { return d * math.Pi / 180 }
func rtd(r float64) float64 { return r * 180 / math.Pi }

func sin(d float64) float64    { return math.Sin(dtr(d)) }
func cos(d float64) float64    { return math.Cos(dtr(d)) }
func tan(d float64) float64    { return math.Tan(dtr(d)) }
func arcsin(x float64) float64 { return rtd(math.Asin(x)) }
func arccos(x float64) float64 { return rtd(math.Acos(x)) }
func arccot(x float64) float64 { return rtd(math.Atan(1 / x)) }
func arctan2(y, x float64) float64 {
	return rtd(math.Atan2(y, x))
}

func fix(a, b float64) float64 {
	a = a - b*math.Floor(a/b)
	if a < 0 {
		return a + b
	}
	return a
}

func fixAngle(a float64) float64 { return fix(a, 360) }
func fixHour(h float64) float64  { return fix(h, 24) }

// julianDay returns the Julian day at 0h UT of the Gregorian date.
func julianDay(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

// sunPosition returns the solar declination (degrees) and the equation of
// time (hours) for a Julian day.
func sunPosition(jd float64) (declination, equation float64) {
	d := jd - 2451545.0
	g := fixAngle(357.529 + 0.98560028*d)
	q := fixAngle(280.459 + 0.98564736*d)
	l := fixAngle(q + 1.915*sin(g) + 0.020*sin(2*g))
	e := 23.439 - 0.00000036*d

	ra := arctan2(cos(e)*sin(l), cos(l)) / 15
	equation = q/15 - fixHour(ra)
	declination = arcsin(sin(e) * sin(l))
	return declination, equation
}
