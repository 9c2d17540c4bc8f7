package domain

import (
	"fmt"
	"strings"
	"time"
)

// Prayer names one of the six daily observances, or None when nothing applies.
type Prayer string

const (
	PrayerNone    Prayer = "none"
	PrayerFajr    Prayer = "fajr"
	PrayerSunrise Prayer = "sunrise"
	PrayerDhuhr   Prayer = "dhuhr"
	PrayerAsr     Prayer = "asr"
	PrayerMaghrib Prayer = "maghrib"
	PrayerIsha    Prayer = "isha"
)

// Prayers lists the six prayers in chronological order.
var Prayers = []Prayer{PrayerFajr, PrayerSunrise, PrayerDhuhr, PrayerAsr, PrayerMaghrib, PrayerIsha}

func (p Prayer) String() string {
	return string(p)
}

// Title returns the display name (e.g. "Maghrib").
func (p Prayer) Title() string {
	if p == "" {
		return ""
	}
	return strings.ToUpper(string(p[:1])) + string(p[1:])
}

// ParsePrayer accepts a prayer name in any case.
func ParsePrayer(s string) (Prayer, error) {
	p := Prayer(strings.ToLower(strings.TrimSpace(s)))
	if p == PrayerNone {
		return p, nil
	}
	for _, known := range Prayers {
		if p == known {
			return p, nil
		}
	}
	return PrayerNone, fmt.Errorf("%w: %q", ErrUnknownPrayer, s)
}

// Adjustments holds signed minute offsets per prayer. It is sparse: a missing
// key means "not supplied", which is different from an explicit zero.
type Adjustments map[Prayer]int

// Merge returns a new map holding exactly the six prayers: the receiver's
// values, overridden by the prayers present in overlay. Other keys are dropped.
func (a Adjustments) Merge(overlay Adjustments) Adjustments {
	out := make(Adjustments, len(Prayers))
	for _, p := range Prayers {
		out[p] = a[p]
		if v, ok := overlay[p]; ok {
			out[p] = v
		}
	}
	return out
}

// Clone copies the map, preserving nil.
func (a Adjustments) Clone() Adjustments {
	if a == nil {
		return nil
	}
	out := make(Adjustments, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// AsrTime selects the Asr shadow-length convention.
type AsrTime string

const (
	AsrTimeJumhour AsrTime = "jumhour"
	AsrTimeHanafi  AsrTime = "hanafi"
)

// Madhab is the resolved Asr convention handed to the solver.
type Madhab int

const (
	MadhabShafi Madhab = iota
	MadhabHanafi
)

func (m Madhab) String() string {
	switch m {
	case MadhabHanafi:
		return "hanafi"
	default:
		return "shafi"
	}
}

// ShadowLength is the object-shadow multiplier that marks the start of Asr.
func (m Madhab) ShadowLength() float64 {
	if m == MadhabHanafi {
		return 2
	}
	return 1
}

// HighLatitudeRule bounds Fajr and Isha where twilight angles are never reached.
type HighLatitudeRule string

const (
	HighLatitudeMiddleOfTheNight  HighLatitudeRule = "middle_of_the_night"
	HighLatitudeSeventhOfTheNight HighLatitudeRule = "seventh_of_the_night"
	HighLatitudeTwilightAngle     HighLatitudeRule = "twilight_angle"
)

// PolarCircleResolution decides what to do on midnight-sun and polar-night days.
type PolarCircleResolution string

const (
	PolarUnresolved PolarCircleResolution = "unresolved"
	PolarAqrabBalad PolarCircleResolution = "aqrab_balad"
	PolarAqrabYaum  PolarCircleResolution = "aqrab_yaum"
)

// Coordinates in decimal degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Validate checks the coordinate ranges.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// CalculationsConfig is the caller supplied input for one resolution.
// Treat it as a value: use Rebuild to derive a changed copy.
type CalculationsConfig struct {
	Date                  time.Time
	Latitude              float64
	Longitude             float64
	Method                MethodSpec
	Adjustments           Adjustments
	AsrTime               AsrTime
	HighLatitudeRule      HighLatitudeRule
	PolarCircleResolution PolarCircleResolution
}

// Coordinates derives the location 1:1 from latitude/longitude.
func (c CalculationsConfig) Coordinates() Coordinates {
	return Coordinates{Latitude: c.Latitude, Longitude: c.Longitude}
}

// ConfigPatch is a partial update. Nil fields are left unchanged.
type ConfigPatch struct {
	Date                  *time.Time
	Latitude              *float64
	Longitude             *float64
	Method                *MethodSpec
	Adjustments           Adjustments
	AsrTime               *AsrTime
	HighLatitudeRule      *HighLatitudeRule
	PolarCircleResolution *PolarCircleResolution
}

// ResolvedParameters is the fully populated parameter set for the solver.
type ResolvedParameters struct {
	Method                Method
	FajrAngle             float64
	IshaAngle             float64
	IshaInterval          int
	MaghribAngle          float64
	Adjustments           Adjustments
	Madhab                Madhab
	HighLatitudeRule      HighLatitudeRule
	PolarCircleResolution PolarCircleResolution
}

// Settings is what the config repository persists: the calculation inputs
// (without a date) plus presentation and notification preferences.
type Settings struct {
	Calculation   CalculationsConfig
	Timezone      string
	Hour12        bool
	ShowWeekday   bool
	NotifyCommand string
}

// DefaultSettings returns the initial settings (Makkah, Umm al-Qura).
func DefaultSettings() Settings {
	return Settings{
		Calculation: CalculationsConfig{
			Latitude:  21.4225,
			Longitude: 39.8262,
			Method:    NamedMethod(MethodUmmAlQura),
		},
		Timezone: "Local",
		Hour12:   true,
	}
}

// Validate checks the values a user can get wrong in a config file.
func (s Settings) Validate() error {
	if err := s.Calculation.Coordinates().Validate(); err != nil {
		return err
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured time zone.
func (s Settings) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrInvalidTimezone, s.Timezone, err)
	}
	return loc, nil
}

// SettingsPatch is a partial update of Settings. Nil fields are left unchanged.
type SettingsPatch struct {
	Calculation   ConfigPatch
	Timezone      *string
	Hour12        *bool
	ShowWeekday   *bool
	NotifyCommand *string
}
