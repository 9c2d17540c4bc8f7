package domain

import "strings"

// Method names a calculation convention.
type Method string

const (
	MethodUmmAlQura             Method = "umm_al_qura"
	MethodMuslimWorldLeague     Method = "muslim_world_league"
	MethodMoonsightingCommittee Method = "moonsighting_committee"
	MethodKuwait                Method = "kuwait"
	MethodQatar                 Method = "qatar"
	MethodEgyptian              Method = "egyptian"
	MethodKarachi               Method = "karachi"
	MethodDubai                 Method = "dubai"
	MethodSingapore             Method = "singapore"
	MethodNorthAmerica          Method = "north_america"
	MethodTehran                Method = "tehran"
	MethodTurkey                Method = "turkey"

	// MethodOther tags parameters built from a CustomMethod.
	MethodOther Method = "other"
)

// CustomMethod is a user-defined convention. Nil fields take their defaults.
type CustomMethod struct {
	FajrAngle         *float64
	IshaAngle         *float64
	IshaInterval      *int
	MaghribAngle      *float64
	MethodAdjustments Adjustments
}

const (
	defaultCustomFajrAngle    = 18.0
	defaultCustomIshaAngle    = 18.0
	defaultCustomIshaInterval = 0
	defaultCustomMaghribAngle = 0.0
)

// MethodSpec is either a named method or a custom one. A zero MethodSpec, or
// one naming a method missing from the table, resolves to Umm al-Qura.
type MethodSpec struct {
	Named  Method
	Custom *CustomMethod
}

// NamedMethod selects a convention from the method table.
func NamedMethod(m Method) MethodSpec {
	return MethodSpec{Named: m}
}

// Custom selects a user-defined convention.
func Custom(c CustomMethod) MethodSpec {
	return MethodSpec{Custom: &c}
}

// IsCustom reports whether a custom method is set.
func (s MethodSpec) IsCustom() bool {
	return s.Custom != nil
}

func (s MethodSpec) String() string {
	if s.Custom != nil {
		return string(MethodOther)
	}
	if s.Named == "" {
		return string(DefaultMethod)
	}
	return string(s.Named)
}

// DefaultMethod is used whenever the method is absent or unrecognized.
const DefaultMethod = MethodUmmAlQura

type methodParams struct {
	fajrAngle    float64
	ishaAngle    float64
	ishaInterval int
	maghribAngle float64
	adjustments  Adjustments
}

var methodTable = map[Method]methodParams{
	MethodUmmAlQura:             {fajrAngle: 18.5, ishaInterval: 90},
	MethodMuslimWorldLeague:     {fajrAngle: 18, ishaAngle: 17, adjustments: Adjustments{PrayerDhuhr: 1}},
	MethodMoonsightingCommittee: {fajrAngle: 18, ishaAngle: 18, adjustments: Adjustments{PrayerDhuhr: 5, PrayerMaghrib: 3}},
	MethodKuwait:                {fajrAngle: 18, ishaAngle: 17.5},
	MethodQatar:                 {fajrAngle: 18, ishaInterval: 90},
	MethodEgyptian:              {fajrAngle: 19.5, ishaAngle: 17.5, adjustments: Adjustments{PrayerDhuhr: 1}},
	MethodKarachi:               {fajrAngle: 18, ishaAngle: 18, adjustments: Adjustments{PrayerDhuhr: 1}},
	MethodDubai: {fajrAngle: 18.2, ishaAngle: 18.2, adjustments: Adjustments{
		PrayerSunrise: -3, PrayerDhuhr: 3, PrayerAsr: 3, PrayerMaghrib: 3,
	}},
	MethodSingapore:    {fajrAngle: 20, ishaAngle: 18, adjustments: Adjustments{PrayerDhuhr: 1}},
	MethodNorthAmerica: {fajrAngle: 15, ishaAngle: 15, adjustments: Adjustments{PrayerDhuhr: 1}},
	MethodTehran:       {fajrAngle: 17.7, ishaAngle: 14, maghribAngle: 4.5},
	MethodTurkey: {fajrAngle: 18, ishaAngle: 17, adjustments: Adjustments{
		PrayerSunrise: -7, PrayerDhuhr: 5, PrayerAsr: 4, PrayerMaghrib: 7,
	}},
}

// Methods returns the named methods in a stable order.
func Methods() []Method {
	return []Method{
		MethodUmmAlQura, MethodMuslimWorldLeague, MethodMoonsightingCommittee, MethodKuwait,
		MethodQatar, MethodEgyptian, MethodKarachi, MethodDubai, MethodSingapore,
		MethodNorthAmerica, MethodTehran, MethodTurkey,
	}
}

// ParseMethod normalizes user input such as "UMM_AL_QURA" or "north-america".
// The second result is false when the name is not in the method table.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	_, ok := methodTable[m]
	return m, ok
}
