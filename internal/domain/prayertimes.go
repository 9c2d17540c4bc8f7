package domain

import "time"

// PrayerTimeSet holds one calendar day of prayer timestamps, strictly
// increasing from Fajr to Isha.
type PrayerTimeSet struct {
	Fajr    time.Time
	Sunrise time.Time
	Dhuhr   time.Time
	Asr     time.Time
	Maghrib time.Time
	Isha    time.Time
}

// PrayerTime pairs a prayer with its timestamp.
type PrayerTime struct {
	Prayer Prayer
	At     time.Time
}

// TimeFor returns the timestamp for a single prayer. None yields the zero time.
func (s PrayerTimeSet) TimeFor(p Prayer) time.Time {
	switch p {
	case PrayerFajr:
		return s.Fajr
	case PrayerSunrise:
		return s.Sunrise
	case PrayerDhuhr:
		return s.Dhuhr
	case PrayerAsr:
		return s.Asr
	case PrayerMaghrib:
		return s.Maghrib
	case PrayerIsha:
		return s.Isha
	default:
		return time.Time{}
	}
}

// Entries lists the set in chronological order.
func (s PrayerTimeSet) Entries() []PrayerTime {
	out := make([]PrayerTime, 0, len(Prayers))
	for _, p := range Prayers {
		out = append(out, PrayerTime{Prayer: p, At: s.TimeFor(p)})
	}
	return out
}

// CurrentPrayer is the latest prayer whose time is not after now, or None
// before Fajr.
func (s PrayerTimeSet) CurrentPrayer(now time.Time) Prayer {
	current := PrayerNone
	for _, e := range s.Entries() {
		if now.Before(e.At) {
			break
		}
		current = e.Prayer
	}
	return current
}

// NextPrayer is the first prayer strictly after now, or None after Isha.
func (s PrayerTimeSet) NextPrayer(now time.Time) Prayer {
	for _, e := range s.Entries() {
		if e.At.After(now) {
			return e.Prayer
		}
	}
	return PrayerNone
}
