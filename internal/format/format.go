// Package format renders prayer timestamps for display.
package format

import (
	"time"

	"adhan-manager/internal/domain"
)

// Options mirrors the display knobs of the settings file.
type Options struct {
	Location *time.Location
	Hour12   bool
	Weekday  bool
}

// Formatter renders timestamps in a fixed location and layout.
type Formatter struct {
	loc    *time.Location
	layout string
}

// New creates a formatter. The zero Options value yields 12-hour local time,
// e.g. "5:07 AM".
func New(opts Options) *Formatter {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	layout := "15:04"
	if opts.Hour12 {
		layout = "3:04 PM"
	}
	if opts.Weekday {
		layout = "Monday " + layout
	}
	return &Formatter{loc: loc, layout: layout}
}

// FromSettings builds a formatter from persisted settings.
func FromSettings(s domain.Settings) (*Formatter, error) {
	loc, err := s.Location()
	if err != nil {
		return nil, err
	}
	return New(Options{Location: loc, Hour12: s.Hour12, Weekday: s.ShowWeekday}), nil
}

// Timestamp formats one time.
func (f *Formatter) Timestamp(t time.Time) string {
	return t.In(f.loc).Format(f.layout)
}

// Format renders every prayer of the set. The input is not modified.
func (f *Formatter) Format(set domain.PrayerTimeSet) map[domain.Prayer]string {
	out := make(map[domain.Prayer]string, len(domain.Prayers))
	for _, e := range set.Entries() {
		out[e.Prayer] = f.Timestamp(e.At)
	}
	return out
}
