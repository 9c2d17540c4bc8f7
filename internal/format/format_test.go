package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhan-manager/internal/domain"
)

func TestFormatDefaultsTo24Hour(t *testing.T) {
	f := New(Options{Location: time.UTC})
	assert.Equal(t, "17:05", f.Timestamp(time.Date(2024, 3, 15, 17, 5, 0, 0, time.UTC)))
}

func TestFormatOptions(t *testing.T) {
	myt := time.FixedZone("MYT", 8*3600)
	at := time.Date(2024, 3, 15, 21, 7, 0, 0, time.UTC)

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"12 hour", Options{Location: myt, Hour12: true}, "5:07 AM"},
		{"24 hour", Options{Location: myt}, "05:07"},
		{"weekday", Options{Location: myt, Hour12: true, Weekday: true}, "Saturday 5:07 AM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.opts).Timestamp(at))
		})
	}
}

func TestFormatSetCoversEveryPrayer(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	set := domain.PrayerTimeSet{
		Fajr: day.Add(5 * time.Hour), Sunrise: day.Add(6 * time.Hour), Dhuhr: day.Add(12 * time.Hour),
		Asr: day.Add(15 * time.Hour), Maghrib: day.Add(18 * time.Hour), Isha: day.Add(20 * time.Hour),
	}
	before := set

	out := New(Options{Location: time.UTC}).Format(set)
	require.Len(t, out, 6)
	assert.Equal(t, "05:00", out[domain.PrayerFajr])
	assert.Equal(t, "20:00", out[domain.PrayerIsha])
	assert.Equal(t, before, set)
}

func TestFromSettingsRejectsBadZone(t *testing.T) {
	s := domain.DefaultSettings()
	s.Timezone = "Nowhere/Land"
	_, err := FromSettings(s)
	assert.ErrorIs(t, err, domain.ErrInvalidTimezone)
}
