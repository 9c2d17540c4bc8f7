package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	asr, err := ParseAsrTime("Hanafi")
	require.NoError(t, err)
	assert.Equal(t, AsrTimeHanafi, asr)

	asr, err = ParseAsrTime("standard")
	require.NoError(t, err)
	assert.Equal(t, AsrTimeJumhour, asr)

	rule, err := ParseHighLatitudeRule("seventh-of-the-night")
	require.NoError(t, err)
	assert.Equal(t, HighLatitudeSeventhOfTheNight, rule)

	polar, err := ParsePolarCircleResolution("AQRAB_YAUM")
	require.NoError(t, err)
	assert.Equal(t, PolarAqrabYaum, polar)

	_, err = ParseAsrTime("maliki")
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = ParseHighLatitudeRule("")
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = ParsePolarCircleResolution("nearest")
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestParseAdjustments(t *testing.T) {
	adj, err := ParseAdjustments(map[string]int{"Fajr": 2, "isha": -3})
	require.NoError(t, err)
	assert.Equal(t, Adjustments{PrayerFajr: 2, PrayerIsha: -3}, adj)

	adj, err = ParseAdjustments(nil)
	require.NoError(t, err)
	assert.Nil(t, adj)

	_, err = ParseAdjustments(map[string]int{"none": 1})
	assert.ErrorIs(t, err, ErrUnknownPrayer)
	_, err = ParseAdjustments(map[string]int{"tahajjud": 1})
	assert.ErrorIs(t, err, ErrUnknownPrayer)
}
