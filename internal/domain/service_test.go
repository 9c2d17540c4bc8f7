package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baseConfig() CalculationsConfig {
	return CalculationsConfig{
		Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Latitude:  2.9213,
		Longitude: 101.6559,
		Method:    NamedMethod(MethodSingapore),
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewConfigResolver()
	cfg := baseConfig()
	cfg.Adjustments = Adjustments{PrayerDhuhr: 3, PrayerAsr: 3, PrayerIsha: 2}

	first := r.Resolve(cfg)
	second := r.Resolve(cfg)
	assert.Equal(t, first, second)
}

func TestResolveNamedMethods(t *testing.T) {
	r := NewConfigResolver()
	tests := []struct {
		method       Method
		fajr, isha   float64
		ishaInterval int
	}{
		{MethodUmmAlQura, 18.5, 0, 90},
		{MethodMuslimWorldLeague, 18, 17, 0},
		{MethodEgyptian, 19.5, 17.5, 0},
		{MethodQatar, 18, 0, 90},
		{MethodTehran, 17.7, 14, 0},
		{MethodNorthAmerica, 15, 15, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			cfg := baseConfig()
			cfg.Method = NamedMethod(tt.method)
			got := r.Resolve(cfg)
			assert.Equal(t, tt.method, got.Method)
			assert.Equal(t, tt.fajr, got.FajrAngle)
			assert.Equal(t, tt.isha, got.IshaAngle)
			assert.Equal(t, tt.ishaInterval, got.IshaInterval)
		})
	}
}

func TestEveryNamedMethodHasTableEntry(t *testing.T) {
	for _, m := range Methods() {
		_, ok := methodTable[m]
		assert.True(t, ok, "missing %s", m)
	}
	assert.Len(t, methodTable, 12)
}

func TestResolveAdjustmentPrecedence(t *testing.T) {
	r := NewConfigResolver()
	cfg := baseConfig()
	cfg.Method = Custom(CustomMethod{MethodAdjustments: Adjustments{PrayerFajr: 2, PrayerIsha: 4}})
	cfg.Adjustments = Adjustments{PrayerFajr: 5}

	got := r.Resolve(cfg)
	assert.Equal(t, 5, got.Adjustments[PrayerFajr], "user override wins")
	assert.Equal(t, 4, got.Adjustments[PrayerIsha], "unset key keeps the intrinsic value")
	assert.Len(t, got.Adjustments, 6)
}

func TestResolveIgnoresAdjustmentKeysOutsideThePrayers(t *testing.T) {
	r := NewConfigResolver()
	cfg := baseConfig()
	cfg.Adjustments = Adjustments{PrayerNone: 9, Prayer("witr"): 3, PrayerMaghrib: 1}

	got := r.Resolve(cfg)
	assert.Len(t, got.Adjustments, len(Prayers))
	assert.NotContains(t, got.Adjustments, PrayerNone)
	assert.NotContains(t, got.Adjustments, Prayer("witr"))
	assert.Equal(t, 1, got.Adjustments[PrayerMaghrib])
}

func TestResolveNamedMethodKeepsIntrinsicAdjustments(t *testing.T) {
	r := NewConfigResolver()
	cfg := baseConfig()
	cfg.Method = NamedMethod(MethodTurkey)
	cfg.Adjustments = Adjustments{PrayerAsr: 0}

	got := r.Resolve(cfg)
	assert.Equal(t, -7, got.Adjustments[PrayerSunrise])
	assert.Equal(t, 5, got.Adjustments[PrayerDhuhr])
	assert.Equal(t, 0, got.Adjustments[PrayerAsr], "explicit zero override is applied")
	assert.Equal(t, 7, got.Adjustments[PrayerMaghrib])
}

func TestResolveDoesNotMutateMethodTable(t *testing.T) {
	r := NewConfigResolver()
	cfg := baseConfig()
	cfg.Method = NamedMethod(MethodDubai)
	cfg.Adjustments = Adjustments{PrayerDhuhr: 10}
	r.Resolve(cfg)

	assert.Equal(t, 3, methodTable[MethodDubai].adjustments[PrayerDhuhr])
}

func TestResolveCustomMethodDefaults(t *testing.T) {
	got := NewConfigResolver().Resolve(CalculationsConfig{Method: Custom(CustomMethod{})})

	assert.Equal(t, MethodOther, got.Method)
	assert.Equal(t, 18.0, got.FajrAngle)
	assert.Equal(t, 18.0, got.IshaAngle)
	assert.Equal(t, 0, got.IshaInterval)
	assert.Equal(t, 0.0, got.MaghribAngle)
	for _, p := range Prayers {
		assert.Zero(t, got.Adjustments[p])
	}
}

func TestResolveCustomMethodFields(t *testing.T) {
	got := NewConfigResolver().Resolve(CalculationsConfig{Method: Custom(CustomMethod{
		FajrAngle:    ptr(15.0),
		IshaAngle:    ptr(0.0),
		IshaInterval: ptr(75),
		MaghribAngle: ptr(4.0),
	})})

	assert.Equal(t, 15.0, got.FajrAngle)
	assert.Equal(t, 0.0, got.IshaAngle)
	assert.Equal(t, 75, got.IshaInterval)
	assert.Equal(t, 4.0, got.MaghribAngle)
}

func TestResolveUnknownMethodFallsBack(t *testing.T) {
	r := NewConfigResolver()
	want := r.Resolve(CalculationsConfig{Method: NamedMethod(MethodUmmAlQura)})

	for _, spec := range []MethodSpec{{}, NamedMethod("ISNA-ish"), NamedMethod(MethodOther)} {
		assert.Equal(t, want, r.Resolve(CalculationsConfig{Method: spec}), "spec %+v", spec)
	}
}

func TestResolveDefaultsAndSwitches(t *testing.T) {
	r := NewConfigResolver()
	got := r.Resolve(baseConfig())
	assert.Equal(t, MadhabShafi, got.Madhab)
	assert.Equal(t, HighLatitudeMiddleOfTheNight, got.HighLatitudeRule)
	assert.Equal(t, PolarUnresolved, got.PolarCircleResolution)

	cfg := baseConfig()
	cfg.AsrTime = AsrTimeHanafi
	cfg.HighLatitudeRule = HighLatitudeTwilightAngle
	cfg.PolarCircleResolution = PolarAqrabYaum
	got = r.Resolve(cfg)
	assert.Equal(t, MadhabHanafi, got.Madhab)
	assert.Equal(t, HighLatitudeTwilightAngle, got.HighLatitudeRule)
	assert.Equal(t, PolarAqrabYaum, got.PolarCircleResolution)

	cfg.AsrTime = AsrTimeJumhour
	assert.Equal(t, MadhabShafi, r.Resolve(cfg).Madhab)
}

func TestRebuildLeavesPreviousUntouched(t *testing.T) {
	r := NewConfigResolver()
	prev := baseConfig()
	prev.Adjustments = Adjustments{PrayerDhuhr: 3}

	next := r.Rebuild(prev, ConfigPatch{
		Latitude:    ptr(51.5),
		Adjustments: Adjustments{PrayerIsha: 2},
		AsrTime:     ptr(AsrTimeHanafi),
	})

	require.Equal(t, Adjustments{PrayerDhuhr: 3}, prev.Adjustments)
	assert.Equal(t, 2.9213, prev.Latitude)
	assert.Equal(t, 51.5, next.Latitude)
	assert.Equal(t, prev.Longitude, next.Longitude)
	assert.Equal(t, Adjustments{PrayerDhuhr: 3, PrayerIsha: 2}, next.Adjustments)
	assert.Equal(t, MadhabHanafi, r.Resolve(next).Madhab)
}

func TestRebuildSwitchesMethod(t *testing.T) {
	r := NewConfigResolver()
	next := r.Rebuild(baseConfig(), ConfigPatch{Method: ptr(Custom(CustomMethod{FajrAngle: ptr(12.0)}))})
	got := r.Resolve(next)
	assert.Equal(t, MethodOther, got.Method)
	assert.Equal(t, 12.0, got.FajrAngle)
}

func TestParseMethod(t *testing.T) {
	m, ok := ParseMethod("UMM_AL_QURA")
	assert.True(t, ok)
	assert.Equal(t, MethodUmmAlQura, m)

	m, ok = ParseMethod("north-america")
	assert.True(t, ok)
	assert.Equal(t, MethodNorthAmerica, m)

	_, ok = ParseMethod("martian")
	assert.False(t, ok)
}
