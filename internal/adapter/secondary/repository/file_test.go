package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhan-manager/internal/domain"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	repo, err := NewFileRepository(filepath.Join(t.TempDir(), "nested", "config.yaml"))
	require.NoError(t, err)

	got, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			repo, err := NewFileRepository(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)

			fajr := 15.0
			want := domain.Settings{
				Calculation: domain.CalculationsConfig{
					Latitude:  2.9213,
					Longitude: 101.6559,
					Method: domain.Custom(domain.CustomMethod{
						FajrAngle:         &fajr,
						MethodAdjustments: domain.Adjustments{domain.PrayerDhuhr: 2},
					}),
					Adjustments:      domain.Adjustments{domain.PrayerIsha: 2},
					AsrTime:          domain.AsrTimeHanafi,
					HighLatitudeRule: domain.HighLatitudeTwilightAngle,
				},
				Timezone:      "Asia/Kuala_Lumpur",
				Hour12:        false,
				NotifyCommand: "say {prayer}",
			}
			require.NoError(t, repo.Save(want))

			got, err := repo.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadYAMLByHand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
latitude: 2.9213
longitude: 101.6559
method: SINGAPORE
adjustments:
  Dhuhr: 3
  asr: 3
timezone: Asia/Kuala_Lumpur
`), 0o644))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	got, err := repo.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.NamedMethod(domain.MethodSingapore), got.Calculation.Method)
	assert.Equal(t, domain.Adjustments{domain.PrayerDhuhr: 3, domain.PrayerAsr: 3}, got.Calculation.Adjustments)
	assert.True(t, got.Hour12, "hour12 defaults to true")
}

func TestLoadUnknownMethodIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"latitude": 1, "longitude": 2, "method": "jafari"}`), 0o644))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	got, err := repo.Load()
	require.NoError(t, err)

	params := domain.NewConfigResolver().Resolve(got.Calculation)
	assert.Equal(t, domain.MethodUmmAlQura, params.Method)
}

func TestLoadRejectsUnknownAdjustmentKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"adjustments": {"tahajjud": 4}}`), 0o644))

	repo, err := NewFileRepository(path)
	require.NoError(t, err)
	_, err = repo.Load()
	assert.ErrorIs(t, err, domain.ErrUnknownPrayer)
}

func TestNewFileRepositoryRequiresPath(t *testing.T) {
	_, err := NewFileRepository("")
	assert.Error(t, err)
}
