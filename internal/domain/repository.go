package domain

import (
	"context"
	"time"
)

// ConfigRepository is a secondary port that defines how to persist settings.
// This interface is defined in the domain layer and implemented by adapters.
type ConfigRepository interface {
	Load() (Settings, error)
	Save(settings Settings) error
}

// PrayerTimeSolver is the astronomical collaborator turning resolved
// parameters into clock times for one calendar day.
type PrayerTimeSolver interface {
	Compute(coords Coordinates, date time.Time, params ResolvedParameters) (PrayerTimeSet, error)
	Qibla(coords Coordinates) float64
}

// AdhanNotifier is a secondary port that is told when a prayer time arrives.
type AdhanNotifier interface {
	Notify(ctx context.Context, prayer Prayer, at time.Time) error
}
