package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/logging"
	"adhan-manager/internal/scheduler"
)

// ErrAlreadyStarted is returned by a second Start on the same use case.
var ErrAlreadyStarted = errors.New("adhan listener already started")

// midnightSpec re-arms the scheduler shortly after each local midnight.
const midnightSpec = "0 0 * * *"

// AdhanUseCase is the primary port for prayer time operations.
// This represents the application's use cases.
type AdhanUseCase interface {
	Start(ctx context.Context) error
	GetSnapshot() Snapshot
	Settings() domain.Settings
	PrayerTimes(date time.Time) (domain.PrayerTimeSet, error)
	NextPrayer(now time.Time) (domain.PrayerTime, error)
	CurrentPrayer(now time.Time) (domain.PrayerTime, error)
	Qibla() float64
	UpdateConfig(patch domain.SettingsPatch) error
	Reload() error
}

// Snapshot is a complete view of the listener state.
type Snapshot struct {
	Settings       domain.Settings
	Params         domain.ResolvedParameters
	Date           time.Time
	Times          domain.PrayerTimeSet
	Armed          bool
	State          scheduler.State
	Pending        int
	Current        domain.Prayer
	Next           domain.Prayer
	LastNotified   domain.Prayer
	LastNotifiedAt time.Time
	LastError      error
}

// adhanInteractor implements AdhanUseCase.
// It depends only on domain layer, the scheduler and secondary ports.
type adhanInteractor struct {
	repo     domain.ConfigRepository
	solver   domain.PrayerTimeSolver
	notifier domain.AdhanNotifier
	resolver *domain.ConfigResolver
	sched    *scheduler.Scheduler

	// armMu serializes arm so only one subscription is live at a time.
	armMu sync.Mutex

	mu             sync.RWMutex
	ctx            context.Context
	started        bool
	cron           *cron.Cron
	settings       domain.Settings
	params         domain.ResolvedParameters
	date           time.Time
	times          domain.PrayerTimeSet
	sub            *scheduler.Subscription
	lastNotified   domain.Prayer
	lastNotifiedAt time.Time
	lastErr        error
}

// NewAdhanUseCase creates a new use case.
// Dependencies are injected (secondary ports).
func NewAdhanUseCase(
	repo domain.ConfigRepository,
	solver domain.PrayerTimeSolver,
	notifier domain.AdhanNotifier,
	sched *scheduler.Scheduler,
) (AdhanUseCase, error) {
	if repo == nil || solver == nil || notifier == nil {
		return nil, errors.New("repository, solver and notifier are required")
	}
	if sched == nil {
		sched = scheduler.New(nil)
	}

	settings, err := repo.Load()
	if err != nil {
		return nil, err
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &adhanInteractor{
		repo:     repo,
		solver:   solver,
		notifier: notifier,
		resolver: domain.NewConfigResolver(),
		sched:    sched,
		settings: settings,
		ctx:      context.Background(),
	}, nil
}

// Start arms today's prayers and keeps re-arming them every midnight until
// ctx is cancelled.
func (u *adhanInteractor) Start(ctx context.Context) error {
	u.mu.Lock()
	if u.started {
		u.mu.Unlock()
		return ErrAlreadyStarted
	}
	u.ctx = ctx
	u.started = true
	u.mu.Unlock()

	if err := u.restartCron(); err != nil {
		return err
	}
	if err := u.arm(); err != nil {
		u.stop()
		return err
	}

	go func() {
		<-ctx.Done()
		u.stop()
	}()
	return nil
}

func (u *adhanInteractor) stop() {
	u.mu.Lock()
	c := u.cron
	u.cron = nil
	u.started = false
	u.mu.Unlock()

	// a running midnight job needs armMu, so wait for it first
	if c != nil {
		<-c.Stop().Done()
	}

	u.armMu.Lock()
	defer u.armMu.Unlock()
	u.mu.Lock()
	sub := u.sub
	u.sub = nil
	u.mu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
	logging.Infof("adhan listener stopped")
}

// restartCron schedules the midnight job in the configured time zone.
func (u *adhanInteractor) restartCron() error {
	u.mu.RLock()
	settings := u.settings
	old := u.cron
	u.mu.RUnlock()

	loc, err := settings.Location()
	if err != nil {
		return err
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(midnightSpec, func() {
		if err := u.arm(); err != nil {
			logging.Errorf("re-arm at midnight: %v", err)
		}
	}); err != nil {
		return err
	}

	if old != nil {
		old.Stop()
	}
	c.Start()

	u.mu.Lock()
	u.cron = c
	u.mu.Unlock()
	return nil
}

// arm computes today's times and replaces the live subscription.
func (u *adhanInteractor) arm() error {
	u.armMu.Lock()
	defer u.armMu.Unlock()

	u.mu.RLock()
	settings := u.settings
	u.mu.RUnlock()

	date, params, times, err := u.day(settings, u.sched.Clock().Now())
	if err != nil {
		return u.fail(err)
	}

	u.mu.Lock()
	old := u.sub
	u.sub = nil
	u.params = params
	u.date = date
	u.times = times
	u.lastErr = nil
	u.mu.Unlock()

	if old != nil {
		old.Cancel()
	}

	logging.Logger().Info().
		Str("method", string(params.Method)).
		Time("date", date).
		Msg("arming prayer times")

	sub := u.sched.Describe(times).Subscribe(scheduler.Observer{
		OnNext: func(p domain.Prayer) {
			u.onPrayer(p, times.TimeFor(p))
		},
		OnError: func(err error) {
			logging.Errorf("prayer subscription failed: %v", err)
			u.mu.Lock()
			u.lastErr = err
			u.mu.Unlock()
		},
		OnComplete: func() {
			logging.Infof("all prayers delivered for %s", date.Format("2006-01-02"))
		},
	})

	u.mu.Lock()
	u.sub = sub
	u.mu.Unlock()
	return nil
}

func (u *adhanInteractor) fail(err error) error {
	u.mu.Lock()
	u.lastErr = err
	u.mu.Unlock()
	return err
}

func (u *adhanInteractor) onPrayer(p domain.Prayer, at time.Time) {
	u.mu.RLock()
	ctx := u.ctx
	u.mu.RUnlock()

	logging.Logger().Info().Str("prayer", p.String()).Msg("prayer time")
	err := u.notifier.Notify(ctx, p, at)

	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		logging.Warnf("notify %s: %v", p, err)
		u.lastErr = err
		return
	}
	u.lastNotified = p
	u.lastNotifiedAt = u.sched.Clock().Now()
}

// GetSnapshot returns the current system state.
func (u *adhanInteractor) GetSnapshot() Snapshot {
	now := u.sched.Clock().Now()
	u.mu.RLock()
	snap := Snapshot{
		Settings:       u.settings,
		Params:         u.params,
		Date:           u.date,
		Times:          u.times,
		Armed:          u.sub != nil,
		LastNotified:   u.lastNotified,
		LastNotifiedAt: u.lastNotifiedAt,
		LastError:      u.lastErr,
	}
	if u.sub != nil {
		snap.State = u.sub.State()
		snap.Pending = u.sub.Pending()
	}
	u.mu.RUnlock()

	if snap.Date.IsZero() {
		// not listening: describe today without arming
		date, params, times, err := u.day(snap.Settings, now)
		if err != nil {
			snap.LastError = err
		} else {
			snap.Date, snap.Params, snap.Times = date, params, times
		}
	}

	snap.Current, snap.Next = domain.PrayerNone, domain.PrayerNone
	if !snap.Date.IsZero() {
		snap.Current = snap.Times.CurrentPrayer(now)
		snap.Next = snap.Times.NextPrayer(now)
	}
	return snap
}

// Settings returns a copy of the current settings.
func (u *adhanInteractor) Settings() domain.Settings {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.settings
}

// PrayerTimes computes the times of any calendar day with the current settings.
func (u *adhanInteractor) PrayerTimes(date time.Time) (domain.PrayerTimeSet, error) {
	_, _, times, err := u.day(u.Settings(), date)
	return times, err
}

// day resolves settings for the calendar day of at in the configured zone.
func (u *adhanInteractor) day(settings domain.Settings, at time.Time) (time.Time, domain.ResolvedParameters, domain.PrayerTimeSet, error) {
	loc, err := settings.Location()
	if err != nil {
		return time.Time{}, domain.ResolvedParameters{}, domain.PrayerTimeSet{}, err
	}
	date := at.In(loc)
	cfg := u.resolver.Rebuild(settings.Calculation, domain.ConfigPatch{Date: &date})
	params := u.resolver.Resolve(cfg)
	times, err := u.solver.Compute(cfg.Coordinates(), cfg.Date, params)
	if err != nil {
		return time.Time{}, domain.ResolvedParameters{}, domain.PrayerTimeSet{}, err
	}
	return date, params, times, nil
}

// NextPrayer returns the next prayer after now. After Isha it is the Fajr
// of the following day.
func (u *adhanInteractor) NextPrayer(now time.Time) (domain.PrayerTime, error) {
	set, err := u.PrayerTimes(now)
	if err != nil {
		return domain.PrayerTime{}, err
	}
	if next := set.NextPrayer(now); next != domain.PrayerNone {
		return domain.PrayerTime{Prayer: next, At: set.TimeFor(next)}, nil
	}
	tomorrow, err := u.PrayerTimes(now.AddDate(0, 0, 1))
	if err != nil {
		return domain.PrayerTime{}, err
	}
	return domain.PrayerTime{Prayer: domain.PrayerFajr, At: tomorrow.Fajr}, nil
}

// CurrentPrayer returns the prayer whose time is running, or PrayerNone
// with a zero time before Fajr.
func (u *adhanInteractor) CurrentPrayer(now time.Time) (domain.PrayerTime, error) {
	set, err := u.PrayerTimes(now)
	if err != nil {
		return domain.PrayerTime{}, err
	}
	current := set.CurrentPrayer(now)
	return domain.PrayerTime{Prayer: current, At: set.TimeFor(current)}, nil
}

// Qibla returns the Qibla bearing for the configured location.
func (u *adhanInteractor) Qibla() float64 {
	return u.solver.Qibla(u.Settings().Calculation.Coordinates())
}

// UpdateConfig applies patch, persists the result and re-arms if running.
func (u *adhanInteractor) UpdateConfig(patch domain.SettingsPatch) error {
	next := u.applyPatch(u.Settings(), patch)
	if err := next.Validate(); err != nil {
		return err
	}
	if err := u.repo.Save(next); err != nil {
		return err
	}
	return u.replaceSettings(next)
}

// Reload re-reads the repository, e.g. after the config file changed.
func (u *adhanInteractor) Reload() error {
	next, err := u.repo.Load()
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if reflect.DeepEqual(next, u.Settings()) {
		logging.Debugf("config unchanged; skipping reload")
		return nil
	}
	return u.replaceSettings(next)
}

func (u *adhanInteractor) replaceSettings(next domain.Settings) error {
	u.mu.Lock()
	prevTZ := u.settings.Timezone
	u.settings = next
	started := u.started
	u.mu.Unlock()

	if !started {
		return nil
	}
	if next.Timezone != prevTZ {
		if err := u.restartCron(); err != nil {
			return err
		}
	}
	return u.arm()
}

func (u *adhanInteractor) applyPatch(prev domain.Settings, patch domain.SettingsPatch) domain.Settings {
	next := prev
	next.Calculation = u.resolver.Rebuild(prev.Calculation, patch.Calculation)
	if patch.Timezone != nil {
		next.Timezone = *patch.Timezone
	}
	if patch.Hour12 != nil {
		next.Hour12 = *patch.Hour12
	}
	if patch.ShowWeekday != nil {
		next.ShowWeekday = *patch.ShowWeekday
	}
	if patch.NotifyCommand != nil {
		next.NotifyCommand = *patch.NotifyCommand
	}
	return next
}
