package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adhan-manager/internal/domain"
)

type recorder struct {
	mu        sync.Mutex
	events    []domain.Prayer
	at        []time.Time
	completes int
	errs      []error
	clock     Clock
}

func (r *recorder) observer() Observer {
	return Observer{
		OnNext: func(p domain.Prayer) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, p)
			if r.clock != nil {
				r.at = append(r.at, r.clock.Now())
			}
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
		OnComplete: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completes++
		},
	}
}

func daySet() domain.PrayerTimeSet {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return domain.PrayerTimeSet{
		Fajr:    day.Add(5 * time.Hour),
		Sunrise: day.Add(6*time.Hour + 30*time.Minute),
		Dhuhr:   day.Add(12*time.Hour + 30*time.Minute),
		Asr:     day.Add(15*time.Hour + 45*time.Minute),
		Maghrib: day.Add(18*time.Hour + 40*time.Minute),
		Isha:    day.Add(20 * time.Hour),
	}
}

func TestSubscribeEmitsInChronologicalOrder(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Second))
	rec := &recorder{clock: clock}

	sub := New(clock).Describe(set).Subscribe(rec.observer())
	assert.Equal(t, StateScheduled, sub.State())
	assert.Equal(t, 6, clock.Pending())
	assert.Empty(t, rec.events, "nothing fires before its time")

	clock.Advance(24 * time.Hour)

	assert.Equal(t, domain.Prayers, rec.events)
	assert.Equal(t, 1, rec.completes)
	assert.Empty(t, rec.errs)
	for i, at := range rec.at {
		assert.False(t, at.Before(set.TimeFor(domain.Prayers[i])), "%s delivered early", domain.Prayers[i])
	}
	assert.Equal(t, StateCompleted, sub.State())
	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel should be closed after completion")
	}
}

func TestSubscribeSkipsPastPrayers(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Dhuhr.Add(time.Minute))
	rec := &recorder{}

	sub := New(clock).Describe(set).Subscribe(rec.observer())
	assert.Equal(t, 3, sub.Pending())

	clock.Advance(set.Asr.Sub(clock.Now()))
	assert.Equal(t, []domain.Prayer{domain.PrayerAsr}, rec.events)
	assert.Zero(t, rec.completes)

	clock.Advance(12 * time.Hour)
	assert.Equal(t, []domain.Prayer{domain.PrayerAsr, domain.PrayerMaghrib, domain.PrayerIsha}, rec.events)
	assert.Equal(t, 1, rec.completes)
}

func TestPrayerAtExactlyNowIsScheduled(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Isha)
	rec := &recorder{}

	New(clock).Describe(set).Subscribe(rec.observer())
	assert.Empty(t, rec.events)
	clock.Advance(0)
	assert.Equal(t, []domain.Prayer{domain.PrayerIsha}, rec.events)
	assert.Equal(t, 1, rec.completes)
}

func TestAllPastEmitsSentinelSynchronously(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Isha.Add(time.Second))
	rec := &recorder{}

	sub := New(clock).Describe(set).Subscribe(rec.observer())

	assert.Equal(t, []domain.Prayer{domain.PrayerNone}, rec.events)
	assert.Equal(t, 1, rec.completes)
	assert.Zero(t, clock.Pending())
	assert.Equal(t, StateCompleted, sub.State())
	sub.Cancel()
	assert.Equal(t, StateCompleted, sub.State(), "cancel after completion is a no-op")
}

func TestCancelStopsPendingTimers(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	rec := &recorder{}

	sub := New(clock).Describe(set).Subscribe(rec.observer())
	sub.Cancel()
	sub.Cancel()

	assert.Zero(t, clock.Pending())
	clock.Advance(24 * time.Hour)
	assert.Empty(t, rec.events)
	assert.Zero(t, rec.completes)
	assert.Equal(t, StateCancelled, sub.State())
	assert.Zero(t, sub.Pending())
}

func TestCancelAfterSomeEvents(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	rec := &recorder{}

	sub := New(clock).Describe(set).Subscribe(rec.observer())
	clock.Advance(set.Sunrise.Sub(clock.Now()))
	require.Equal(t, []domain.Prayer{domain.PrayerFajr, domain.PrayerSunrise}, rec.events)

	sub.Cancel()
	clock.Advance(24 * time.Hour)
	assert.Len(t, rec.events, 2)
	assert.Zero(t, rec.completes)
}

func TestCancelFromInsideCallback(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	var events []domain.Prayer
	var sub *Subscription
	sub = New(clock).Describe(set).Subscribe(Observer{
		OnNext: func(p domain.Prayer) {
			events = append(events, p)
			if p == domain.PrayerDhuhr {
				sub.Cancel()
			}
		},
		OnComplete: func() { t.Fatal("cancelled subscription must not complete") },
	})

	clock.Advance(24 * time.Hour)
	assert.Equal(t, []domain.Prayer{domain.PrayerFajr, domain.PrayerSunrise, domain.PrayerDhuhr}, events)
	assert.Equal(t, StateCancelled, sub.State())
}

func TestStreamIsRestartable(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Hour))
	stream := New(clock).Describe(set)

	first := &recorder{}
	stream.Subscribe(first.observer())
	clock.Advance(24 * time.Hour)

	assert.Equal(t, domain.Prayers, first.events)
	assert.Equal(t, 1, first.completes)

	second := &recorder{}
	secondSub := stream.SubscribeAt(set.Maghrib.Add(-time.Minute), second.observer())
	assert.Equal(t, 2, secondSub.Pending())
	third := &recorder{}
	stream.SubscribeAt(set.Isha.Add(time.Minute), third.observer())
	assert.Equal(t, []domain.Prayer{domain.PrayerNone}, third.events)
	assert.Equal(t, 1, third.completes)

	assert.Empty(t, second.events, "nothing fires before the clock moves")
	clock.Advance(2 * time.Hour)

	assert.Equal(t, []domain.Prayer{domain.PrayerMaghrib, domain.PrayerIsha}, second.events)
	assert.Equal(t, 1, second.completes)
	assert.Equal(t, StateCompleted, secondSub.State())
	assert.Equal(t, domain.Prayers, first.events, "earlier subscription is untouched")
	assert.Equal(t, 1, first.completes)
	assert.Equal(t, []domain.Prayer{domain.PrayerNone}, third.events)
	assert.Equal(t, 1, third.completes)
	assert.Equal(t, set, stream.Times())
}

func TestSubscribeAtUsesGivenNow(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Maghrib.Add(-time.Minute))
	rec := &recorder{}

	sub := New(clock).Describe(set).SubscribeAt(set.Maghrib.Add(-time.Minute), rec.observer())
	assert.Equal(t, 2, sub.Pending())
	clock.Advance(time.Hour + time.Minute)
	assert.Equal(t, []domain.Prayer{domain.PrayerMaghrib}, rec.events)
}

func TestSchedulingFailureSurfacesError(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	clock.SetLimit(3)
	rec := &recorder{}

	sub := New(clock).Describe(set).Subscribe(rec.observer())

	require.Len(t, rec.errs, 1)
	assert.True(t, errors.Is(rec.errs[0], ErrTimerLimit))
	assert.Equal(t, StateErrored, sub.State())
	assert.Zero(t, clock.Pending(), "already registered timers are released")

	clock.Advance(24 * time.Hour)
	assert.Empty(t, rec.events)
	assert.Zero(t, rec.completes)
	sub.Cancel()
	assert.Equal(t, StateErrored, sub.State())
}

func TestFailActsAsCancelWithError(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	rec := &recorder{}
	sub := New(clock).Describe(set).Subscribe(rec.observer())

	clock.Advance(2 * time.Hour)
	require.Equal(t, []domain.Prayer{domain.PrayerFajr, domain.PrayerSunrise}, rec.events)

	boom := errors.New("timer source lost")
	sub.Fail(boom)
	sub.Fail(errors.New("second"))
	assert.Equal(t, StateErrored, sub.State())
	assert.Equal(t, []error{boom}, rec.errs)
	assert.Zero(t, clock.Pending())

	select {
	case <-sub.Done():
	default:
		t.Fatal("done channel not closed")
	}

	clock.Advance(24 * time.Hour)
	assert.Len(t, rec.events, 2)
	assert.Zero(t, rec.completes)
}

func TestFailFromInsideCallback(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	var errs []error
	var events []domain.Prayer
	var sub *Subscription
	sub = New(clock).Describe(set).Subscribe(Observer{
		OnNext: func(p domain.Prayer) {
			events = append(events, p)
			sub.Fail(errors.New("sink closed"))
		},
		OnError: func(err error) { errs = append(errs, err) },
	})

	clock.Advance(24 * time.Hour)
	assert.Equal(t, []domain.Prayer{domain.PrayerFajr}, events)
	assert.Len(t, errs, 1)
	assert.Equal(t, StateErrored, sub.State())
}

func TestSubscriptionsAreIndependent(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	stream := New(clock).Describe(set)

	a, b := &recorder{}, &recorder{}
	subA := stream.Subscribe(a.observer())
	subB := stream.Subscribe(b.observer())
	assert.NotEqual(t, subA.ID(), subB.ID())

	subA.Cancel()
	clock.Advance(24 * time.Hour)
	assert.Empty(t, a.events)
	assert.Equal(t, domain.Prayers, b.events)
}

func TestRealClockDelivers(t *testing.T) {
	now := time.Now()
	set := domain.PrayerTimeSet{
		Fajr:    now.Add(-5 * time.Hour),
		Sunrise: now.Add(-4 * time.Hour),
		Dhuhr:   now.Add(-3 * time.Hour),
		Asr:     now.Add(-2 * time.Hour),
		Maghrib: now.Add(10 * time.Millisecond),
		Isha:    now.Add(20 * time.Millisecond),
	}
	rec := &recorder{}
	sub := New(nil).Describe(set).Subscribe(rec.observer())

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not complete")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []domain.Prayer{domain.PrayerMaghrib, domain.PrayerIsha}, rec.events)
	assert.Equal(t, 1, rec.completes)
}

func TestCancelFromOtherGoroutineWaitsForDelivery(t *testing.T) {
	now := time.Now()
	set := domain.PrayerTimeSet{
		Fajr:    now.Add(10 * time.Millisecond),
		Sunrise: now.Add(time.Hour),
		Dhuhr:   now.Add(2 * time.Hour),
		Asr:     now.Add(3 * time.Hour),
		Maghrib: now.Add(4 * time.Hour),
		Isha:    now.Add(5 * time.Hour),
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	sub := New(RealClock()).Describe(set).Subscribe(Observer{
		OnNext: func(domain.Prayer) {
			close(entered)
			<-release
			finished.Store(true)
		},
	})

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("fajr was not delivered")
	}

	cancelled := make(chan struct{})
	go func() {
		sub.Cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("Cancel returned while OnNext was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("Cancel did not return after the delivery finished")
	}
	assert.True(t, finished.Load())
	assert.Equal(t, StateCancelled, sub.State())
}

func TestObserverPanicDoesNotLeaveDelivererSet(t *testing.T) {
	set := daySet()
	clock := NewManualClock(set.Fajr.Add(-time.Minute))
	sub := New(clock).Describe(set).Subscribe(Observer{
		OnNext: func(domain.Prayer) { panic("observer bug") },
	})

	require.Panics(t, func() { clock.Advance(time.Minute) })
	assert.Zero(t, sub.deliverer.Load())
	assert.False(t, sub.inCallback())
}
