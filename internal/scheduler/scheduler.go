// Package scheduler turns one day of prayer timestamps into a time-ordered
// stream of prayer events.
//
// Scheduling is split in two phases. Describe captures the prayer times and
// returns a Stream, which has no side effects and can be reused. Each call to
// Subscribe reads "now" once and registers its own timers, so a Stream can be
// subscribed again later and yields a fresh, independent event sequence.
package scheduler

import (
	"time"

	"github.com/google/uuid"

	"adhan-manager/internal/domain"
	"adhan-manager/internal/logging"
)

// Observer receives the events of one subscription. Nil callbacks are skipped.
type Observer struct {
	OnNext     func(prayer domain.Prayer)
	OnError    func(err error)
	OnComplete func()
}

// Scheduler creates prayer event streams on a clock.
type Scheduler struct {
	clock Clock
}

// New creates a scheduler. A nil clock means the system clock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{clock: clock}
}

// Clock returns the clock subscriptions read "now" from.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Stream describes the events for one PrayerTimeSet. It holds no timers.
type Stream struct {
	times domain.PrayerTimeSet
	clock Clock
}

// Describe returns a reusable stream for times.
func (s *Scheduler) Describe(times domain.PrayerTimeSet) Stream {
	return Stream{times: times, clock: s.clock}
}

// Times returns the prayer times the stream was described from.
func (st Stream) Times() domain.PrayerTimeSet {
	return st.times
}

// Subscribe reads the current time from the clock and schedules the events.
func (st Stream) Subscribe(obs Observer) *Subscription {
	return st.SubscribeAt(st.clock.Now(), obs)
}

// SubscribeAt schedules one event per prayer whose time is not before now.
// If every prayer has passed, OnNext(PrayerNone) and OnComplete are delivered
// before SubscribeAt returns and no timer is created.
func (st Stream) SubscribeAt(now time.Time, obs Observer) *Subscription {
	sub := newSubscription(uuid.NewString(), obs)
	log := logging.Logger().With().Str("subscription", sub.id).Logger()
	log.Debug().Time("now", now).Msg("subscribing")

	sub.mu.Lock()
	sub.state = StateScheduled
	var schedErr error
	for _, e := range st.times.Entries() {
		delay := e.At.Sub(now)
		log.Debug().Str("prayer", e.Prayer.String()).Dur("delay", delay).Msg("prayer delay")
		if delay < 0 {
			continue
		}
		idx := len(sub.queue)
		sub.queue = append(sub.queue, e.Prayer)
		timer, err := st.clock.AfterFunc(delay, func() { sub.fire(idx) })
		if err != nil {
			schedErr = err
			break
		}
		sub.timers = append(sub.timers, timer)
	}

	if schedErr != nil {
		sub.state = StateErrored
		sub.stopTimersLocked()
		sub.mu.Unlock()
		log.Error().Err(schedErr).Msg("scheduling failed")
		sub.deliverError(schedErr)
		return sub
	}

	if len(sub.queue) == 0 {
		// every prayer of the day has already passed
		sub.state = StateCompleted
		sub.mu.Unlock()
		log.Debug().Msg("no prayer left today")
		sub.deliverNone()
		return sub
	}
	sub.mu.Unlock()
	return sub
}
