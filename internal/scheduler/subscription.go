package scheduler

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"adhan-manager/internal/domain"
)

// State is the lifecycle stage of a subscription.
type State int

const (
	StateCreated State = iota
	StateScheduled
	StateCompleted
	StateCancelled
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateScheduled:
		return "scheduled"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further event can be delivered.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateErrored
}

// Subscription owns the pending timers of one Subscribe call.
type Subscription struct {
	id  string
	obs Observer

	// emitMu serializes deliveries so events keep their chronological order
	// even when timers fire on different goroutines. It is held from the
	// state check until the callback returns.
	emitMu sync.Mutex
	// deliverer is the goroutine currently running an observer callback, 0 if none.
	deliverer atomic.Int64

	mu     sync.Mutex
	state  State
	queue  []domain.Prayer
	next   int
	timers []Timer

	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(id string, obs Observer) *Subscription {
	return &Subscription{
		id:    id,
		obs:   obs,
		state: StateCreated,
		done:  make(chan struct{}),
	}
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string {
	return s.id
}

// State returns the current lifecycle stage.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns how many scheduled prayers have not been delivered yet.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminal() {
		return 0
	}
	return len(s.queue) - s.next
}

// Done is closed once the subscription reaches a terminal state.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops every pending timer. No OnNext or OnComplete starts after
// Cancel returns. Calling it again, or after completion, does nothing.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateCancelled
	s.stopTimersLocked()
	s.mu.Unlock()

	// Wait out a delivery that passed its state check. Skipped when called
	// from inside a callback, whose goroutine already holds emitMu.
	if !s.inCallback() {
		s.emitMu.Lock()
		s.emitMu.Unlock()
	}
	s.closeDone()
}

// Fail reports a host failure, e.g. a broken timer source, to the observer.
// Pending timers are stopped and OnError is delivered once; afterwards the
// subscription behaves as cancelled. It does nothing on a terminal subscription.
func (s *Subscription) Fail(err error) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state = StateErrored
	s.stopTimersLocked()
	s.mu.Unlock()

	if s.inCallback() {
		s.callError(err)
		return
	}
	s.deliverError(err)
}

func (s *Subscription) stopTimersLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}

// fire delivers every queued prayer up to and including idx that has not
// been delivered yet.
func (s *Subscription) fire(idx int) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	for {
		s.mu.Lock()
		if s.state != StateScheduled || s.next > idx {
			s.mu.Unlock()
			return
		}
		prayer := s.queue[s.next]
		s.next++
		last := s.next == len(s.queue)
		if last {
			s.state = StateCompleted
			s.timers = nil
		}
		s.mu.Unlock()

		s.deliverNext(prayer)
		if last {
			s.deliverComplete()
			return
		}
	}
}

// deliverNone sends the "no prayer left today" sentinel and completes.
func (s *Subscription) deliverNone() {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.deliverNext(domain.PrayerNone)
	s.deliverComplete()
}

func (s *Subscription) deliverNext(p domain.Prayer) {
	if s.obs.OnNext == nil {
		return
	}
	defer s.enterCallback()()
	s.obs.OnNext(p)
}

func (s *Subscription) deliverComplete() {
	defer s.closeDone()
	if s.obs.OnComplete == nil {
		return
	}
	defer s.enterCallback()()
	s.obs.OnComplete()
}

func (s *Subscription) deliverError(err error) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	s.callError(err)
}

// callError runs OnError; the caller holds emitMu.
func (s *Subscription) callError(err error) {
	defer s.closeDone()
	if s.obs.OnError == nil {
		return
	}
	defer s.enterCallback()()
	s.obs.OnError(err)
}

// enterCallback marks the calling goroutine as the deliverer and returns the
// function that restores the previous deliverer.
func (s *Subscription) enterCallback() func() {
	prev := s.deliverer.Swap(goroutineID())
	return func() { s.deliverer.Store(prev) }
}

func (s *Subscription) inCallback() bool {
	d := s.deliverer.Load()
	return d != 0 && d == goroutineID()
}

// goroutineID parses the id from the "goroutine N [...]" stack header.
func goroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseInt(string(b), 10, 64)
	return id
}

func (s *Subscription) closeDone() {
	s.doneOnce.Do(func() { close(s.done) })
}
