// Package circuitbreaker stops the lineup service from hammering a match
// record store or lineup cache that keeps failing.
//
// A breaker starts closed. After Settings.Trip consecutive failures it opens
// and rejects calls with ErrCircuitOpen until Settings.Cooldown has elapsed.
// It then lets Settings.Probes calls through (half-open); a failed probe
// reopens it and Settings.Recover successful probes close it again.
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State of a breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var (
	// ErrCircuitOpen rejects calls while the breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests rejects calls once the half-open probes are in flight.
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// Rejected reports whether err came from the breaker rather than the call.
func Rejected(err error) bool {
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests)
}

// Settings tune a breaker. Zero fields take the values of Defaults.
type Settings struct {
	Name     string
	Trip     int
	Recover  int
	Probes   int
	Cooldown time.Duration

	// Counts decides which errors count against the breaker. Nil counts
	// every non-nil error.
	Counts func(error) bool
	// OnStateChange runs with the breaker lock held; keep it short.
	OnStateChange func(name string, from, to State)
}

// Defaults fill zero Settings fields.
var Defaults = Settings{Trip: 5, Recover: 2, Probes: 1, Cooldown: 30 * time.Second}

// Stats are lifetime call totals.
type Stats struct {
	Calls       int
	Failures    int
	Rejected    int
	LastTrip    time.Time
	Consecutive int
}

// CircuitBreaker guards calls to one dependency.
type CircuitBreaker struct {
	set Settings
	now func() time.Time

	mu       sync.Mutex
	state    State
	streak   int // consecutive failures when closed, successes when half-open
	inflight int
	openedAt time.Time
	stats    Stats
}

// New builds a closed breaker.
func New(s Settings) *CircuitBreaker {
	if s.Trip <= 0 {
		s.Trip = Defaults.Trip
	}
	if s.Recover <= 0 {
		s.Recover = Defaults.Recover
	}
	if s.Probes <= 0 {
		s.Probes = Defaults.Probes
	}
	if s.Cooldown <= 0 {
		s.Cooldown = Defaults.Cooldown
	}
	return &CircuitBreaker{set: s, now: time.Now}
}

// StoreBreaker guards the match record store. Only errors accepted by counts
// trip it, so lookups that legitimately miss do not open the circuit.
func StoreBreaker(trip int, cooldown time.Duration, counts func(error) bool, onStateChange func(name string, from, to State)) *CircuitBreaker {
	if trip <= 0 {
		trip = 3
	}
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}
	return New(Settings{
		Name:          "match-store",
		Trip:          trip,
		Recover:       1,
		Probes:        1,
		Cooldown:      cooldown,
		Counts:        counts,
		OnStateChange: onStateChange,
	})
}

// CacheBreaker guards the lineup cache. Callers fall back to the repository,
// so it trips and recovers quickly.
func CacheBreaker(onStateChange func(name string, from, to State)) *CircuitBreaker {
	return New(Settings{
		Name:          "lineup-cache",
		Trip:          5,
		Recover:       1,
		Probes:        2,
		Cooldown:      5 * time.Second,
		OnStateChange: onStateChange,
	})
}

// Execute runs fn unless the breaker rejects the call, and records the outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := fn(ctx)
	cb.record(err)
	return err
}

// ExecuteWithFallback is Execute with fallback handling breaker rejections.
func (cb *CircuitBreaker) ExecuteWithFallback(ctx context.Context, fn func(context.Context) error, fallback func(error) error) error {
	err := cb.Execute(ctx, fn)
	if Rejected(err) {
		return fallback(err)
	}
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.set.Cooldown {
		cb.transition(StateHalfOpen)
	}
	switch cb.state {
	case StateOpen:
		cb.stats.Rejected++
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.inflight >= cb.set.Probes {
			cb.stats.Rejected++
			return ErrTooManyRequests
		}
		cb.inflight++
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.stats.Calls++
	failed := err != nil && (cb.set.Counts == nil || cb.set.Counts(err))
	if failed {
		cb.stats.Failures++
	}

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.streak = 0
			return
		}
		cb.streak++
		if cb.streak >= cb.set.Trip {
			cb.trip()
		}
	case StateHalfOpen:
		cb.inflight--
		if failed {
			cb.trip()
			return
		}
		cb.streak++
		if cb.streak >= cb.set.Recover {
			cb.transition(StateClosed)
		}
	}
	// Results landing after the breaker opened are counted but do not move it.
}

func (cb *CircuitBreaker) trip() {
	cb.openedAt = cb.now()
	cb.stats.LastTrip = cb.openedAt
	cb.transition(StateOpen)
}

func (cb *CircuitBreaker) transition(to State) {
	if cb.state == to {
		return
	}
	from := cb.state
	cb.state = to
	cb.streak = 0
	cb.inflight = 0
	if cb.set.OnStateChange != nil {
		cb.set.OnStateChange(cb.set.Name, from, to)
	}
}

// State returns the current state without advancing an expired cooldown.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a copy of the call totals.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	s := cb.stats
	s.Consecutive = cb.streak
	return s
}

// Reset closes the breaker and clears its totals.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.streak, cb.inflight = 0, 0
	cb.stats = Stats{}
}

func (cb *CircuitBreaker) Name() string { return cb.set.Name }
