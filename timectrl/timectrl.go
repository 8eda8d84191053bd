// Package timectrl drives scenario time. Listeners are told about every
// time change, forward ticks and seeks alike, and usually forward the new
// time to datastore.DataStore.Update.
package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

func (m Mode) String() string {
	if m == Accelerated {
		return "accelerated"
	}
	return "real-time"
}

// Listener receives the new simulation time and the scenario seconds it
// corresponds to.
type Listener func(now time.Time, seconds float64)

// TimeController drives simulation time and notifies registered listeners.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	currentTime time.Time
	listeners   []Listener
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// ScenarioSeconds returns the current time as seconds since StartTime.
func (tc *TimeController) ScenarioSeconds() float64 {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime.Sub(tc.StartTime).Seconds()
}

// TimeAt converts scenario seconds to an absolute time.
func (tc *TimeController) TimeAt(seconds float64) time.Time {
	return tc.StartTime.Add(time.Duration(seconds * float64(time.Second)))
}

// AddListener registers a callback invoked on every time change.
func (tc *TimeController) AddListener(fn Listener) {
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// SetTime moves the clock to now, which may be earlier than the current
// time, and notifies listeners before returning.
func (tc *TimeController) SetTime(now time.Time) {
	tc.move(func(time.Time) time.Time { return now })
}

// Advance moves the clock forward by d. The read of the current time and
// the write of the new one happen under the same lock.
func (tc *TimeController) Advance(d time.Duration) {
	tc.move(func(cur time.Time) time.Time { return cur.Add(d) })
}

func (tc *TimeController) move(next func(cur time.Time) time.Time) {
	tc.mu.Lock()
	now := next(tc.currentTime)
	tc.currentTime = now
	seconds := now.Sub(tc.StartTime).Seconds()
	listeners := append([]Listener(nil), tc.listeners...)
	tc.mu.Unlock()

	for _, fn := range listeners {
		fn(now, seconds)
	}
}

// SetScenarioSeconds is SetTime expressed in seconds since StartTime.
func (tc *TimeController) SetScenarioSeconds(seconds float64) {
	tc.SetTime(tc.TimeAt(seconds))
}

// Start runs the controller for the specified duration in a separate goroutine.
// It returns a channel that is closed when the controller finishes.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tc.Run(context.Background(), duration)
	}()
	return done
}

// Run advances the clock by Tick from its current time until duration of
// simulation time has elapsed or ctx is done. A zero duration runs until
// ctx is done. Each tick advances from the current time, so a seek made
// with SetTime while running carries on from the new time. Run returns
// ctx.Err() when cancelled.
func (tc *TimeController) Run(ctx context.Context, duration time.Duration) error {
	// RealTime uses the tick as its wall-clock period; Accelerated runs
	// one tick per millisecond at most.
	period := tc.Tick
	if tc.Mode == Accelerated && period > time.Millisecond {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	elapsed := time.Duration(0)
	for {
		if duration > 0 && elapsed >= duration {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		elapsed += tc.Tick
		tc.Advance(tc.Tick)
	}
}
