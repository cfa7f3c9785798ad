package room

import "time"

// Timing configures the turn timeout. The defaults are part of the observable
// contract: a mover has 30 seconds per move and forfeiture is detected within
// about half a second of the deadline. Tests shrink these.
type Timing struct {
	// TurnTimeout is how long the side on move has before forfeiting.
	TurnTimeout time.Duration
	// PollDelay is how long the poller waits before its first check.
	PollDelay time.Duration
	// PollInterval is the period between subsequent checks.
	PollInterval time.Duration
}

// DefaultTiming is the production timeout configuration.
var DefaultTiming = Timing{
	TurnTimeout:  30 * time.Second,
	PollDelay:    time.Second,
	PollInterval: 500 * time.Millisecond,
}

func (t Timing) withDefaults() Timing {
	if t.TurnTimeout <= 0 {
		t.TurnTimeout = DefaultTiming.TurnTimeout
	}
	if t.PollDelay <= 0 {
		t.PollDelay = DefaultTiming.PollDelay
	}
	if t.PollInterval <= 0 {
		t.PollInterval = DefaultTiming.PollInterval
	}
	return t
}

// pollTimer is the handle for one room's poll goroutine.
type pollTimer struct {
	stop chan struct{}
}

func (t *pollTimer) halt() {
	close(t.stop)
}

// ArmOrRefreshTimeout pushes the forfeiture deadline out to now plus the turn
// timeout and makes sure exactly one poll timer is running for the room. The
// timer is installed with compare-and-swap, so concurrent refreshes never
// start two pollers; a losing install is discarded before it ever runs.
//
// Calling this on a finished room instead removes and stops any installed
// timer. It is safe to call repeatedly from any goroutine.
func (r *Room) ArmOrRefreshTimeout() {
	if r.Over() {
		r.DisarmTimeout()
		return
	}
	r.deadline.Store(time.Now().Add(r.timing.TurnTimeout).UnixNano())
	if r.timer.Load() != nil {
		return
	}
	t := &pollTimer{stop: make(chan struct{})}
	if !r.timer.CompareAndSwap(nil, t) {
		return
	}
	go r.poll(t)
}

// DisarmTimeout removes and stops the room's poll timer if one is installed.
// Idempotent.
func (r *Room) DisarmTimeout() {
	if t := r.timer.Swap(nil); t != nil {
		t.halt()
	}
}

// Deadline returns the current forfeiture deadline. It is only meaningful
// while the room is live.
func (r *Room) Deadline() time.Time {
	return time.Unix(0, r.deadline.Load())
}

func (r *Room) poll(t *pollTimer) {
	first := time.NewTimer(r.timing.PollDelay)
	defer first.Stop()
	select {
	case <-t.stop:
		return
	case <-first.C:
	}

	ticker := time.NewTicker(r.timing.PollInterval)
	defer ticker.Stop()
	for {
		if r.tick(t) {
			return
		}
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
	}
}

// tick runs one poll pass and reports whether the poller should exit. A pass
// on a live room fires a change notification even when no forfeiture
// happened; once the room is over the tick removes its own timer handle.
func (r *Room) tick(t *pollTimer) bool {
	if r.Over() {
		r.timer.CompareAndSwap(t, nil)
		return true
	}
	if time.Now().UnixNano() >= r.deadline.Load() {
		r.forfeit()
	}
	r.notifyChange()
	if r.Over() {
		r.timer.CompareAndSwap(t, nil)
		return true
	}
	return false
}
