package record

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrQueueFull is returned when the async queue cannot accept more records.
	ErrQueueFull = errors.New("record queue is full")
	// ErrRecorderClosed is returned by Record after Close.
	ErrRecorderClosed = errors.New("recorder is closed")
)

const (
	defaultQueueSize = 256
	defaultAttempts  = 3
	defaultBackoff   = time.Second
)

// AsyncRecorder decouples room teardown from persistence: Record enqueues
// and returns immediately, and a background worker writes each record to the
// wrapped recorder, retrying failures a bounded number of times. Failures
// are logged, never surfaced to the teardown path.
type AsyncRecorder struct {
	inner    Recorder
	jobs     chan MatchRecord
	attempts int
	backoff  time.Duration
	logger   zerolog.Logger

	// mu orders Record against Close so nothing sends on the closed queue.
	mu     sync.RWMutex
	closed bool

	closeOnce sync.Once
	done      chan struct{}
}

// AsyncOption tunes an AsyncRecorder.
type AsyncOption func(*AsyncRecorder)

// WithQueueSize sets the queue capacity.
func WithQueueSize(n int) AsyncOption {
	return func(a *AsyncRecorder) {
		if n > 0 {
			a.jobs = make(chan MatchRecord, n)
		}
	}
}

// WithRetry sets how many write attempts each record gets and the delay
// between them.
func WithRetry(attempts int, backoff time.Duration) AsyncOption {
	return func(a *AsyncRecorder) {
		if attempts > 0 {
			a.attempts = attempts
		}
		if backoff >= 0 {
			a.backoff = backoff
		}
	}
}

// NewAsyncRecorder wraps inner and starts the worker goroutine.
func NewAsyncRecorder(inner Recorder, opts ...AsyncOption) *AsyncRecorder {
	a := &AsyncRecorder{
		inner:    inner,
		jobs:     make(chan MatchRecord, defaultQueueSize),
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		logger:   log.With().Str("component", "async-recorder").Logger(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	go a.run()
	return a
}

// Record implements Recorder. It never blocks: when the queue is full the
// record is dropped with an error log and ErrQueueFull is returned. Records
// arriving after Close are rejected with ErrRecorderClosed.
func (a *AsyncRecorder) Record(ctx context.Context, rec MatchRecord) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrRecorderClosed
	}
	select {
	case a.jobs <- rec:
		return nil
	default:
		a.logger.Error().Str("user1", rec.UserID1).Str("user2", rec.UserID2).
			Msg("record queue full, dropping match record")
		return ErrQueueFull
	}
}

// Close stops accepting records and waits for queued ones to drain.
func (a *AsyncRecorder) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		close(a.jobs)
	})
	<-a.done
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for rec := range a.jobs {
		a.persist(rec)
	}
}

func (a *AsyncRecorder) persist(rec MatchRecord) {
	var err error
	for attempt := 1; attempt <= a.attempts; attempt++ {
		if err = a.inner.Record(context.Background(), rec); err == nil {
			return
		}
		a.logger.Warn().Err(err).Int("attempt", attempt).
			Str("user1", rec.UserID1).Str("user2", rec.UserID2).
			Msg("match record write failed")
		if attempt < a.attempts {
			time.Sleep(a.backoff)
		}
	}
	a.logger.Error().Err(err).Str("user1", rec.UserID1).Str("user2", rec.UserID2).
		Msg("giving up on match record")
}
