package playback

import (
	"context"
	"time"
)

// ManualScheduler queues callbacks until the owner steps them.
// Export uses it to run ticks back to back without wall-clock pacing.
type ManualScheduler struct {
	queue []func()
}

// Schedule appends fn to the queue
func (m *ManualScheduler) Schedule(fn func()) {
	m.queue = append(m.queue, fn)
}

// Pending returns the number of queued callbacks
func (m *ManualScheduler) Pending() int {
	return len(m.queue)
}

// Step runs the oldest queued callback and reports whether one ran
func (m *ManualScheduler) Step() bool {
	if len(m.queue) == 0 {
		return false
	}
	fn := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	fn()
	return true
}

// Drain steps until the queue is empty or ctx is done
func (m *ManualScheduler) Drain(ctx context.Context) error {
	for m.Pending() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Step()
	}
	return nil
}

// TickerScheduler paces callbacks on a fixed-rate ticker. Callbacks
// scheduled during a tick run on the following one.
type TickerScheduler struct {
	interval time.Duration
	queue    []func()
}

// NewTickerScheduler creates a scheduler firing fps times per second
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 30
	}
	return &TickerScheduler{interval: time.Second / time.Duration(fps)}
}

// Interval returns the time between ticks
func (s *TickerScheduler) Interval() time.Duration {
	return s.interval
}

// Schedule queues fn for the next tick
func (s *TickerScheduler) Schedule(fn func()) {
	s.queue = append(s.queue, fn)
}

// Run fires queued callbacks on every tick until ctx is done or nothing is
// left to run. Schedule must only be called from callbacks or before Run.
func (s *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for len(s.queue) > 0 {
		// Cancellation wins over a tick that is ready at the same time
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			batch := s.queue
			s.queue = nil
			for _, fn := range batch {
				fn()
			}
		}
	}
	return nil
}
