// Package playback drives a scene frame by frame from 1 to its length.
//
// The clock is cooperative: a host Scheduler invokes one tick at a time and
// each tick fully completes (apply, render, capture) before the next one is
// scheduled. Nothing here is safe for concurrent use.
package playback

import "fmt"

// Sequence is the part of a scene the clock needs
type Sequence interface {
	TotalFrames() int
	ApplyFrame(frame int)
}

// Scheduler queues fn to run on the host's next display frame
type Scheduler interface {
	Schedule(fn func())
}

// State of a Clock
type State int

const (
	Idle State = iota
	Running
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes how a run ended
type Outcome int

const (
	Completed Outcome = iota
	Aborted            // cancelled before the last frame
	Failed             // capture hook returned an error
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Aborted:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Hooks are the outbound collaborators of a run. All are optional.
type Hooks struct {
	// Render draws the current poses; called after every applied frame
	Render func()
	// Capture is called after Render and before the frame advances.
	// Returning an error stops the run with Failed.
	Capture func(frame int, seq Sequence) error
	// Done fires exactly once per run
	Done func(outcome Outcome, frames int, err error)
}

// Clock applies frames 1..TotalFrames in order, one per scheduled tick
type Clock struct {
	sched Scheduler
	hooks Hooks

	state   State
	seq     Sequence
	frame   int
	applied int
	run     uint64 // generation; ticks from older runs are ignored
}

// NewClock creates an idle clock
func NewClock(sched Scheduler, hooks Hooks) *Clock {
	return &Clock{sched: sched, hooks: hooks, state: Idle}
}

// State returns the current state
func (c *Clock) State() State {
	return c.state
}

// Frame returns the next frame to apply
func (c *Clock) Frame() int {
	return c.frame
}

// Applied returns how many frames the current or last run applied
func (c *Clock) Applied() int {
	return c.applied
}

// Start begins a run at frame 1. It does nothing and returns false while
// a run is already in progress.
func (c *Clock) Start(seq Sequence) bool {
	if c.state == Running {
		return false
	}
	c.run++
	c.seq = seq
	c.frame = 1
	c.applied = 0
	c.state = Running
	c.schedule()
	return true
}

// Cancel stops the current run before its next tick. Poses written by
// completed ticks are left in place.
func (c *Clock) Cancel() {
	if c.state != Running {
		return
	}
	c.state = Cancelled
	c.finish(Aborted, nil)
}

func (c *Clock) schedule() {
	run := c.run
	c.sched.Schedule(func() { c.tick(run) })
}

func (c *Clock) tick(run uint64) {
	if run != c.run || c.state != Running {
		return
	}

	if c.frame > c.seq.TotalFrames() {
		c.state = Idle
		c.finish(Completed, nil)
		return
	}

	c.seq.ApplyFrame(c.frame)
	c.applied++

	if c.hooks.Render != nil {
		c.hooks.Render()
		if run != c.run || c.state != Running {
			return
		}
	}
	if c.hooks.Capture != nil {
		err := c.hooks.Capture(c.frame, c.seq)
		// A hook may have cancelled or restarted the run; its Done already fired
		if run != c.run || c.state != Running {
			return
		}
		if err != nil {
			c.state = Idle
			c.finish(Failed, fmt.Errorf("capture frame %d: %w", c.frame, err))
			return
		}
	}

	c.frame++
	c.schedule()
}

func (c *Clock) finish(outcome Outcome, err error) {
	if c.hooks.Done != nil {
		c.hooks.Done(outcome, c.applied, err)
	}
}
