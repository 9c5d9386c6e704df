// Package playback simulates the 4D playback of the semantic landscape: a
// virtual clock advanced on a wall-clock tick, the classification of points
// relative to it, and the set of points revealed so far.
package playback

import (
	"errors"
	"time"
)

const (
	// TimeScale is the number of virtual seconds added per wall millisecond at
	// 1x speed: a 100ms tick advances the clock by 1 second at 1x, 4 at 4x.
	// Keep this value as is; the pacing of every fixture was tuned against it.
	TimeScale = 0.01

	// DefaultTickInterval is the wall-clock period of a tick.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultSpeed is the multiplier a new clock starts with.
	DefaultSpeed = 4.0
)

// SpeedPresets are the multipliers offered by the playback controls.
var SpeedPresets = []float64{1, 2, 4, 8, 16}

// ErrInvalidSpeed is returned by SetSpeed for non-positive multipliers.
var ErrInvalidSpeed = errors.New("playback speed must be positive")

// Status is the state-machine position of a clock.
type Status int

const (
	Stopped Status = iota
	Paused
	Running
)

func (s Status) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Paused:
		return "paused"
	case Running:
		return "running"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Clock holds the virtual elapsed time of a playback. It is not safe for
// concurrent use; the owner serialises commands and ticks.
type Clock struct {
	current float64
	max     float64
	speed   float64
	running bool
}

// NewClock returns a stopped clock at t=0 that runs up to maxTime seconds.
func NewClock(maxTime float64) *Clock {
	if maxTime < 0 {
		maxTime = 0
	}
	return &Clock{max: maxTime, speed: DefaultSpeed}
}

// Play starts the clock. It is a no-op once the clock has reached maxTime and
// reports whether the clock is running afterwards.
func (c *Clock) Play() bool {
	if c.current >= c.max {
		return false
	}
	c.running = true
	return true
}

// Pause stops the clock at its current time.
func (c *Clock) Pause() {
	c.running = false
}

// Toggle pauses a running clock and plays a paused one.
func (c *Clock) Toggle() bool {
	if c.running {
		c.Pause()
		return false
	}
	return c.Play()
}

// Reset rewinds to t=0 and stops.
func (c *Clock) Reset() {
	c.current = 0
	c.running = false
}

// Seek moves to t clamped to [0, maxTime]. Running state is unchanged.
func (c *Clock) Seek(t float64) {
	c.current = clamp(t, 0, c.max)
}

// SetSpeed replaces the multiplier used by the next tick.
func (c *Clock) SetSpeed(s float64) error {
	if !(s > 0) {
		return ErrInvalidSpeed
	}
	c.speed = s
	return nil
}

// Tick advances a running clock by dt of wall time. It reports true exactly
// when this tick reached maxTime and stopped the clock. Ticks on a stopped
// clock do nothing.
func (c *Clock) Tick(dt time.Duration) bool {
	if !c.running {
		return false
	}
	ms := float64(dt) / float64(time.Millisecond)
	if ms < 0 {
		ms = 0
	}
	next := c.current + ms*c.speed*TimeScale
	if next >= c.max {
		c.current = c.max
		c.running = false
		return true
	}
	c.current = next
	return false
}

// Now returns the current virtual time in seconds.
func (c *Clock) Now() float64 { return c.current }

// MaxTime returns the end of the playback in seconds.
func (c *Clock) MaxTime() float64 { return c.max }

// Speed returns the current multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// Running reports whether ticks advance the clock.
func (c *Clock) Running() bool { return c.running }

// Status derives the state-machine position.
func (c *Clock) Status() Status {
	switch {
	case c.running:
		return Running
	case c.current == 0:
		return Stopped
	default:
		return Paused
	}
}

// Snapshot is a read-only copy of a clock.
type Snapshot struct {
	CurrentTime float64 `json:"current_time"`
	MaxTime     float64 `json:"max_time"`
	Speed       float64 `json:"speed"`
	Running     bool    `json:"running"`
	Status      Status  `json:"status"`
	Progress    float64 `json:"progress"`
}

// Snapshot copies the clock state.
func (c *Clock) Snapshot() Snapshot {
	var progress float64
	if c.max > 0 {
		progress = c.current / c.max
	}
	return Snapshot{
		CurrentTime: c.current,
		MaxTime:     c.max,
		Speed:       c.speed,
		Running:     c.running,
		Status:      c.Status(),
		Progress:    progress,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v != v { // NaN
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
