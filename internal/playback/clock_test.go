package playback

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClock(t *testing.T) {
	c := NewClock(6300)
	assert.Equal(t, 0.0, c.Now())
	assert.False(t, c.Running())
	assert.Equal(t, DefaultSpeed, c.Speed())
	assert.Equal(t, Stopped, c.Status())

	assert.Equal(t, 0.0, NewClock(-5).MaxTime())
}

func TestClock_Tick_advancesByScaledWallTime(t *testing.T) {
	c := NewClock(6300)
	require.NoError(t, c.SetSpeed(4))
	require.True(t, c.Play())

	reached := c.Tick(100 * time.Millisecond)
	assert.False(t, reached)
	assert.InDelta(t, 4.0, c.Now(), 1e-9)

	for i := 0; i < 9; i++ {
		c.Tick(100 * time.Millisecond)
	}
	assert.InDelta(t, 40.0, c.Now(), 1e-9)

	require.NoError(t, c.SetSpeed(1))
	c.Tick(100 * time.Millisecond)
	assert.InDelta(t, 41.0, c.Now(), 1e-9)
}

func TestClock_Tick_noopWhenNotRunning(t *testing.T) {
	c := NewClock(100)
	assert.False(t, c.Tick(time.Second))
	assert.Equal(t, 0.0, c.Now())

	c.Seek(50)
	c.Tick(time.Second)
	assert.Equal(t, 50.0, c.Now())
}

func TestClock_Tick_monotonic(t *testing.T) {
	for _, speed := range []float64{0.25, 1, 4, 16, 1000} {
		c := NewClock(6300)
		require.NoError(t, c.SetSpeed(speed))
		c.Play()
		prev := c.Now()
		for i := 0; i < 500; i++ {
			c.Tick(100 * time.Millisecond)
			if c.Now() < prev {
				t.Fatalf("speed %v: time went backwards from %v to %v", speed, prev, c.Now())
			}
			prev = c.Now()
		}
	}
}

func TestClock_Tick_stopsExactlyOnceAtMaxTime(t *testing.T) {
	c := NewClock(10)
	require.NoError(t, c.SetSpeed(4))
	c.Play()

	var reached int
	for i := 0; i < 10; i++ {
		if c.Tick(100 * time.Millisecond) {
			reached++
		}
	}
	assert.Equal(t, 1, reached)
	assert.Equal(t, 10.0, c.Now())
	assert.False(t, c.Running())
	assert.Equal(t, Paused, c.Status())

	// Terminal: play at maxTime does nothing.
	assert.False(t, c.Play())
	assert.False(t, c.Running())
}

func TestClock_Seek_clamps(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-10, 0},
		{0, 0},
		{1234.5, 1234.5},
		{6300, 6300},
		{9999, 6300},
		{math.Inf(1), 6300},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		for _, running := range []bool{false, true} {
			c := NewClock(6300)
			c.Seek(3000)
			if running {
				c.Play()
			}
			c.Seek(tc.in)
			assert.Equal(t, tc.want, c.Now(), "seek(%v)", tc.in)
			assert.Equal(t, running, c.Running(), "seek keeps running state")
		}
	}
}

func TestClock_SetSpeed_rejectsNonPositive(t *testing.T) {
	c := NewClock(100)
	for _, s := range []float64{0, -1, math.NaN()} {
		assert.ErrorIs(t, c.SetSpeed(s), ErrInvalidSpeed)
	}
	assert.Equal(t, DefaultSpeed, c.Speed())
}

func TestClock_stateMachine(t *testing.T) {
	c := NewClock(100)
	assert.Equal(t, Stopped, c.Status())

	c.Play()
	assert.Equal(t, Running, c.Status())

	c.Tick(time.Second)
	c.Pause()
	assert.Equal(t, Paused, c.Status())

	assert.True(t, c.Toggle())
	assert.Equal(t, Running, c.Status())
	assert.False(t, c.Toggle())
	assert.Equal(t, Paused, c.Status())

	c.Play()
	c.Seek(77)
	c.Reset()
	assert.Equal(t, Snapshot{MaxTime: 100, Speed: DefaultSpeed, Status: Stopped}, c.Snapshot())
}

func TestClock_Snapshot_progress(t *testing.T) {
	c := NewClock(200)
	c.Seek(50)
	s := c.Snapshot()
	assert.Equal(t, 0.25, s.Progress)
	assert.Equal(t, Paused, s.Status)

	assert.Equal(t, 0.0, NewClock(0).Snapshot().Progress)
}
