package playback

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickFunc is called on every tick with the nominal tick period. Returning
// false stops the driver.
type TickFunc func(dt time.Duration) bool

// Driver owns the periodic ticker of one view. At most one ticker is
// scheduled at a time: Start cancels the previous one before scheduling its
// own.
//
// Stop does not wait for an in-flight TickFunc, so it may be called while the
// caller holds the lock that TickFunc takes. Call Wait outside that lock when
// the goroutine must be gone (view unmount).
type Driver struct {
	clock    clockwork.Clock
	interval time.Duration

	mu     sync.Mutex
	stop   chan struct{}
	ticker clockwork.Ticker
	wg     sync.WaitGroup
}

// NewDriver returns a driver ticking every interval on clock. A nil clock
// uses the real clock and a non-positive interval uses DefaultTickInterval.
func NewDriver(clock clockwork.Clock, interval time.Duration) *Driver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Driver{clock: clock, interval: interval}
}

// Interval returns the tick period.
func (d *Driver) Interval() time.Duration { return d.interval }

// Start cancels any scheduled ticker and schedules fn.
func (d *Driver) Start(fn TickFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	stop := make(chan struct{})
	d.stop = stop
	d.ticker = d.clock.NewTicker(d.interval)

	d.wg.Add(1)
	go d.run(d.ticker.Chan(), stop, fn)
}

// Stop cancels the scheduled ticker, if any. No tick fires after Stop
// returns other than one already in progress.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Wait blocks until every tick goroutine started by d has exited.
func (d *Driver) Wait() {
	d.wg.Wait()
}

// Active reports whether a ticker is scheduled.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stop != nil
}

func (d *Driver) stopLocked() {
	if d.stop != nil {
		d.ticker.Stop()
		close(d.stop)
		d.stop = nil
		d.ticker = nil
	}
}

func (d *Driver) run(ticks <-chan time.Time, stop chan struct{}, fn TickFunc) {
	defer d.wg.Done()

	for {
		select {
		case <-stop:
			return
		case <-ticks:
		}

		// A tick and a Stop can race in the select above.
		select {
		case <-stop:
			return
		default:
		}

		if !fn(d.interval) {
			d.mu.Lock()
			if d.stop == stop {
				d.stopLocked()
			}
			d.mu.Unlock()
			return
		}
	}
}
