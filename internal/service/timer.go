package service

import "time"

// Dispatcher runs fn on the goroutine that owns the controller state.
type Dispatcher func(fn func())

type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func newRealTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Countdown is a single-shot, cancellable per-question timer.
// Start, Cancel and every callback run on the dispatcher's goroutine; the ticker
// goroutine only measures time and posts ticks.
type Countdown struct {
	interval  time.Duration
	dispatch  Dispatcher
	newTicker tickerFunc

	round     uint64
	active    bool
	remaining int
	stop      chan struct{}
	onTick    func(remaining int)
	onExpire  func()
}

func NewCountdown(interval time.Duration, dispatch Dispatcher) *Countdown {
	return &Countdown{
		interval:  interval,
		dispatch:  dispatch,
		newTicker: newRealTicker,
	}
}

// Start cancels any running countdown and begins a new one of the given seconds.
func (c *Countdown) Start(seconds int, onTick func(remaining int), onExpire func()) {
	c.Cancel()

	c.round++
	c.active = true
	c.remaining = seconds
	c.onTick = onTick
	c.onExpire = onExpire

	stop := make(chan struct{})
	c.stop = stop
	round := c.round
	ticks, stopTicker := c.newTicker(c.interval)

	go func() {
		defer stopTicker()
		for {
			select {
			case <-stop:
				return
			case <-ticks:
				c.dispatch(func() { c.tick(round) })
			}
		}
	}()
}

// Cancel stops the running countdown. It is a no-op when nothing runs.
func (c *Countdown) Cancel() {
	if !c.active {
		return
	}
	c.active = false
	close(c.stop)
	c.stop = nil
	c.onTick = nil
	c.onExpire = nil
}

func (c *Countdown) Active() bool {
	return c.active
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) tick(round uint64) {
	// ticks posted before a Cancel or a restart arrive late and are dropped here
	if !c.active || round != c.round {
		return
	}

	c.remaining--
	if c.onTick != nil {
		c.onTick(c.remaining)
	}
	if c.remaining > 0 || !c.active || round != c.round {
		return
	}

	onExpire := c.onExpire
	c.Cancel()
	if onExpire != nil {
		onExpire()
	}
}
