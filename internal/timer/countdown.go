package timer

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the wall-clock length of one countdown tick.
const DefaultInterval = time.Second

// ErrAlreadyStarted is returned when Start is called twice on one Countdown.
var ErrAlreadyStarted = errors.New("countdown already started")

// Countdown decrements a remaining-seconds counter once per interval and
// closes Done exactly once when it reaches zero. Drift is not compensated.
//
// The owner must call Stop on every exit path; a stopped countdown never
// ticks or expires afterwards.
type Countdown struct {
	interval time.Duration
	onTick   func(remaining int)

	mu        sync.Mutex
	remaining int
	started   bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	doneOnce sync.Once
}

// NewCountdown creates a countdown. onTick may be nil; it is called from the
// ticking goroutine after each decrement, before Done is closed on the last one.
func NewCountdown(interval time.Duration, onTick func(remaining int)) *Countdown {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Countdown{
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins ticking from totalSeconds. A non-positive total expires
// immediately: Done is already closed when Start returns and no tick fires.
func (c *Countdown) Start(totalSeconds int) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	if totalSeconds <= 0 {
		c.remaining = 0
		c.mu.Unlock()
		c.expire()
		return nil
	}
	c.remaining = totalSeconds
	c.mu.Unlock()

	go c.run()
	return nil
}

// Stop cancels ticking. Safe to call any number of times, from any goroutine,
// including from inside onTick. It never blocks on the ticking goroutine.
func (c *Countdown) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Done is closed when the countdown reaches zero.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Remaining returns the current remaining seconds.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

func (c *Countdown) run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if c.tick() {
				return
			}
		}
	}
}

// tick performs one decrement and reports whether ticking should end.
func (c *Countdown) tick() bool {
	select {
	case <-c.stop:
		return true
	default:
	}

	c.mu.Lock()
	if c.remaining == 0 {
		c.mu.Unlock()
		return true
	}
	c.remaining--
	remaining := c.remaining
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(remaining)
	}
	if remaining == 0 {
		c.expire()
		return true
	}
	return false
}

func (c *Countdown) expire() {
	c.doneOnce.Do(func() { close(c.done) })
}
