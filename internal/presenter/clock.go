package presenter

import (
	"fmt"
	"time"
)

// Clock measures the talk time shown on the console. The zero Clock is
// paused at zero.
type Clock struct {
	now     func() time.Time
	since   time.Time
	running bool
	elapsed time.Duration
}

// NewClock returns a running clock.
func NewClock() *Clock {
	c := &Clock{now: time.Now}
	c.Toggle()
	return c
}

// Elapsed returns the running time.
func (c *Clock) Elapsed() time.Duration {
	if c.running {
		return c.elapsed + c.now().Sub(c.since)
	}
	return c.elapsed
}

// Running reports whether the clock is counting.
func (c *Clock) Running() bool { return c.running }

// Toggle pauses a running clock and resumes a paused one.
func (c *Clock) Toggle() {
	if c.running {
		c.elapsed += c.now().Sub(c.since)
	} else {
		c.since = c.now()
	}
	c.running = !c.running
}

// Reset returns the clock to zero, keeping it running or paused.
func (c *Clock) Reset() {
	c.elapsed = 0
	c.since = c.now()
}

func (c *Clock) String() string {
	d := c.Elapsed().Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	out := fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	if !c.running {
		out += " (paused)"
	}
	return out
}
