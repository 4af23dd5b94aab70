package notification

import (
	"sync"
	"time"
)

type Severity string

const (
	SeveritySuccess Severity = "SUCCESS"
	SeverityError   Severity = "ERROR"
)

// Notification is the transient status message shown to the user.
type Notification struct {
	Visible  bool     `json:"visible"`
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// Channel holds at most one notification. A new one replaces the current one and
// restarts the auto-dismiss timer.
type Channel struct {
	mu      sync.Mutex
	current Notification
	timeout time.Duration
	gen     uint64
	timer   *time.Timer
}

// NewChannel creates a channel that hides notifications after timeout. A zero
// timeout keeps them until Close.
func NewChannel(timeout time.Duration) *Channel {
	return &Channel{timeout: timeout, current: hidden()}
}

func hidden() Notification {
	return Notification{Severity: SeveritySuccess}
}

func (c *Channel) Show(text string, severity Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimer()
	c.gen++
	c.current = Notification{Visible: true, Text: text, Severity: severity}
	if c.timeout > 0 {
		gen := c.gen
		c.timer = time.AfterFunc(c.timeout, func() { c.expire(gen) })
	}
}

func (c *Channel) Success(text string) { c.Show(text, SeveritySuccess) }

func (c *Channel) Error(text string) { c.Show(text, SeverityError) }

// Close dismisses the current notification explicitly.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.gen++
	c.current = hidden()
}

func (c *Channel) Current() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Stop releases the pending timer, if any.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
}

func (c *Channel) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}
	c.timer = nil
	c.current = hidden()
}

func (c *Channel) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
