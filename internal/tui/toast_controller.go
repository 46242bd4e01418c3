package tui

import (
	"sync"
	"time"

	"github.com/colonyops/harvest/internal/core/notify"
)

const (
	defaultToastTTL   = 5 * time.Second
	defaultMaxToasts  = 5
	toastTickInterval = 100 * time.Millisecond
	toastWidth        = 50

	// errorTTLFactor stretches error toasts so their hint can be read.
	errorTTLFactor = 2
)

type toast struct {
	notification notify.Notification
	remaining    time.Duration
	repeats      int // identical notifications folded into this toast
}

// ToastController owns the stack of visible notifications. Push is called by
// the notification bus from any goroutine; the tick loop runs in Update.
//
// A notification equal to the newest toast (same level and message) is folded
// into it: the repeat count grows and its lifetime restarts. A page load that
// keeps failing on every refresh therefore shows one toast, not five.
type ToastController struct {
	ttl time.Duration

	mu      sync.Mutex
	stack   []toast
	ticking bool
}

// NewToastController creates a controller whose toasts live for ttl (errors
// twice as long). A zero ttl uses defaultToastTTL.
func NewToastController(ttl time.Duration) *ToastController {
	if ttl <= 0 {
		ttl = defaultToastTTL
	}
	return &ToastController{ttl: ttl}
}

func (c *ToastController) lifetime(level notify.Level) time.Duration {
	if level == notify.LevelError {
		return c.ttl * errorTTLFactor
	}
	return c.ttl
}

// Push shows n, folding it into the newest toast when they match. Past
// defaultMaxToasts the oldest toasts are dropped.
func (c *ToastController) Push(n notify.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last := len(c.stack) - 1; last >= 0 {
		top := &c.stack[last]
		if top.notification.Level == n.Level && top.notification.Message == n.Message {
			top.repeats++
			top.notification = n
			top.remaining = c.lifetime(n.Level)
			return
		}
	}

	c.stack = append(c.stack, toast{notification: n, remaining: c.lifetime(n.Level)})
	if over := len(c.stack) - defaultMaxToasts; over > 0 {
		c.stack = c.stack[over:]
	}
}

// Tick ages every toast by d and drops the expired ones.
func (c *ToastController) Tick(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.stack[:0]
	for _, t := range c.stack {
		if t.remaining -= d; t.remaining > 0 {
			kept = append(kept, t)
		}
	}
	c.stack = kept
}

// Dismiss drops the newest toast.
func (c *ToastController) Dismiss() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return false
	}
	c.stack = c.stack[:len(c.stack)-1]
	return true
}

// DismissAll clears the stack.
func (c *ToastController) DismissAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = nil
}

func (c *ToastController) HasToasts() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack) > 0
}

// Toasts returns a copy of the stack, oldest first.
func (c *ToastController) Toasts() []toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]toast, len(c.stack))
	copy(out, c.stack)
	return out
}

// Ticking reports whether a tick chain is running.
func (c *ToastController) Ticking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticking
}

func (c *ToastController) SetTicking(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticking = v
}
