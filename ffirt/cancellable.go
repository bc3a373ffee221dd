package ffirt

import "sync"

// Cancellable is a cancellation token shared between a C caller and the
// operations it starts. All methods are safe on a nil receiver, which stands
// for "no token supplied".
type Cancellable struct {
	Object

	handlers  map[uint64]func()
	next      uint64
	cancelled bool
	mu        sync.Mutex
}

func NewCancellable() *Cancellable {
	return &Cancellable{handlers: make(map[uint64]func())}
}

// Connect registers fn to run when the token is cancelled. If the token is
// already cancelled fn runs immediately and 0 is returned.
func (c *Cancellable) Connect(fn func()) uint64 {
	if c == nil {
		return 0
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		fn()
		return 0
	}
	c.next++
	c.handlers[c.next] = fn
	id := c.next
	c.mu.Unlock()

	return id
}

func (c *Cancellable) Disconnect(id uint64) {
	if c == nil || id == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, id)
}

// Cancel marks the token cancelled and runs every connected handler once.
// Cancelling twice is a no-op.
func (c *Cancellable) Cancel() {
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	pending := c.handlers
	c.handlers = make(map[uint64]func())
	c.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (c *Cancellable) IsCancelled() bool {
	if c == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}
