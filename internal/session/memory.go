package session

import (
	"context"
	"sync"
	"time"
)

// MemoryCell is an in-process cell for development and tests.
type MemoryCell struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	listeners map[int]func(Event)
	nextID    int
	now       func() time.Time
}

// NewMemoryCell builds an empty cell. The clock is injectable for
// expiry tests; nil means time.Now.
func NewMemoryCell(now func() time.Time) *MemoryCell {
	if now == nil {
		now = time.Now
	}
	return &MemoryCell{
		sessions:  make(map[string]Session),
		listeners: make(map[int]func(Event)),
		now:       now,
	}
}

// Status resolves a token against the in-memory table.
func (c *MemoryCell) Status(ctx context.Context, token string) (Status, *Session, error) {
	if err := ctx.Err(); err != nil {
		return StatusUnknown, nil, nil
	}
	if token == "" {
		return StatusAnonymous, nil, nil
	}

	c.mu.RLock()
	s, ok := c.sessions[token]
	c.mu.RUnlock()

	if !ok || c.now().After(s.ExpiresAt) {
		return StatusAnonymous, nil, nil
	}
	return StatusAuthenticated, &s, nil
}

// Activate records an authenticated session.
func (c *MemoryCell) Activate(ctx context.Context, s Session) error {
	c.mu.Lock()
	c.sessions[s.Token] = s
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	notify(listeners, Event{Kind: EventActivated, Subject: s.Subject})
	return nil
}

// Clear removes the session behind a token. Clearing an unknown token
// is a no-op so the guard's defensive reset is always safe.
func (c *MemoryCell) Clear(ctx context.Context, token string) error {
	c.mu.Lock()
	s, ok := c.sessions[token]
	delete(c.sessions, token)
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	if ok {
		notify(listeners, Event{Kind: EventCleared, Subject: s.Subject})
	}
	return nil
}

// Subscribe registers a session-state listener.
func (c *MemoryCell) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *MemoryCell) snapshotListeners() []func(Event) {
	out := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
