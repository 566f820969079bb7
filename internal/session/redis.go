package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// RedisCell backs the auth-status cell with Redis so sessions survive
// process restarts. State-change notifications are local to the
// writing process, which is sufficient because all auth events are
// serialized through this service.
type RedisCell struct {
	client *redis.Client
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]func(Event)
	nextID    int
}

// NewRedisCell wraps a connected Redis client.
func NewRedisCell(client *redis.Client) *RedisCell {
	return &RedisCell{
		client:    client,
		now:       time.Now,
		listeners: make(map[int]func(Event)),
	}
}

// Status resolves a token. Timeouts resolve to StatusUnknown so the
// guard can deny without redirecting; any other transport failure is
// returned and the guard fails closed.
func (c *RedisCell) Status(ctx context.Context, token string) (Status, *Session, error) {
	if token == "" {
		return StatusAnonymous, nil, nil
	}

	raw, err := c.client.Get(ctx, keyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StatusAnonymous, nil, nil
		}
		if isTimeout(err) {
			return StatusUnknown, nil, nil
		}
		return StatusUnknown, nil, fmt.Errorf("session lookup: %w", err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return StatusUnknown, nil, fmt.Errorf("decode session: %w", err)
	}
	if c.now().After(s.ExpiresAt) {
		return StatusAnonymous, nil, nil
	}
	return StatusAuthenticated, &s, nil
}

// Activate stores the session with a TTL matching its expiry.
func (c *RedisCell) Activate(ctx context.Context, s Session) error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	if err := c.client.Set(ctx, keyPrefix+s.Token, encoded, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	c.notify(Event{Kind: EventActivated, Subject: s.Subject})
	return nil
}

// Clear removes the session behind a token.
func (c *RedisCell) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	removed, err := c.client.Del(ctx, keyPrefix+token).Result()
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if removed > 0 {
		c.notify(Event{Kind: EventCleared})
	}
	return nil
}

// Subscribe registers a session-state listener.
func (c *RedisCell) Subscribe(fn func(Event)) func() {
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

func (c *RedisCell) notify(ev Event) {
	c.mu.Lock()
	listeners := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
