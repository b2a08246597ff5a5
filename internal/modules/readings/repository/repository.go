package repository

import (
	"context"
	"sync"
	"time"

	"aquadash/internal/modules/readings/types"
)

// ReadingRepository persists readings. Implementations are append-only.
type ReadingRepository interface {
	Create(ctx context.Context, in types.NewReading) (types.Reading, error)
	// ListRecent returns up to limit readings, newest first. No rows is an
	// empty slice, never an error.
	ListRecent(ctx context.Context, limit int) ([]types.Reading, error)
	Ping(ctx context.Context) error
	Close() error
}

type Option func(*clock)

// WithClock overrides time.Now for stamping createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *clock) { c.now = now }
}

// clock hands out non-decreasing UTC timestamps so createdAt follows
// insertion order even if the wall clock steps backwards.
type clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newClock(opts []Option) *clock {
	c := &clock{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// seed raises the floor to t, used with the newest stored timestamp at startup.
func (c *clock) seed(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.After(c.last) {
		c.last = t
	}
}

func (c *clock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC()
	if t.Before(c.last) {
		t = c.last
	}
	c.last = t
	return t
}
