package db

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DialFunc establishes a new handle. It is called at most once at a time.
type DialFunc[T any] func(ctx context.Context) (T, error)

// Connector lazily establishes a single handle and hands it out for the rest
// of the process lifetime. Concurrent first callers share one dial; a failed
// dial is forgotten so the next Acquire retries.
type Connector[T any] struct {
	dial    DialFunc[T]
	closeFn func(T) error

	group singleflight.Group

	mu     sync.Mutex
	handle T
	ready  bool
	closed bool
}

var ErrConnectorClosed = errors.New("connector closed")

// NewConnector returns a connector that dials with dial. closeFn, if non-nil,
// releases the handle on Close.
func NewConnector[T any](dial DialFunc[T], closeFn func(T) error) *Connector[T] {
	return &Connector[T]{dial: dial, closeFn: closeFn}
}

// Acquire returns the cached handle or joins the in-flight dial. The dial
// itself is detached from ctx cancellation so one impatient caller cannot
// fail the attempt for everyone else; ctx only bounds how long this caller waits.
func (c *Connector[T]) Acquire(ctx context.Context) (T, error) {
	if h, ok, err := c.cached(); ok || err != nil {
		return h, err
	}

	ch := c.group.DoChan("dial", func() (any, error) {
		if h, ok, err := c.cached(); ok || err != nil {
			return h, err
		}
		h, err := c.dial(context.WithoutCancel(ctx))
		if err != nil {
			return h, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			if c.closeFn != nil {
				_ = c.closeFn(h)
			}
			var zero T
			return zero, ErrConnectorClosed
		}
		c.handle = h
		c.ready = true
		return h, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Close releases the cached handle, if any. Later Acquire calls fail.
func (c *Connector[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if !c.ready {
		return nil
	}
	c.ready = false
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn(c.handle)
}

func (c *Connector[T]) cached() (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		var zero T
		return zero, false, ErrConnectorClosed
	}
	return c.handle, c.ready, nil
}
