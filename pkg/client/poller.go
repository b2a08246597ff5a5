package client

import (
	"context"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshInterval is how often a Poller refetches when no interval
// is given.
const DefaultRefreshInterval = 300000 * time.Millisecond

// inflight holds the running fetch for every cache key in the process.
// Pollers built with the same key and result type join one request.
var inflight singleflight.Group

// Fetcher produces one envelope. Bind one to its arguments before handing it
// to a Poller.
type Fetcher[T any] func(ctx context.Context) (Envelope[T], error)

// Bind fixes fn's argument. A nil arg yields a nil Fetcher, which a Poller
// treats as disabled.
func Bind[A, T any](fn func(context.Context, A) (Envelope[T], error), arg *A) Fetcher[T] {
	if arg == nil {
		return nil
	}
	a := *arg
	return func(ctx context.Context) (Envelope[T], error) {
		return fn(ctx, a)
	}
}

// State is a snapshot of a Poller. Data keeps the last successful result
// when a later fetch fails.
type State[T any] struct {
	Data   T
	Loaded bool
	// IsLoading is true while the first fetch is running.
	IsLoading bool
	// IsValidating is true while any fetch is running.
	IsValidating bool
	Err          error
}

type PollerOptions[T any] struct {
	// Interval between refetches. Zero means DefaultRefreshInterval; negative
	// disables interval polling.
	Interval          time.Duration
	RevalidateOnFocus bool
	// OnUpdate is called after every state change, outside the lock.
	OnUpdate func(State[T])
}

// Poller keeps the result of a Fetcher fresh.
type Poller[T any] struct {
	key               string
	fetch             Fetcher[T]
	interval          time.Duration
	revalidateOnFocus bool
	onUpdate          func(State[T])

	group singleflight.Group
	focus chan struct{}

	mu    sync.Mutex
	state State[T]
}

func NewPoller[T any](key string, fetch Fetcher[T], opts PollerOptions[T]) *Poller[T] {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultRefreshInterval
	}
	return &Poller[T]{
		key:               key,
		fetch:             fetch,
		interval:          interval,
		revalidateOnFocus: opts.RevalidateOnFocus,
		onUpdate:          opts.OnUpdate,
		focus:             make(chan struct{}, 1),
	}
}

func (p *Poller[T]) Key() string { return p.key }

// Disabled reports whether the poller was built without a fetcher.
func (p *Poller[T]) Disabled() bool { return p.fetch == nil }

func (p *Poller[T]) State() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Revalidate fetches now. Calls made while a fetch for the same key is
// running, from this poller or another one with the same key, join it
// instead of starting another. The fetch is detached from ctx: ctx only
// bounds how long this caller waits, and the result still lands in State.
func (p *Poller[T]) Revalidate(ctx context.Context) error {
	if p.fetch == nil {
		return nil
	}

	ch := p.group.DoChan(p.key, func() (any, error) {
		p.update(func(s *State[T]) {
			s.IsValidating = true
			s.IsLoading = !s.Loaded
		})

		res := <-inflight.DoChan(p.sharedKey(), func() (any, error) {
			return p.fetch(context.WithoutCancel(ctx))
		})
		env, _ := res.Val.(Envelope[T])
		err := res.Err

		p.update(func(s *State[T]) {
			s.IsValidating = false
			s.IsLoading = false
			if err != nil {
				s.Err = err
				return
			}
			s.Data = env.Results
			s.Loaded = true
			s.Err = nil
		})
		return nil, err
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (p *Poller[T]) sharedKey() string {
	return p.key + "\x00" + reflect.TypeFor[T]().String()
}

// Focus signals that the consumer regained focus. It triggers a refetch
// when RevalidateOnFocus is set and Run is active.
func (p *Poller[T]) Focus() {
	if !p.revalidateOnFocus || p.fetch == nil {
		return
	}
	select {
	case p.focus <- struct{}{}:
	default:
	}
}

// Run fetches immediately and then on every interval tick and focus signal
// until ctx ends. Fetch errors are recorded in State, not returned.
func (p *Poller[T]) Run(ctx context.Context) error {
	if p.fetch == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	_ = p.Revalidate(ctx)

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
			_ = p.Revalidate(ctx)
		case <-p.focus:
			_ = p.Revalidate(ctx)
		}
	}
}

func (p *Poller[T]) update(fn func(*State[T])) {
	p.mu.Lock()
	fn(&p.state)
	snapshot := p.state
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}
}
