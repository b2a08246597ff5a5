package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoller_RevalidateStoresResults(t *testing.T) {
	p := NewPoller("log/stores", func(ctx context.Context) (Envelope[[]int], error) {
		return Envelope[[]int]{Message: "ok", Results: []int{3, 2, 1}}, nil
	}, PollerOptions[[]int]{})

	if s := p.State(); s.Loaded || s.IsLoading {
		t.Fatalf("initial state = %+v", s)
	}
	if err := p.Revalidate(context.Background()); err != nil {
		t.Fatalf("Revalidate: %v", err)
	}
	s := p.State()
	if !s.Loaded || len(s.Data) != 3 || s.Data[0] != 3 || s.Err != nil || s.IsValidating {
		t.Fatalf("state = %+v", s)
	}
}

func TestPoller_ConcurrentRevalidateSharesOneFetch(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	p := NewPoller("log/list", func(ctx context.Context) (Envelope[int], error) {
		calls.Add(1)
		<-release
		return Envelope[int]{Results: 42}, nil
	}, PollerOptions[int]{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Revalidate(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	if s := p.State(); !s.IsValidating || !s.IsLoading {
		t.Errorf("in-flight state = %+v", s)
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d; want 1", got)
	}
	if s := p.State(); s.Data != 42 || s.IsValidating {
		t.Fatalf("state = %+v", s)
	}
}

func TestPoller_SameKeySharesOneFetchAcrossPollers(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(ctx context.Context) (Envelope[string], error) {
		calls.Add(1)
		<-release
		return Envelope[string]{Results: "shared"}, nil
	}
	dashboard := NewPoller("logs/shared", fetch, PollerOptions[string]{})
	sidebar := NewPoller("logs/shared", fetch, PollerOptions[string]{})

	errs := make(chan error, 2)
	go func() { errs <- dashboard.Revalidate(context.Background()) }()
	go func() { errs <- sidebar.Revalidate(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Revalidate: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch calls for one key = %d; want 1", got)
	}
	for name, p := range map[string]*Poller[string]{"dashboard": dashboard, "sidebar": sidebar} {
		if s := p.State(); s.Data != "shared" || !s.Loaded {
			t.Errorf("%s state = %+v", name, s)
		}
	}
}

func TestPoller_CancelledCallerDoesNotFailJoiners(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	p := NewPoller("logs/cancel", func(ctx context.Context) (Envelope[int], error) {
		close(started)
		select {
		case <-release:
			return Envelope[int]{Results: 7}, nil
		case <-ctx.Done():
			return Envelope[int]{}, ctx.Err()
		}
	}, PollerOptions[int]{})

	impatient, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() { first <- p.Revalidate(impatient) }()
	<-started

	second := make(chan error, 1)
	go func() { second <- p.Revalidate(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v; want context.Canceled", err)
	}

	close(release)
	if err := <-second; err != nil {
		t.Fatalf("joined caller err = %v; want nil", err)
	}
	if s := p.State(); s.Err != nil || s.Data != 7 || s.IsValidating {
		t.Fatalf("state = %+v", s)
	}
}

func TestPoller_ErrorKeepsLastData(t *testing.T) {
	fail := false
	fetchErr := &TransportError{Message: MsgUnableToConnect}
	p := NewPoller("log/errors", func(ctx context.Context) (Envelope[string], error) {
		if fail {
			return Envelope[string]{}, fetchErr
		}
		return Envelope[string]{Results: "fresh"}, nil
	}, PollerOptions[string]{})

	_ = p.Revalidate(context.Background())
	fail = true
	if err := p.Revalidate(context.Background()); !errors.Is(err, fetchErr) {
		t.Fatalf("Revalidate err = %v", err)
	}

	s := p.State()
	if s.Data != "fresh" || !s.Loaded {
		t.Errorf("data lost after error: %+v", s)
	}
	if !errors.Is(s.Err, fetchErr) {
		t.Errorf("Err = %v", s.Err)
	}
	if s.IsLoading {
		t.Error("IsLoading true after fetch finished")
	}
}

func TestPoller_DisabledNeverFetches(t *testing.T) {
	type query struct{ tank string }
	var calls atomic.Int64
	fetch := Bind(func(ctx context.Context, q query) (Envelope[int], error) {
		calls.Add(1)
		return Envelope[int]{}, nil
	}, (*query)(nil))
	if fetch != nil {
		t.Fatal("Bind(fn, nil) returned a fetcher")
	}

	p := NewPoller("log/disabled", fetch, PollerOptions[int]{Interval: time.Millisecond, RevalidateOnFocus: true})
	if !p.Disabled() {
		t.Fatal("Disabled() = false")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Focus()
	if err := p.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run err = %v", err)
	}
	if err := p.Revalidate(context.Background()); err != nil {
		t.Fatalf("Revalidate err = %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("disabled poller fetched %d times", calls.Load())
	}
	if s := p.State(); s.IsLoading || s.Loaded {
		t.Errorf("state = %+v", s)
	}
}

func TestBind_PassesArgument(t *testing.T) {
	arg := "tank-1"
	fetch := Bind(func(ctx context.Context, s string) (Envelope[string], error) {
		return Envelope[string]{Results: s}, nil
	}, &arg)
	arg = "changed"

	env, err := fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if env.Results != "tank-1" {
		t.Errorf("results = %q; want the value bound at Bind time", env.Results)
	}
}

func TestPoller_RunPollsOnIntervalAndFocus(t *testing.T) {
	var calls atomic.Int64
	updates := make(chan State[int64], 16)
	p := NewPoller("log/run", func(ctx context.Context) (Envelope[int64], error) {
		return Envelope[int64]{Results: calls.Add(1)}, nil
	}, PollerOptions[int64]{
		Interval:          -1,
		RevalidateOnFocus: true,
		OnUpdate: func(s State[int64]) {
			if !s.IsValidating {
				updates <- s
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	waitFor := func(want int64) {
		t.Helper()
		select {
		case s := <-updates:
			if s.Data != want {
				t.Fatalf("Data = %d; want %d", s.Data, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("no update for fetch %d", want)
		}
	}

	waitFor(1) // initial fetch
	p.Focus()
	waitFor(2)

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v", err)
	}
}

func TestPoller_IntervalTicks(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller("log/ticks", func(ctx context.Context) (Envelope[int], error) {
		calls.Add(1)
		return Envelope[int]{}, nil
	}, PollerOptions[int]{Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = p.Run(ctx)

	if got := calls.Load(); got < 3 {
		t.Fatalf("fetch calls = %d; want several", got)
	}
}

func TestPoller_FocusIgnoredWhenNotEnabled(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller("log/nofocus", func(ctx context.Context) (Envelope[int], error) {
		calls.Add(1)
		return Envelope[int]{}, nil
	}, PollerOptions[int]{Interval: -1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Focus()
	}()
	_ = p.Run(ctx)

	if got := calls.Load(); got != 1 {
		t.Fatalf("fetch calls = %d; want only the initial fetch", got)
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller[int]("k", nil, PollerOptions[int]{})
	if p.interval != DefaultRefreshInterval || DefaultRefreshInterval != 5*time.Minute {
		t.Fatalf("interval = %v", p.interval)
	}
	if p.Key() != "k" {
		t.Errorf("Key() = %q", p.Key())
	}
}
