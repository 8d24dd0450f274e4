// Package sweep runs periodic eviction jobs on a background goroutine.
package sweep

import (
	"context"
	"sync"
	"time"
)

// Func evicts expired state and reports how many records it removed.
type Func func(ctx context.Context) (int, error)

// Sweeper calls a [Func] on every tick until stopped.
type Sweeper struct {
	interval  time.Duration
	fn        Func
	onResult  func(removed int, err error)
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Start launches a sweeper. onResult, when non-nil, observes every run.
// A non-positive interval returns nil, which is safe to Stop.
func Start(interval time.Duration, fn Func, onResult func(removed int, err error)) *Sweeper {
	if interval <= 0 || fn == nil {
		return nil
	}
	s := &Sweeper{
		interval: interval,
		fn:       fn,
		onResult: onResult,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ticker.C:
			removed, err := s.fn(ctx)
			if s.onResult != nil {
				s.onResult(removed, err)
			}
		case <-s.done:
			return
		}
	}
}

// Stop cancels an in-flight run, halts the ticker and waits for the
// goroutine to exit. It is idempotent.
func (s *Sweeper) Stop() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
}
