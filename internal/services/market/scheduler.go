package market

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

type RefreshFunc func(ctx context.Context, c *PoolClient) error

// Scheduler refreshes every scheduled client once per interval until it is
// unscheduled or the scheduler stops. Failures are logged and the loop continues.
type Scheduler struct {
	interval time.Duration
	refresh  RefreshFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu    sync.Mutex
	loops map[solana.PublicKey]*refreshLoop
}

type refreshLoop struct {
	client *PoolClient
	cancel context.CancelFunc
}

func NewScheduler(interval time.Duration, refresh RefreshFunc) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval: interval,
		refresh:  refresh,
		ctx:      ctx,
		cancel:   cancel,
		loops:    make(map[solana.PublicKey]*refreshLoop),
	}
}

// Enabled is false for a zero or negative interval.
func (s *Scheduler) Enabled() bool {
	return s.interval > 0
}

// Schedule starts the refresh loop of c. A loop left over from an earlier client
// of the same pool is replaced.
func (s *Scheduler) Schedule(c *PoolClient) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if loop, ok := s.loops[c.Key()]; ok {
		if loop.client == c {
			return
		}
		loop.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.loops[c.Key()] = &refreshLoop{client: c, cancel: cancel}
	s.wg.Go(func() {
		s.run(ctx, c)
	})
}

// Unschedule stops the loop of c. It leaves alone a loop that belongs to a newer
// client of the same pool.
func (s *Scheduler) Unschedule(c *PoolClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loop, ok := s.loops[c.Key()]; ok && loop.client == c {
		loop.cancel()
		delete(s.loops, c.Key())
	}
}

func (s *Scheduler) scheduledClient(key solana.PublicKey) *PoolClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loop, ok := s.loops[key]; ok {
		return loop.client
	}
	return nil
}

func (s *Scheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.loops)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.loops = make(map[solana.PublicKey]*refreshLoop)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, c *PoolClient) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx, c); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("pair", c.Key().String()).Msg("[Scheduler] scheduled refresh failed")
			}
		}
	}
}
