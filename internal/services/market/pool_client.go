package market

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// PoolClient owns the engine of one pool and the timestamp of its last good refresh.
type PoolClient struct {
	key    solana.PublicKey
	ledger Ledger
	now    func() time.Time

	mu            sync.RWMutex
	engine        Engine
	lastRefreshed time.Time

	// refreshMu admits one remote fetch at a time; generation counts applied refreshes.
	refreshMu  sync.Mutex
	generation atomic.Uint64

	lastAccess atomic.Int64
}

func NewPoolClient(key solana.PublicKey, engine Engine, ledger Ledger) *PoolClient {
	c := &PoolClient{
		key:    key,
		ledger: ledger,
		engine: engine,
		now:    time.Now,
	}
	c.touch()
	return c
}

func (c *PoolClient) Key() solana.PublicKey {
	return c.key
}

// Read runs fn with shared access to the engine. fn must not keep the engine after it returns.
func (c *PoolClient) Read(fn func(Engine) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.engine)
}

func (c *PoolClient) PoolState() domain.PoolState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.engine.PoolState()
}

func (c *PoolClient) LastRefreshed() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefreshed
}

// IsStale reports whether the client needs a refresh under ttl. A client that was
// never refreshed is always stale; ttl 0 is always stale; a negative ttl never expires.
func (c *PoolClient) IsStale(ttl time.Duration) bool {
	last := c.LastRefreshed()
	switch {
	case last.IsZero():
		return true
	case ttl < 0:
		return false
	case ttl == 0:
		return true
	}
	return c.now().Sub(last) > ttl
}

// Refresh fetches the accounts the engine asks for and applies them in one step.
// Callers that queued behind a refresh which succeeded while they waited return
// without fetching again. On any error the engine and timestamp are unchanged.
func (c *PoolClient) Refresh(ctx context.Context) error {
	seen := c.generation.Load()

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if c.generation.Load() != seen {
		return nil
	}

	c.mu.RLock()
	keys := c.engine.AccountsToUpdate()
	c.mu.RUnlock()

	accounts, err := c.ledger.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return fmt.Errorf("refresh %s: %w", c.key, err)
	}
	if len(accounts) != len(keys) {
		return fmt.Errorf("refresh %s: ledger returned %d accounts for %d keys", c.key, len(accounts), len(keys))
	}
	batch := make(domain.AccountMap, len(keys))
	for i, k := range keys {
		if accounts[i] != nil {
			batch[k] = accounts[i]
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.engine.Update(batch); err != nil {
		return fmt.Errorf("refresh %s: %w", c.key, err)
	}
	c.lastRefreshed = c.now()
	c.generation.Add(1)
	return nil
}

func (c *PoolClient) touch() {
	c.lastAccess.Store(time.Now().UnixNano())
}

func (c *PoolClient) lastAccessed() int64 {
	return c.lastAccess.Load()
}
