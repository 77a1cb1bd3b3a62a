package dlmmtest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// Ledger is an in-memory ledger that counts remote calls.
type Ledger struct {
	mu       sync.RWMutex
	accounts domain.AccountMap
	failures int
	err      error

	// Delay is applied to every account fetch and honors context cancellation.
	Delay time.Duration

	GetAccountCalls  atomic.Int64
	GetMultipleCalls atomic.Int64
	SimulateCalls    atomic.Int64

	SimulateResponse []byte
	SimulateErr      error
	LastTransaction  string
	HealthErr        error
}

func NewLedger(accounts domain.AccountMap) *Ledger {
	l := &Ledger{accounts: make(domain.AccountMap)}
	l.Put(accounts)
	return l
}

func (l *Ledger) Put(accounts domain.AccountMap) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, v := range accounts {
		l.accounts[k] = v
	}
}

func (l *Ledger) Delete(key solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, key)
}

// FailNext makes the next n account fetches return err.
func (l *Ledger) FailNext(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures = n
	l.err = err
}

func (l *Ledger) wait(ctx context.Context) error {
	if l.Delay > 0 {
		select {
		case <-time.After(l.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failures > 0 {
		l.failures--
		return l.err
	}
	return nil
}

func (l *Ledger) GetAccount(ctx context.Context, key solana.PublicKey) (*domain.Account, error) {
	l.GetAccountCalls.Add(1)
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[key]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return acc, nil
}

func (l *Ledger) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.Account, error) {
	l.GetMultipleCalls.Add(1)
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*domain.Account, len(keys))
	for i, k := range keys {
		out[i] = l.accounts[k]
	}
	return out, nil
}

func (l *Ledger) SimulateTransaction(ctx context.Context, txBase64 string) ([]byte, error) {
	l.SimulateCalls.Add(1)
	l.mu.Lock()
	l.LastTransaction = txBase64
	l.mu.Unlock()
	if l.SimulateErr != nil {
		return nil, l.SimulateErr
	}
	return l.SimulateResponse, nil
}

func (l *Ledger) GetHealth(ctx context.Context) error {
	return l.HealthErr
}
