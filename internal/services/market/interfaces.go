package market

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// Ledger is the remote account source. GetMultipleAccounts returns one slot per key,
// nil where the account does not exist.
type Ledger interface {
	GetAccount(ctx context.Context, key solana.PublicKey) (*domain.Account, error)
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.Account, error)
}

// Engine is the pricing engine of one pool. Implementations hold local account
// state and are driven by their PoolClient, which serializes Update against reads.
type Engine interface {
	Key() solana.PublicKey
	AccountsToUpdate() []solana.PublicKey
	Update(accounts domain.AccountMap) error
	Quote(params domain.QuoteParams) (*domain.Quote, error)
	PoolState() domain.PoolState
	ComputeSwapBinArrays() (*domain.SwapBinArrays, error)
}

// EngineFactory performs the creation fetch of a pool and returns its engine.
type EngineFactory func(ctx context.Context, key solana.PublicKey) (Engine, error)
