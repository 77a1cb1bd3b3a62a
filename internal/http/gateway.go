package http

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// Gateway is the request surface the handlers call into.
type Gateway interface {
	NetworkStatus(ctx context.Context) domain.NetworkStatus
	Pair(ctx context.Context, key solana.PublicKey) (*domain.PairInfo, error)
	Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error)
	Instruction(ctx context.Context, req domain.InstructionRequest) (*domain.InstructionResult, error)
	SimulateSwap(ctx context.Context, req domain.SwapRequest) (*domain.SimulationResult, error)
}
