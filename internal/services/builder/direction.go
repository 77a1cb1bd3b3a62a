package builder

import (
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// ModeFor maps the trade direction and whether the source is mint X to a swap mode.
//
//	swapForY  sourceIsX  mode
//	true      true       ExactIn
//	true      false      ExactOut
//	false     true       ExactOut
//	false     false      ExactIn
func ModeFor(swapForY, sourceIsX bool) domain.SwapMode {
	if swapForY == sourceIsX {
		return domain.ExactIn
	}
	return domain.ExactOut
}

// ResolveMode classifies a trade of source against the pool's canonical mint X.
// Quotes and instructions both go through here so they always agree.
func ResolveMode(source, mintX solana.PublicKey) (swapForY bool, mode domain.SwapMode) {
	swapForY = dlmm.IsSwapForY(source, mintX)
	return swapForY, ModeFor(swapForY, source == mintX)
}
