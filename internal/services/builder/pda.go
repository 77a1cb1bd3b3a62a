package builder

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// HookBinArrays derives the hook's bin arrays at the active bin-array index and the next one.
func HookBinArrays(hookProgram, hook solana.PublicKey, index uint32) (lower, upper solana.PublicKey, err error) {
	lower, err = dlmm.DeriveBinArray(hookProgram, hook, index)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("hook bin array %d: %w", index, err)
	}
	upper, err = dlmm.DeriveBinArray(hookProgram, hook, index+1)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("hook bin array %d: %w", index+1, err)
	}
	return lower, upper, nil
}

// UserTokenAccounts derives the user's associated token accounts for both pool mints,
// each under the token program that owns the mint.
func UserTokenAccounts(user solana.PublicKey, pool domain.PoolState) (x, y solana.PublicKey, err error) {
	x, err = common.GetATAAddressForMint(user, pool.MintX, pool.TokenProgramX)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("user token account x: %w", err)
	}
	y, err = common.GetATAAddressForMint(user, pool.MintY, pool.TokenProgramY)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("user token account y: %w", err)
	}
	return x, y, nil
}
