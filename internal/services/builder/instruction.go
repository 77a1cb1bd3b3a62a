package builder

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

var (
	ErrInvalidUser = errors.New("invalid user wallet address")
	ErrBuildFailed = errors.New("failed to build swap instruction")
)

const (
	// SwapAccountCount is the fixed account list length of a swap instruction.
	SwapAccountCount = 17
	// HookAccountCount is appended when the pool has a real hook.
	HookAccountCount = 2
)

// SwapSource is the read view of a pool the assembler needs.
type SwapSource interface {
	PoolState() domain.PoolState
	ComputeSwapBinArrays() (*domain.SwapBinArrays, error)
}

// Assembler builds swap instructions in the account order the program expects.
type Assembler struct {
	hookProgram solana.PublicKey
}

func NewAssembler(hookProgram solana.PublicKey) *Assembler {
	return &Assembler{hookProgram: hookProgram}
}

// BuildSwap assembles a swap instruction for user against the pool's current state.
// It fails when the bin arrays around the active bin cannot be computed.
func (a *Assembler) BuildSwap(src SwapSource, params domain.SwapParams, user solana.PublicKey) (*solana.GenericInstruction, error) {
	if user.IsZero() {
		return nil, ErrInvalidUser
	}
	pool := src.PoolState()

	binArrays, err := src.ComputeSwapBinArrays()
	if err != nil {
		return nil, err
	}
	userX, userY, err := UserTokenAccounts(user, pool)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}
	data, err := dlmm.EncodeSwapData(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	accounts := make(solana.AccountMetaSlice, 0, SwapAccountCount+HookAccountCount)
	accounts = append(accounts,
		solana.Meta(pool.Address).WRITE(),
		solana.Meta(pool.MintX),
		solana.Meta(pool.MintY),
		solana.Meta(binArrays.Lower).WRITE(),
		solana.Meta(binArrays.Upper).WRITE(),
		solana.Meta(pool.VaultX).WRITE(),
		solana.Meta(pool.VaultY).WRITE(),
		solana.Meta(userX).WRITE(),
		solana.Meta(userY).WRITE(),
		solana.Meta(user).SIGNER(),
		solana.Meta(pool.TokenProgramX),
		solana.Meta(pool.TokenProgramY),
		solana.Meta(common.MemoProgramID),
		// a pool without a hook passes itself
		solana.Meta(pool.Hook).WRITE(),
		solana.Meta(a.hookProgram),
		// event authority and program must close the fixed list
		solana.Meta(pool.EventAuthority),
		solana.Meta(pool.ProgramID),
	)

	if pool.HasHook() {
		lower, upper, err := HookBinArrays(a.hookProgram, pool.Hook, binArrays.Index)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBuildFailed, err)
		}
		accounts = append(accounts, solana.Meta(lower).WRITE(), solana.Meta(upper).WRITE())
	}

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}

// ViewOf renders an instruction for JSON responses with base64 data.
func ViewOf(ix solana.Instruction) (*domain.InstructionView, error) {
	data, err := ix.Data()
	if err != nil {
		return nil, err
	}
	metas := ix.Accounts()
	view := &domain.InstructionView{
		ProgramID: ix.ProgramID().String(),
		Accounts:  make([]domain.AccountMetaView, len(metas)),
		Data:      base64.StdEncoding.EncodeToString(data),
	}
	for i, m := range metas {
		view.Accounts[i] = domain.AccountMetaView{
			Pubkey:     m.PublicKey.String(),
			IsSigner:   m.IsSigner,
			IsWritable: m.IsWritable,
		}
	}
	return view, nil
}
