package dlmm

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

var (
	ErrBinArraysUnavailable  = errors.New("active bin array not loaded")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in loaded bins")
	ErrMintMismatch          = errors.New("mint pair does not match pool")
	ErrInvalidMint           = errors.New("invalid mint account")
)

// AccountFetcher is the subset of the ledger the engine needs to bootstrap itself.
type AccountFetcher interface {
	GetAccount(ctx context.Context, key solana.PublicKey) (*domain.Account, error)
	GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.Account, error)
}

type mintInfo struct {
	tokenProgram solana.PublicKey
	decimals     uint8
}

// Engine prices swaps against a liquidity-book pair from its locally held account state.
// It is not safe for concurrent use; callers serialize Update against reads.
type Engine struct {
	key            solana.PublicKey
	programID      solana.PublicKey
	pair           *Pair
	mintX          mintInfo
	mintY          mintInfo
	vaultX         solana.PublicKey
	vaultY         solana.PublicKey
	eventAuthority solana.PublicKey
	binArrays      map[uint32]*BinArray
}

// Load fetches the pair account and both mint accounts and builds an engine from them.
// Bin arrays are not loaded until the first Update.
func Load(ctx context.Context, fetcher AccountFetcher, programID, key solana.PublicKey) (*Engine, error) {
	acc, err := fetcher.GetAccount(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch pair %s: %w", key, err)
	}
	if acc.Owner != programID {
		return nil, fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccount, key, acc.Owner)
	}
	pair, err := DecodePair(acc.Data)
	if err != nil {
		return nil, err
	}

	mints, err := fetcher.GetMultipleAccounts(ctx, []solana.PublicKey{pair.TokenMintX, pair.TokenMintY})
	if err != nil {
		return nil, fmt.Errorf("fetch mints of %s: %w", key, err)
	}
	if len(mints) != 2 || mints[0] == nil || mints[1] == nil {
		return nil, fmt.Errorf("mints of %s: %w", key, domain.ErrAccountNotFound)
	}
	return NewEngine(programID, key, pair, mints[0], mints[1])
}

func NewEngine(programID, key solana.PublicKey, pair *Pair, mintX, mintY *domain.Account) (*Engine, error) {
	mx, err := decodeMint(mintX)
	if err != nil {
		return nil, fmt.Errorf("mint x %s: %w", pair.TokenMintX, err)
	}
	my, err := decodeMint(mintY)
	if err != nil {
		return nil, fmt.Errorf("mint y %s: %w", pair.TokenMintY, err)
	}

	vaultX, err := common.GetATAAddressForMint(key, pair.TokenMintX, mx.tokenProgram)
	if err != nil {
		return nil, err
	}
	vaultY, err := common.GetATAAddressForMint(key, pair.TokenMintY, my.tokenProgram)
	if err != nil {
		return nil, err
	}
	eventAuthority, err := DeriveEventAuthority(programID)
	if err != nil {
		return nil, err
	}

	return &Engine{
		key:            key,
		programID:      programID,
		pair:           pair,
		mintX:          mx,
		mintY:          my,
		vaultX:         vaultX,
		vaultY:         vaultY,
		eventAuthority: eventAuthority,
		binArrays:      make(map[uint32]*BinArray),
	}, nil
}

func decodeMint(acc *domain.Account) (mintInfo, error) {
	if !common.IsTokenProgram(acc.Owner) {
		return mintInfo{}, fmt.Errorf("%w: owner %s", ErrInvalidMint, acc.Owner)
	}
	var mint token.Mint
	if err := bin.NewBinDecoder(acc.Data).Decode(&mint); err != nil {
		return mintInfo{}, fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	return mintInfo{tokenProgram: acc.Owner, decimals: mint.Decimals}, nil
}

func (e *Engine) Key() solana.PublicKey {
	return e.key
}

// AccountsToUpdate lists the pair and the bin arrays on both sides of its active bin.
func (e *Engine) AccountsToUpdate() []solana.PublicKey {
	keys := []solana.PublicKey{e.key}
	idx := BinArrayIndex(e.pair.ActiveID)
	indices := []uint32{idx, idx + 1}
	if idx > 0 {
		indices = append([]uint32{idx - 1}, indices...)
	}
	for _, i := range indices {
		if k, err := DeriveBinArray(e.programID, e.key, i); err == nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// Update replaces the pair and bin-array state from a fetched batch. The engine
// is left untouched unless every account in the batch decodes.
func (e *Engine) Update(accounts domain.AccountMap) error {
	acc, ok := accounts[e.key]
	if !ok || acc == nil {
		return fmt.Errorf("pair %s: %w", e.key, domain.ErrAccountNotFound)
	}
	pair, err := DecodePair(acc.Data)
	if err != nil {
		return err
	}
	if pair.TokenMintX != e.pair.TokenMintX || pair.TokenMintY != e.pair.TokenMintY {
		return fmt.Errorf("%w: pair %s changed mints", ErrInvalidAccount, e.key)
	}

	arrays := make(map[uint32]*BinArray, len(accounts))
	for key, acc := range accounts {
		if key == e.key || acc == nil {
			continue
		}
		arr, err := DecodeBinArray(acc.Data)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if arr.Pair != e.key {
			return fmt.Errorf("%w: bin array %s belongs to %s", ErrInvalidAccount, key, arr.Pair)
		}
		arrays[arr.Index] = arr
	}

	e.pair = pair
	e.binArrays = arrays
	return nil
}

func (e *Engine) PoolState() domain.PoolState {
	hook := e.key
	if e.pair.Hook != nil {
		hook = *e.pair.Hook
	}
	return domain.PoolState{
		Address:        e.key,
		ProgramID:      e.programID,
		MintX:          e.pair.TokenMintX,
		MintY:          e.pair.TokenMintY,
		VaultX:         e.vaultX,
		VaultY:         e.vaultY,
		TokenProgramX:  e.mintX.tokenProgram,
		TokenProgramY:  e.mintY.tokenProgram,
		DecimalsX:      e.mintX.decimals,
		DecimalsY:      e.mintY.decimals,
		Hook:           hook,
		EventAuthority: e.eventAuthority,
		ActiveID:       e.pair.ActiveID,
		BinStep:        e.pair.BinStep,
	}
}

// ComputeSwapBinArrays returns the bin arrays a swap from the active bin touches.
func (e *Engine) ComputeSwapBinArrays() (*domain.SwapBinArrays, error) {
	idx := BinArrayIndex(e.pair.ActiveID)
	if _, ok := e.binArrays[idx]; !ok {
		return nil, fmt.Errorf("%w: index %d of %s", ErrBinArraysUnavailable, idx, e.key)
	}
	lower, err := DeriveBinArray(e.programID, e.key, idx)
	if err != nil {
		return nil, err
	}
	upper, err := DeriveBinArray(e.programID, e.key, idx+1)
	if err != nil {
		return nil, err
	}
	return &domain.SwapBinArrays{Index: idx, Lower: lower, Upper: upper}, nil
}

// Quote walks bins away from the active bin until the amount is filled.
func (e *Engine) Quote(params domain.QuoteParams) (*domain.Quote, error) {
	p := e.pair
	forward := params.InputMint == p.TokenMintX && params.OutputMint == p.TokenMintY
	backward := params.InputMint == p.TokenMintY && params.OutputMint == p.TokenMintX
	if !forward && !backward {
		return nil, ErrMintMismatch
	}
	swapForY := IsSwapForY(params.InputMint, p.TokenMintX)
	rate := FeeRate(p)

	quote := &domain.Quote{FeeMint: params.InputMint}
	remaining := params.Amount
	id := p.ActiveID
	for remaining > 0 {
		arr, ok := e.binArrays[BinArrayIndex(id)]
		if !ok {
			break
		}
		price, err := PriceFromID(id, p.BinStep)
		if err != nil {
			return nil, err
		}

		b := &arr.Bins[id%BinArraySize]
		var step binSwap
		if params.SwapMode == domain.ExactOut {
			step = swapExactOutBin(b, price, rate, remaining, swapForY)
			remaining -= step.amountOut
		} else {
			step = swapExactInBin(b, price, rate, remaining, swapForY)
			remaining -= step.amountIn
		}
		quote.InAmount += step.amountIn
		quote.OutAmount += step.amountOut
		quote.FeeAmount += step.fee

		if remaining == 0 {
			break
		}
		if swapForY {
			if id == 0 {
				break
			}
			id--
		} else {
			if id == ^uint32(0) {
				break
			}
			id++
		}
	}

	if remaining > 0 {
		return nil, ErrInsufficientLiquidity
	}
	return quote, nil
}
