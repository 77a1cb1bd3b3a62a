package dlmm_test

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm/dlmmtest"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

func loadEngine(t *testing.T, f *dlmmtest.Fixture) (*dlmm.Engine, *dlmmtest.Ledger) {
	t.Helper()
	ledger := dlmmtest.NewLedger(f.Accounts())
	engine, err := dlmm.Load(context.Background(), ledger, f.ProgramID, f.Pair)
	require.NoError(t, err)
	return engine, ledger
}

func refresh(t *testing.T, e *dlmm.Engine, f *dlmmtest.Fixture) {
	t.Helper()
	require.NoError(t, e.Update(f.UpdateBatch(e.AccountsToUpdate())))
}

func TestLoad_PoolState(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000_000_000, 1_000_000_000)
	engine, ledger := loadEngine(t, f)

	assert.Equal(t, int64(1), ledger.GetAccountCalls.Load())
	assert.Equal(t, int64(1), ledger.GetMultipleCalls.Load())

	state := engine.PoolState()
	assert.Equal(t, f.Pair, state.Address)
	assert.Equal(t, f.MintX, state.MintX)
	assert.Equal(t, f.MintY, state.MintY)
	assert.Equal(t, uint8(9), state.DecimalsX)
	assert.Equal(t, uint8(6), state.DecimalsY)
	assert.Equal(t, common.TokenProgramID, state.TokenProgramX)
	assert.False(t, state.HasHook())

	vaultX, err := common.GetATAAddressForMint(f.Pair, f.MintX, common.TokenProgramID)
	require.NoError(t, err)
	assert.Equal(t, vaultX, state.VaultX)
}

func TestLoad_Errors(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1)

	t.Run("missing pair", func(t *testing.T) {
		ledger := dlmmtest.NewLedger(nil)
		_, err := dlmm.Load(context.Background(), ledger, f.ProgramID, f.Pair)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("wrong owner", func(t *testing.T) {
		accounts := f.Accounts()
		accounts[f.Pair].Owner = solana.SystemProgramID
		ledger := dlmmtest.NewLedger(accounts)
		_, err := dlmm.Load(context.Background(), ledger, f.ProgramID, f.Pair)
		assert.ErrorIs(t, err, dlmm.ErrInvalidAccount)
	})

	t.Run("missing mint", func(t *testing.T) {
		ledger := dlmmtest.NewLedger(f.Accounts())
		ledger.Delete(f.MintY)
		_, err := dlmm.Load(context.Background(), ledger, f.ProgramID, f.Pair)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestPoolState_Hook(t *testing.T) {
	hook := solana.NewWallet().PublicKey()
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).WithHook(hook)
	engine, _ := loadEngine(t, f)

	state := engine.PoolState()
	assert.Equal(t, hook, state.Hook)
	assert.True(t, state.HasHook())
}

func TestAccountsToUpdate(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID+300, 1)
	engine, _ := loadEngine(t, f)

	idx := dlmm.BinArrayIndex(dlmm.CenterBinID + 300)
	assert.Equal(t, []solana.PublicKey{f.Pair, f.BinArrayKey(idx - 1), f.BinArrayKey(idx), f.BinArrayKey(idx + 1)}, engine.AccountsToUpdate())
}

func TestComputeSwapBinArrays(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine, _ := loadEngine(t, f)

	_, err := engine.ComputeSwapBinArrays()
	assert.ErrorIs(t, err, dlmm.ErrBinArraysUnavailable)

	refresh(t, engine, f)
	arrays, err := engine.ComputeSwapBinArrays()
	require.NoError(t, err)
	idx := dlmm.BinArrayIndex(dlmm.CenterBinID)
	assert.Equal(t, idx, arrays.Index)
	assert.Equal(t, f.BinArrayKey(idx), arrays.Lower)
	assert.Equal(t, f.BinArrayKey(idx+1), arrays.Upper)
}

func TestUpdate_FailureKeepsState(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	batch := f.UpdateBatch(engine.AccountsToUpdate())
	batch[f.Pair] = &domain.Account{Owner: f.ProgramID, Data: []byte{1, 2, 3}}
	assert.Error(t, engine.Update(batch))

	assert.Equal(t, uint32(dlmm.CenterBinID), engine.PoolState().ActiveID)
	_, err := engine.ComputeSwapBinArrays()
	assert.NoError(t, err)

	delete(batch, f.Pair)
	assert.ErrorIs(t, engine.Update(batch), domain.ErrAccountNotFound)
}

func TestUpdate_ActiveBinMoves(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	f.State.ActiveID = dlmm.CenterBinID + 2
	refresh(t, engine, f)
	assert.Equal(t, uint32(dlmm.CenterBinID+2), engine.PoolState().ActiveID)
}

func TestQuote_ExactIn(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000_000_000, 1_000_000_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	q, err := engine.Quote(domain.QuoteParams{
		Amount:     1_000_000,
		InputMint:  f.MintX,
		OutputMint: f.MintY,
		SwapMode:   domain.ExactIn,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), q.InAmount)
	assert.Equal(t, uint64(999_900), q.OutAmount)
	assert.Equal(t, uint64(100), q.FeeAmount)
	assert.Equal(t, f.MintX, q.FeeMint)
}

func TestQuote_ExactOut(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000_000_000, 1_000_000_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	q, err := engine.Quote(domain.QuoteParams{
		Amount:     999_900,
		InputMint:  f.MintY,
		OutputMint: f.MintX,
		SwapMode:   domain.ExactOut,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(999_900), q.OutAmount)
	assert.Equal(t, uint64(1_000_000), q.InAmount)
	assert.Equal(t, uint64(100), q.FeeAmount)
}

func TestQuote_CrossesBins(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 10).FillAround(4, 1_000, 1_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	q, err := engine.Quote(domain.QuoteParams{
		Amount:     2_500,
		InputMint:  f.MintY,
		OutputMint: f.MintX,
		SwapMode:   domain.ExactOut,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2_500), q.OutAmount)
	assert.Greater(t, q.InAmount, uint64(2_500))
	assert.Greater(t, q.FeeAmount, uint64(0))
}

func TestQuote_Errors(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(2, 1_000, 1_000)
	engine, _ := loadEngine(t, f)
	refresh(t, engine, f)

	_, err := engine.Quote(domain.QuoteParams{Amount: 1_000_000_000, InputMint: f.MintX, OutputMint: f.MintY})
	assert.ErrorIs(t, err, dlmm.ErrInsufficientLiquidity)

	_, err = engine.Quote(domain.QuoteParams{Amount: 10, InputMint: f.MintX, OutputMint: f.MintX})
	assert.ErrorIs(t, err, dlmm.ErrMintMismatch)
}

func TestEncodeSwapData(t *testing.T) {
	data, err := dlmm.EncodeSwapData(domain.SwapParams{
		Amount:               1_000,
		OtherAmountThreshold: 990,
		SwapForY:             true,
		SwapMode:             domain.ExactOut,
	})
	require.NoError(t, err)
	require.Len(t, data, 26)

	assert.Equal(t, dlmm.SwapDiscriminator[:], data[:8])
	assert.Equal(t, uint64(1_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(990), binary.LittleEndian.Uint64(data[16:24]))
	assert.Equal(t, byte(1), data[24])
	assert.Equal(t, byte(1), data[25])
}

func TestIsSwapForY(t *testing.T) {
	x, y := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	assert.True(t, dlmm.IsSwapForY(x, x))
	assert.False(t, dlmm.IsSwapForY(y, x))
}
