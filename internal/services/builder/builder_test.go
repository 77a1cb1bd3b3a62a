package builder

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm/dlmmtest"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

var hookProgram = solana.MustPublicKeyFromBase58(config.DefaultHookProgramID)

func loadEngine(t *testing.T, f *dlmmtest.Fixture, refresh bool) *dlmm.Engine {
	t.Helper()
	ledger := dlmmtest.NewLedger(f.Accounts())
	engine, err := dlmm.Load(context.Background(), ledger, f.ProgramID, f.Pair)
	require.NoError(t, err)
	if refresh {
		require.NoError(t, engine.Update(f.UpdateBatch(engine.AccountsToUpdate())))
	}
	return engine
}

func TestModeFor(t *testing.T) {
	tests := []struct {
		swapForY  bool
		sourceIsX bool
		want      domain.SwapMode
	}{
		{true, true, domain.ExactIn},
		{true, false, domain.ExactOut},
		{false, true, domain.ExactOut},
		{false, false, domain.ExactIn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ModeFor(tt.swapForY, tt.sourceIsX), "swapForY=%v sourceIsX=%v", tt.swapForY, tt.sourceIsX)
	}
}

func TestResolveMode(t *testing.T) {
	x, y := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	swapForY, mode := ResolveMode(x, x)
	assert.True(t, swapForY)
	assert.Equal(t, domain.ExactIn, mode)

	swapForY, mode = ResolveMode(y, x)
	assert.False(t, swapForY)
	assert.Equal(t, domain.ExactIn, mode)
}

func TestBuildSwap_AccountOrder(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine := loadEngine(t, f, true)
	user := solana.NewWallet().PublicKey()

	params := domain.SwapParams{Amount: 1_000, OtherAmountThreshold: 900, SwapForY: true, SwapMode: domain.ExactIn}
	ix, err := NewAssembler(hookProgram).BuildSwap(engine, params, user)
	require.NoError(t, err)

	pool := engine.PoolState()
	arrays, err := engine.ComputeSwapBinArrays()
	require.NoError(t, err)
	userX, err := common.GetATAAddressForMint(user, f.MintX, common.TokenProgramID)
	require.NoError(t, err)
	userY, err := common.GetATAAddressForMint(user, f.MintY, common.TokenProgramID)
	require.NoError(t, err)

	want := []*solana.AccountMeta{
		{PublicKey: f.Pair, IsWritable: true},
		{PublicKey: f.MintX},
		{PublicKey: f.MintY},
		{PublicKey: arrays.Lower, IsWritable: true},
		{PublicKey: arrays.Upper, IsWritable: true},
		{PublicKey: pool.VaultX, IsWritable: true},
		{PublicKey: pool.VaultY, IsWritable: true},
		{PublicKey: userX, IsWritable: true},
		{PublicKey: userY, IsWritable: true},
		{PublicKey: user, IsSigner: true},
		{PublicKey: common.TokenProgramID},
		{PublicKey: common.TokenProgramID},
		{PublicKey: common.MemoProgramID},
		{PublicKey: f.Pair, IsWritable: true},
		{PublicKey: hookProgram},
		{PublicKey: pool.EventAuthority},
		{PublicKey: f.ProgramID},
	}
	got := ix.Accounts()
	require.Len(t, got, SwapAccountCount)
	for i := range want {
		assert.Equal(t, *want[i], *got[i], "account %d", i)
	}

	assert.Equal(t, f.ProgramID, ix.ProgramID())
	data, err := ix.Data()
	require.NoError(t, err)
	expected, err := dlmm.EncodeSwapData(params)
	require.NoError(t, err)
	assert.Equal(t, expected, data)
}

func TestBuildSwap_HookAccountsAppendedLast(t *testing.T) {
	hook := solana.NewWallet().PublicKey()
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).WithHook(hook).FillAround(4, 1_000, 1_000)
	engine := loadEngine(t, f, true)
	user := solana.NewWallet().PublicKey()

	ix, err := NewAssembler(hookProgram).BuildSwap(engine, domain.SwapParams{Amount: 10}, user)
	require.NoError(t, err)

	got := ix.Accounts()
	require.Len(t, got, SwapAccountCount+HookAccountCount)
	assert.Equal(t, hook, got[13].PublicKey)
	assert.True(t, got[13].IsWritable)
	assert.Equal(t, f.ProgramID, got[16].PublicKey)

	idx := dlmm.BinArrayIndex(dlmm.CenterBinID)
	lower, upper, err := HookBinArrays(hookProgram, hook, idx)
	require.NoError(t, err)
	assert.Equal(t, solana.AccountMeta{PublicKey: lower, IsWritable: true}, *got[17])
	assert.Equal(t, solana.AccountMeta{PublicKey: upper, IsWritable: true}, *got[18])

	expectedLower, err := dlmm.DeriveBinArray(hookProgram, hook, idx)
	require.NoError(t, err)
	expectedUpper, err := dlmm.DeriveBinArray(hookProgram, hook, idx+1)
	require.NoError(t, err)
	assert.Equal(t, expectedLower, got[17].PublicKey)
	assert.Equal(t, expectedUpper, got[18].PublicKey)
	assert.NotEqual(t, expectedLower, expectedUpper)
}

func TestBuildSwap_Errors(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	assembler := NewAssembler(hookProgram)

	_, err := assembler.BuildSwap(loadEngine(t, f, false), domain.SwapParams{Amount: 1}, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, dlmm.ErrBinArraysUnavailable)

	_, err = assembler.BuildSwap(loadEngine(t, f, true), domain.SwapParams{Amount: 1}, solana.PublicKey{})
	assert.ErrorIs(t, err, ErrInvalidUser)
}

func TestSimulationTransaction(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine := loadEngine(t, f, true)
	user := solana.NewWallet().PublicKey()

	svc := NewBuilderService(hookProgram, nil)
	first, err := svc.BuildSwap(engine, domain.SwapParams{Amount: 10}, user)
	require.NoError(t, err)
	second, err := svc.BuildSwap(engine, domain.SwapParams{Amount: 10}, user)
	require.NoError(t, err)

	require.Len(t, first.Transaction.Signatures, 1)
	assert.NotEqual(t, first.Transaction.Signatures[0], second.Transaction.Signatures[0])
	assert.Equal(t, user, first.Transaction.Message.AccountKeys[0])

	raw, err := base64.StdEncoding.DecodeString(first.Encoded)
	require.NoError(t, err)
	var decoded solana.Transaction
	require.NoError(t, decoded.UnmarshalWithDecoder(bin.NewBinDecoder(raw)))
	assert.Equal(t, first.Transaction.Signatures, decoded.Signatures)
	require.Len(t, decoded.Message.Instructions, 1)
	assert.Len(t, decoded.Message.Instructions[0].Accounts, SwapAccountCount)
}

func TestViewOf(t *testing.T) {
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000, 1_000)
	engine := loadEngine(t, f, true)
	user := solana.NewWallet().PublicKey()

	ix, err := NewAssembler(hookProgram).BuildSwap(engine, domain.SwapParams{Amount: 10}, user)
	require.NoError(t, err)
	view, err := ViewOf(ix)
	require.NoError(t, err)

	assert.Equal(t, f.ProgramID.String(), view.ProgramID)
	require.Len(t, view.Accounts, SwapAccountCount)
	assert.Equal(t, domain.AccountMetaView{Pubkey: user.String(), IsSigner: true}, view.Accounts[9])
	data, err := base64.StdEncoding.DecodeString(view.Data)
	require.NoError(t, err)
	assert.Len(t, data, 26)
}

func TestParseSimulationResult_Defaults(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":42},"value":{}}}`))
	assert.Equal(t, uint64(42), res.Slot)
	assert.Equal(t, domain.SimulationSuccess, res.Status)
	assert.Equal(t, uint64(0), res.Fee)
	assert.Nil(t, res.Error)
	assert.Equal(t, []string{}, res.Logs)
	assert.Nil(t, res.PreTokenBalances)
	assert.Nil(t, res.PostTokenBalances)

	for _, raw := range []string{``, `not json`, `[]`, `{"result":null}`, `{"result":{"value":"x"}}`} {
		res := ParseSimulationResult([]byte(raw))
		assert.Equal(t, domain.SimulationSuccess, res.Status, raw)
		assert.Equal(t, []string{}, res.Logs, raw)
		assert.Nil(t, res.Error, raw)
	}
}

func TestParseSimulationResult_Success(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"result":{"context":{"slot":7},"value":{
		"err":null,"fee":5000,"unitsConsumed":50000,
		"logs":["Program log: swap",1,"Program success"],
		"preTokenBalances":[{"accountIndex":7}],"postTokenBalances":[]}}}`))

	assert.True(t, res.Succeeded())
	assert.Equal(t, uint64(5000), res.Fee)
	assert.Equal(t, uint64(50000), res.Units)
	assert.Equal(t, uint64(60000), res.ComputeUnitsEstimate)
	assert.Equal(t, []string{"Program log: swap", "Program success"}, res.Logs)
	assert.JSONEq(t, `[{"accountIndex":7}]`, string(res.PreTokenBalances))
	assert.JSONEq(t, `[]`, string(res.PostTokenBalances))
}

func TestParseSimulationResult_FullUint64Range(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"result":{"context":{"slot":18446744073709551615},"value":{
		"err":null,"fee":9223372036854775808,"unitsConsumed":1000}}}`))
	assert.Equal(t, uint64(18446744073709551615), res.Slot)
	assert.Equal(t, uint64(9223372036854775808), res.Fee)
	assert.Equal(t, uint64(1000), res.Units)

	res = ParseSimulationResult([]byte(`{"result":{"context":{"slot":-3},"value":{"fee":1.5,"unitsConsumed":18446744073709551616}}}`))
	assert.Zero(t, res.Slot)
	assert.Zero(t, res.Fee)
	assert.Zero(t, res.Units)
}

func TestParseSimulationResult_EstimateCapped(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"result":{"value":{"err":null,"unitsConsumed":1300000}}}`))
	assert.Equal(t, uint64(MaxComputeUnits), res.ComputeUnitsEstimate)
}

func TestParseSimulationResult_ProgramError(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"result":{"context":{"slot":7},"value":{
		"err":{"InstructionError":[0,{"Custom":1}]},
		"logs":["Program log: Error: insufficient funds"]}}}`))

	assert.Equal(t, domain.SimulationError, res.Status)
	require.NotNil(t, res.Error)
	assert.JSONEq(t, `{"InstructionError":[0,{"Custom":1}]}`, *res.Error)
	assert.True(t, res.InsufficientFunds)
	assert.False(t, res.SlippageExceeded)
	assert.Zero(t, res.ComputeUnitsEstimate)
}

func TestParseSimulationResult_RPCError(t *testing.T) {
	res := ParseSimulationResult([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid transaction"}}`))
	assert.Equal(t, domain.SimulationError, res.Status)
	require.NotNil(t, res.Error)
	assert.Equal(t, "invalid transaction", *res.Error)
}

type fakeSimulator struct {
	raw []byte
	err error
	got string
}

func (s *fakeSimulator) SimulateTransaction(_ context.Context, tx string) ([]byte, error) {
	s.got = tx
	return s.raw, s.err
}

func TestBuilderService_Simulate(t *testing.T) {
	sim := &fakeSimulator{raw: []byte(`{"result":{"context":{"slot":9},"value":{"err":"SlippageExceeded","logs":["slippage tolerance exceeded"]}}}`)}
	svc := NewBuilderService(hookProgram, sim)

	res, err := svc.Simulate(context.Background(), "AQID")
	require.NoError(t, err)
	assert.Equal(t, "AQID", sim.got)
	assert.Equal(t, domain.SimulationError, res.Status)
	assert.True(t, res.SlippageExceeded)

	sim.raw = []byte(`<html>`)
	_, err = svc.Simulate(context.Background(), "AQID")
	assert.ErrorIs(t, err, ErrMalformedResponse)

	sim.err = errors.New("connection refused")
	_, err = svc.Simulate(context.Background(), "AQID")
	assert.Error(t, err)
}
