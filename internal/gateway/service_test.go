package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm/dlmmtest"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/services/builder"
	"github.com/hxuan190/dlmm-gateway/internal/services/market"
)

var errRPCDown = errors.New("rpc down")

type harness struct {
	fixture *dlmmtest.Fixture
	ledger  *dlmmtest.Ledger
	svc     *Service
}

func newHarness(t *testing.T, ttl time.Duration) *harness {
	t.Helper()
	f := dlmmtest.NewFixture(dlmm.CenterBinID, 1).FillAround(4, 1_000_000_000, 1_000_000_000)
	ledger := dlmmtest.NewLedger(f.Accounts())
	conf := &config.DLMMConfig{
		ProgramID:            dlmm.ProgramID,
		HookProgramID:        solana.MustPublicKeyFromBase58(config.DefaultHookProgramID),
		CacheTTL:             ttl,
		RefreshAttempts:      3,
		RefreshTimeout:       time.Second,
		RefreshRetryInterval: time.Millisecond,
		MaxPoolClients:       8,
		TokenMetaTTL:         time.Minute,
		TokenMetaSize:        16,
	}
	marketSvc := market.NewService(conf, ledger, nil)
	t.Cleanup(func() { _ = marketSvc.Stop() })
	builderSvc := builder.NewBuilderService(conf.HookProgramID, ledger)
	return &harness{
		fixture: f,
		ledger:  ledger,
		svc:     NewService(marketSvc, builderSvc, ledger),
	}
}

func (h *harness) swapRequest() domain.SwapRequest {
	return domain.SwapRequest{
		Pair:            h.fixture.Pair,
		SourceMint:      h.fixture.MintX,
		DestinationMint: h.fixture.MintY,
		InAmount:        1_000_000,
		MinOutAmount:    990_000,
		Signer:          solana.NewWallet().PublicKey(),
	}
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *common.HttpError
	require.ErrorAs(t, err, &he)
	return he.StatusCode
}

func TestNetworkStatus(t *testing.T) {
	h := newHarness(t, config.NeverExpires)
	status := h.svc.NetworkStatus(context.Background())
	assert.Equal(t, domain.NetworkStatus{PoolClients: 0, CacheTTL: "never", RPCHealthy: true}, status)

	h.ledger.HealthErr = errRPCDown
	_, err := h.svc.Pair(context.Background(), h.fixture.Pair)
	require.NoError(t, err)
	status = h.svc.NetworkStatus(context.Background())
	assert.False(t, status.RPCHealthy)
	assert.Equal(t, 1, status.PoolClients)
}

func TestPair(t *testing.T) {
	h := newHarness(t, time.Minute)
	info, err := h.svc.Pair(context.Background(), h.fixture.Pair)
	require.NoError(t, err)

	assert.Equal(t, h.fixture.Pair.String(), info.PairAddress)
	assert.Equal(t, h.fixture.MintX.String(), info.TokenMintX)
	assert.Equal(t, "SOL", info.TokenA.Symbol)
	assert.Equal(t, uint8(9), info.TokenA.Decimals)
	assert.Equal(t, "USDC", info.TokenB.Symbol)
	assert.Equal(t, uint8(6), info.TokenB.Decimals)
	assert.Equal(t, uint32(dlmm.CenterBinID), info.ActiveID)
	assert.False(t, info.HasHook)
	assert.Equal(t, info.PairAddress, info.Hook)
}

func TestPair_DoesNotRefresh(t *testing.T) {
	h := newHarness(t, 0)
	_, err := h.svc.Pair(context.Background(), h.fixture.Pair)
	require.NoError(t, err)

	before := h.ledger.GetMultipleCalls.Load()
	h.ledger.FailNext(3, errRPCDown)
	info, err := h.svc.Pair(context.Background(), h.fixture.Pair)
	require.NoError(t, err)
	assert.Equal(t, h.fixture.Pair.String(), info.PairAddress)
	assert.Equal(t, before, h.ledger.GetMultipleCalls.Load())
}

func TestPair_NotFound(t *testing.T) {
	h := newHarness(t, time.Minute)
	_, err := h.svc.Pair(context.Background(), solana.NewWallet().PublicKey())
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
}

func TestPair_LedgerDown(t *testing.T) {
	h := newHarness(t, time.Minute)
	h.ledger.FailNext(1, errRPCDown)
	_, err := h.svc.Pair(context.Background(), h.fixture.Pair)
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
	assert.ErrorIs(t, err, errRPCDown)
}

func TestQuote(t *testing.T) {
	h := newHarness(t, time.Minute)
	res, err := h.svc.Quote(context.Background(), domain.QuoteRequest{
		Pair:            h.fixture.Pair,
		SourceMint:      h.fixture.MintX,
		DestinationMint: h.fixture.MintY,
		AmountIn:        1_000_000,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1_000_000), res.InAmount)
	assert.Equal(t, uint64(999_900), res.OutAmount)
	assert.Equal(t, uint64(100), res.FeeAmount)
	assert.Equal(t, h.fixture.MintX.String(), res.FeeMint)
	assert.Equal(t, domain.ExactIn, res.SwapMode)
	assert.True(t, res.SwapForY)
	assert.Equal(t, "0.001", res.InAmountUI)
	assert.Equal(t, "0.9999", res.OutAmountUI)
}

func TestQuote_ValidationMakesNoRemoteCalls(t *testing.T) {
	h := newHarness(t, time.Minute)
	req := domain.QuoteRequest{Pair: h.fixture.Pair, SourceMint: h.fixture.MintX, DestinationMint: h.fixture.MintX, AmountIn: 10}
	_, err := h.svc.Quote(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))

	req.DestinationMint = h.fixture.MintY
	req.AmountIn = 0
	_, err = h.svc.Quote(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Zero(t, h.ledger.GetAccountCalls.Load())

	req.AmountIn = 10
	req.DestinationMint = solana.NewWallet().PublicKey()
	_, err = h.svc.Quote(context.Background(), req)
	assert.ErrorIs(t, err, ErrMintNotInPool)
}

func TestQuote_RefreshFailureUsesLastSnapshot(t *testing.T) {
	h := newHarness(t, 0)
	req := domain.QuoteRequest{Pair: h.fixture.Pair, SourceMint: h.fixture.MintY, DestinationMint: h.fixture.MintX, AmountIn: 1_000}
	_, err := h.svc.Quote(context.Background(), req)
	require.NoError(t, err)

	before := h.ledger.GetMultipleCalls.Load()
	h.ledger.FailNext(3, errRPCDown)
	res, err := h.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), res.InAmount)
	assert.Equal(t, int64(3), h.ledger.GetMultipleCalls.Load()-before)
}

func TestQuote_NeverRefreshedPoolFails(t *testing.T) {
	h := newHarness(t, time.Minute)
	c, err := h.svc.marketSvc.Client(context.Background(), h.fixture.Pair)
	require.NoError(t, err)
	require.True(t, c.LastRefreshed().IsZero())

	h.ledger.FailNext(3, errRPCDown)
	_, err = h.svc.Quote(context.Background(), domain.QuoteRequest{
		Pair: h.fixture.Pair, SourceMint: h.fixture.MintX, DestinationMint: h.fixture.MintY, AmountIn: 10,
	})
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
	assert.ErrorIs(t, err, ErrStateUnavailable)
}

func TestQuote_FreshClientSkipsRefresh(t *testing.T) {
	h := newHarness(t, config.NeverExpires)
	req := domain.QuoteRequest{Pair: h.fixture.Pair, SourceMint: h.fixture.MintX, DestinationMint: h.fixture.MintY, AmountIn: 10}
	_, err := h.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	calls := h.ledger.GetMultipleCalls.Load()

	_, err = h.svc.Quote(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, calls, h.ledger.GetMultipleCalls.Load())
}

func TestQuote_InsufficientLiquidity(t *testing.T) {
	h := newHarness(t, time.Minute)
	_, err := h.svc.Quote(context.Background(), domain.QuoteRequest{
		Pair: h.fixture.Pair, SourceMint: h.fixture.MintX, DestinationMint: h.fixture.MintY, AmountIn: 1 << 62,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
}

func TestInstruction_Swap(t *testing.T) {
	h := newHarness(t, time.Minute)
	req := h.swapRequest()
	res, err := h.svc.Instruction(context.Background(), domain.InstructionRequest{Type: domain.InstructionSwap, Swap: req})
	require.NoError(t, err)

	assert.Equal(t, "swap", res.InstructionType)
	require.NotNil(t, res.Instruction)
	assert.Len(t, res.Instruction.Accounts, builder.SwapAccountCount)
	assert.Equal(t, req.Signer.String(), res.Instruction.Accounts[9].Pubkey)
	assert.NotEmpty(t, res.Transaction)
	assert.Equal(t, uint64(990_000), res.Params.MinimumAmountOut)
	assert.Equal(t, "ExactIn", res.Params.SwapMode)
	assert.True(t, res.Params.SwapForY)
}

func TestInstruction_Unsupported(t *testing.T) {
	h := newHarness(t, time.Minute)
	res, err := h.svc.Instruction(context.Background(), domain.InstructionRequest{Type: domain.InstructionClosePosition})
	require.NoError(t, err)
	assert.Equal(t, domain.InstructionUnsupported, res.InstructionType)
	assert.Nil(t, res.Instruction)
	assert.Zero(t, h.ledger.GetAccountCalls.Load())
}

func TestSimulateSwap(t *testing.T) {
	h := newHarness(t, time.Minute)
	h.ledger.SimulateResponse = []byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":99},"value":{"err":null,"unitsConsumed":40000,"fee":5000,"logs":["Program log: Instruction: Swap"]}}}`)

	res, err := h.svc.SimulateSwap(context.Background(), h.swapRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.SimulationSuccess, res.Status)
	assert.Equal(t, uint64(99), res.Slot)
	assert.Equal(t, uint64(48000), res.ComputeUnitsEstimate)
	assert.Equal(t, int64(1), h.ledger.SimulateCalls.Load())
	assert.NotEmpty(t, h.ledger.LastTransaction)
}

func TestSimulateSwap_ProgramErrorIsNotAFailure(t *testing.T) {
	h := newHarness(t, time.Minute)
	h.ledger.SimulateResponse = []byte(`{"result":{"context":{"slot":1},"value":{"err":{"InstructionError":[0,{"Custom":6003}]},"logs":["Program log: Error: insufficient funds"]}}}`)

	res, err := h.svc.SimulateSwap(context.Background(), h.swapRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.SimulationError, res.Status)
	assert.True(t, res.InsufficientFunds)
}

func TestSimulateSwap_TransportFailure(t *testing.T) {
	h := newHarness(t, time.Minute)
	h.ledger.SimulateErr = errRPCDown

	_, err := h.svc.SimulateSwap(context.Background(), h.swapRequest())
	assert.Equal(t, http.StatusBadGateway, statusOf(t, err))
}

func TestSimulateSwap_MissingSigner(t *testing.T) {
	h := newHarness(t, time.Minute)
	req := h.swapRequest()
	req.Signer = solana.PublicKey{}

	_, err := h.svc.SimulateSwap(context.Background(), req)
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
	assert.Zero(t, h.ledger.SimulateCalls.Load())
}
