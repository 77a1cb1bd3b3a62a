package gateway

import (
	"context"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-gateway/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/metrics"
	"github.com/hxuan190/dlmm-gateway/internal/services"
	"github.com/hxuan190/dlmm-gateway/internal/services/builder"
	"github.com/hxuan190/dlmm-gateway/internal/services/market"
)

const (
	GATEWAY_SERVICE = "gateway-svc"

	healthTimeout = 2 * time.Second
)

// HealthChecker reports whether the ledger endpoint is serving.
type HealthChecker interface {
	GetHealth(ctx context.Context) error
}

// Service answers the gateway's pool, quote, instruction and simulation requests.
type Service struct {
	container.BaseDIInstance

	logger     *services.ServiceLogger
	marketSvc  *market.Service
	builderSvc *builder.BuilderService
	health     HealthChecker
}

func NewService(marketSvc *market.Service, builderSvc *builder.BuilderService, health HealthChecker) *Service {
	svc := &Service{
		marketSvc:  marketSvc,
		builderSvc: builderSvc,
		health:     health,
	}
	svc.logger = services.NewServiceLogger(svc)
	return svc
}

func (svc *Service) ID() string {
	return GATEWAY_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.marketSvc = c.Instance(market.MARKET_SERVICE).(*market.Service)
	svc.builderSvc = c.Instance(builder.BUILDER_SERVICE).(*builder.BuilderService)
	svc.health = c.Instance(blockchain.LEDGER_SERVICE).(*blockchain.RPCLedger)
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

func (svc *Service) NetworkStatus(ctx context.Context) domain.NetworkStatus {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	healthy := true
	if err := svc.health.GetHealth(ctx); err != nil {
		svc.logger.Ctx(ctx).Warn().Err(err).Msg("rpc health check failed")
		healthy = false
	}

	ttl := "never"
	if d := svc.marketSvc.CacheTTL(); d >= 0 {
		ttl = d.String()
	}
	return domain.NetworkStatus{
		PoolClients: svc.marketSvc.PoolCount(),
		CacheTTL:    ttl,
		RPCHealthy:  healthy,
	}
}

// Pair describes a pool and its two tokens. It never refreshes the pool.
func (svc *Service) Pair(ctx context.Context, key solana.PublicKey) (*domain.PairInfo, error) {
	client, err := svc.marketSvc.Client(ctx, key)
	if err != nil {
		return nil, creationError(err)
	}
	// The pair account loaded at creation is enough here; bin state is not needed.
	pool := client.PoolState()
	metas, err := svc.marketSvc.TokenMeta(ctx, pool.MintX, pool.MintY)
	if err != nil {
		return nil, common.HTTPErrorBadGateway("Failed to fetch token metadata").Wrap(err)
	}

	return &domain.PairInfo{
		PairAddress: pool.Address.String(),
		TokenMintX:  pool.MintX.String(),
		TokenMintY:  pool.MintY.String(),
		TokenA:      metas[0],
		TokenB:      metas[1],
		BinStep:     pool.BinStep,
		ActiveID:    pool.ActiveID,
		Hook:        pool.Hook.String(),
		HasHook:     pool.HasHook(),
	}, nil
}

func (svc *Service) Quote(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	if err := validateTrade(req.SourceMint, req.DestinationMint, req.AmountIn); err != nil {
		return nil, operationError(err)
	}
	client, err := svc.marketSvc.Client(ctx, req.Pair)
	if err != nil {
		return nil, creationError(err)
	}
	pool := client.PoolState()
	if err := validatePoolMints(pool, req.SourceMint, req.DestinationMint); err != nil {
		return nil, operationError(err)
	}
	if err := svc.ensureFresh(ctx, client); err != nil {
		return nil, operationError(err)
	}

	swapForY, mode := builder.ResolveMode(req.SourceMint, pool.MintX)
	params := domain.QuoteParams{
		Amount:     req.AmountIn,
		InputMint:  req.SourceMint,
		OutputMint: req.DestinationMint,
		SwapMode:   mode,
	}

	start := time.Now()
	var quote *domain.Quote
	err = client.Read(func(e market.Engine) error {
		var qerr error
		quote, qerr = e.Quote(params)
		return qerr
	})
	metrics.QuoteDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QuoteRequests.WithLabelValues(mode.String(), "error").Inc()
		return nil, operationError(err)
	}
	metrics.QuoteRequests.WithLabelValues(mode.String(), "ok").Inc()

	return &domain.QuoteResult{
		InAmount:    quote.InAmount,
		OutAmount:   quote.OutAmount,
		FeeAmount:   quote.FeeAmount,
		FeeMint:     quote.FeeMint.String(),
		SwapMode:    mode,
		SwapForY:    swapForY,
		InAmountUI:  uiAmount(quote.InAmount, pool.DecimalsOf(req.SourceMint)),
		OutAmountUI: uiAmount(quote.OutAmount, pool.DecimalsOf(req.DestinationMint)),
	}, nil
}

// Instruction assembles the requested instruction. Only swaps are built; the
// other known types return an unsupported result.
func (svc *Service) Instruction(ctx context.Context, req domain.InstructionRequest) (*domain.InstructionResult, error) {
	if req.Type != domain.InstructionSwap {
		return &domain.InstructionResult{InstructionType: domain.InstructionUnsupported}, nil
	}

	build, pool, params, err := svc.buildSwap(ctx, req.Swap)
	if err != nil {
		return nil, err
	}
	view, err := builder.ViewOf(build.Instruction)
	if err != nil {
		return nil, operationError(err)
	}

	return &domain.InstructionResult{
		InstructionType: string(domain.InstructionSwap),
		Instruction:     view,
		Transaction:     build.Encoded,
		Params: &domain.SwapParamsView{
			AmountIn:         req.Swap.InAmount,
			MinimumAmountOut: req.Swap.MinOutAmount,
			SourceMint:       req.Swap.SourceMint.String(),
			DestinationMint:  req.Swap.DestinationMint.String(),
			SwapForY:         params.SwapForY,
			SwapMode:         params.SwapMode.String(),
			PairAddress:      pool.Address.String(),
		},
	}, nil
}

// SimulateSwap assembles a swap and dry-runs it. A program rejection is returned
// as a result with status error, not as a failure.
func (svc *Service) SimulateSwap(ctx context.Context, req domain.SwapRequest) (*domain.SimulationResult, error) {
	build, _, _, err := svc.buildSwap(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := svc.builderSvc.Simulate(ctx, build.Encoded)
	if err != nil {
		return nil, common.HTTPErrorBadGateway("Failed to simulate transaction").Wrap(err)
	}
	return res, nil
}

func (svc *Service) buildSwap(ctx context.Context, req domain.SwapRequest) (*builder.SwapBuild, domain.PoolState, domain.SwapParams, error) {
	if err := validateTrade(req.SourceMint, req.DestinationMint, req.InAmount); err != nil {
		return nil, domain.PoolState{}, domain.SwapParams{}, operationError(err)
	}
	if req.Signer.IsZero() {
		return nil, domain.PoolState{}, domain.SwapParams{}, operationError(builder.ErrInvalidUser)
	}
	client, err := svc.marketSvc.Client(ctx, req.Pair)
	if err != nil {
		return nil, domain.PoolState{}, domain.SwapParams{}, creationError(err)
	}
	pool := client.PoolState()
	if err := validatePoolMints(pool, req.SourceMint, req.DestinationMint); err != nil {
		return nil, pool, domain.SwapParams{}, operationError(err)
	}
	if err := svc.ensureFresh(ctx, client); err != nil {
		return nil, pool, domain.SwapParams{}, operationError(err)
	}

	swapForY, mode := builder.ResolveMode(req.SourceMint, pool.MintX)
	params := domain.SwapParams{
		Amount:               req.InAmount,
		OtherAmountThreshold: req.MinOutAmount,
		SwapForY:             swapForY,
		SwapMode:             mode,
	}

	var build *builder.SwapBuild
	err = client.Read(func(e market.Engine) error {
		var berr error
		build, berr = svc.builderSvc.BuildSwap(e, params, req.Signer)
		return berr
	})
	if err != nil {
		return nil, pool, params, operationError(err)
	}
	return build, pool, params, nil
}

// validateTrade runs the checks that need no remote state.
func validateTrade(source, destination solana.PublicKey, amount uint64) error {
	if source == destination {
		return ErrSameMint
	}
	if amount == 0 {
		return ErrZeroAmount
	}
	return nil
}

func validatePoolMints(pool domain.PoolState, source, destination solana.PublicKey) error {
	if !pool.HasMint(source) || !pool.HasMint(destination) {
		return ErrMintNotInPool
	}
	return nil
}

func uiAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).String()
}
