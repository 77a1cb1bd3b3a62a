package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-gateway/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/metrics"
	"github.com/hxuan190/dlmm-gateway/internal/services"
)

const BUILDER_SERVICE = "builder-svc"

var ErrMalformedResponse = errors.New("simulate: rpc returned malformed json")

// Simulator submits a serialized transaction for a dry run and returns the raw response.
type Simulator interface {
	SimulateTransaction(ctx context.Context, txBase64 string) ([]byte, error)
}

// SwapBuild is an assembled swap and its simulation envelope.
type SwapBuild struct {
	Instruction *solana.GenericInstruction
	Transaction *solana.Transaction
	Encoded     string
}

type BuilderService struct {
	container.BaseDIInstance

	assembler *Assembler
	simulator Simulator
	logger    *services.ServiceLogger
}

func NewBuilderService(hookProgram solana.PublicKey, simulator Simulator) *BuilderService {
	svc := &BuilderService{}
	svc.init(hookProgram, simulator)
	return svc
}

func (svc *BuilderService) ID() string {
	return BUILDER_SERVICE
}

func (svc *BuilderService) Configure(c container.IContainer) error {
	dlmmConfig, ok := c.GetConfig(config.DLMM_CONFIG_KEY).(*config.DLMMConfig)
	if !ok || dlmmConfig == nil {
		return errors.New("invalid dlmm config")
	}
	ledger, ok := c.Instance(blockchain.LEDGER_SERVICE).(*blockchain.RPCLedger)
	if !ok || ledger == nil {
		return errors.New("ledger service not registered")
	}
	svc.init(dlmmConfig.HookProgramID, ledger)
	return nil
}

func (svc *BuilderService) init(hookProgram solana.PublicKey, simulator Simulator) {
	svc.assembler = NewAssembler(hookProgram)
	svc.simulator = simulator
	svc.logger = services.NewServiceLogger(svc)
}

func (svc *BuilderService) Start() error {
	return nil
}

func (svc *BuilderService) Stop() error {
	return nil
}

// BuildSwap assembles the swap instruction and wraps it in a simulation envelope.
func (svc *BuilderService) BuildSwap(src SwapSource, params domain.SwapParams, user solana.PublicKey) (*SwapBuild, error) {
	ix, err := svc.assembler.BuildSwap(src, params, user)
	if err != nil {
		return nil, err
	}
	tx, err := NewSimulationTransaction(user, ix)
	if err != nil {
		return nil, err
	}
	encoded, err := EncodeTransaction(tx)
	if err != nil {
		return nil, err
	}
	return &SwapBuild{Instruction: ix, Transaction: tx, Encoded: encoded}, nil
}

// Simulate dry-runs an encoded transaction. A program error is reported inside the
// result; only transport failures return an error.
func (svc *BuilderService) Simulate(ctx context.Context, txBase64 string) (*domain.SimulationResult, error) {
	raw, err := svc.simulator.SimulateTransaction(ctx, txBase64)
	if err != nil {
		metrics.SimulationRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("simulate: %w", err)
	}
	if !sonic.Valid(raw) {
		metrics.SimulationRequests.WithLabelValues("transport_error").Inc()
		return nil, ErrMalformedResponse
	}

	res := ParseSimulationResult(raw)
	metrics.SimulationRequests.WithLabelValues(res.Status).Inc()
	if res.Succeeded() {
		metrics.ComputeUnitsConsumed.Observe(float64(res.Units))
	} else {
		switch {
		case res.InsufficientFunds:
			metrics.SimulationFailures.WithLabelValues("insufficient_funds").Inc()
		case res.SlippageExceeded:
			metrics.SimulationFailures.WithLabelValues("slippage_exceeded").Inc()
		default:
			metrics.SimulationFailures.WithLabelValues("other").Inc()
		}
		svc.logger.Debug().Str("error", *res.Error).Uint64("slot", res.Slot).Msg("simulation rejected")
	}
	return res, nil
}
