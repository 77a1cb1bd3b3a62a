package market

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sourcegraph/conc/pool"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-gateway/internal/adapters/blockchain"
	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/metrics"
	"github.com/hxuan190/dlmm-gateway/internal/services"
)

const (
	MARKET_SERVICE = "market-svc"

	warmupConcurrency = 8
)

// Service owns the pool client registry, its refresh scheduler and the token metadata cache.
type Service struct {
	container.BaseDIInstance

	conf      *config.DLMMConfig
	ledger    Ledger
	factory   EngineFactory
	registry  *Registry
	scheduler *Scheduler
	tokens    *TokenMetaResolver
	logger    *services.ServiceLogger

	warmCancel context.CancelFunc
	warmDone   chan struct{}
}

// NewService builds a ready service outside the container. A nil factory loads
// pools through the ledger with dlmm.Load.
func NewService(conf *config.DLMMConfig, ledger Ledger, factory EngineFactory) *Service {
	svc := &Service{}
	svc.init(conf, ledger, factory)
	return svc
}

func (svc *Service) ID() string {
	return MARKET_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	conf, ok := c.GetConfig(config.DLMM_CONFIG_KEY).(*config.DLMMConfig)
	if !ok || conf == nil {
		return errors.New("invalid dlmm config")
	}
	ledger, ok := c.Instance(blockchain.LEDGER_SERVICE).(*blockchain.RPCLedger)
	if !ok || ledger == nil {
		return errors.New("ledger service not registered")
	}
	svc.init(conf, ledger, nil)
	return nil
}

func (svc *Service) init(conf *config.DLMMConfig, ledger Ledger, factory EngineFactory) {
	svc.conf = conf
	svc.ledger = ledger
	svc.logger = services.NewServiceLogger(svc)
	if factory == nil {
		factory = svc.loadEngine
	}
	svc.factory = factory

	svc.scheduler = NewScheduler(conf.CacheTTL, func(ctx context.Context, c *PoolClient) error {
		return svc.RefreshClient(ctx, c, metrics.RefreshTriggerScheduled)
	})
	svc.registry = NewRegistry(ledger, factory, RegistryOptions{
		MaxClients: conf.MaxPoolClients,
		OnCreate:   svc.scheduler.Schedule,
		OnEvict:    svc.scheduler.Unschedule,
	})
	svc.tokens = NewTokenMetaResolver(ledger, conf.TokenMetaSize, conf.TokenMetaTTL)
}

func (svc *Service) loadEngine(ctx context.Context, key solana.PublicKey) (Engine, error) {
	engine, err := dlmm.Load(ctx, svc.ledger, svc.conf.ProgramID, key)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

func (svc *Service) Start() error {
	svc.logger.Info().
		Str("programID", svc.conf.ProgramID.String()).
		Dur("cacheTTL", svc.conf.CacheTTL).
		Int("maxPoolClients", svc.conf.MaxPoolClients).
		Bool("scheduler", svc.scheduler.Enabled()).
		Msg("market service started")

	if len(svc.conf.WarmPools) == 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	svc.warmCancel = cancel
	svc.warmDone = make(chan struct{})
	go func() {
		defer close(svc.warmDone)
		svc.Warm(ctx, svc.conf.WarmPools)
	}()
	return nil
}

func (svc *Service) Stop() error {
	if svc.warmCancel != nil {
		svc.warmCancel()
		<-svc.warmDone
	}
	svc.scheduler.Stop()
	svc.logger.Info().Int("poolClients", svc.registry.Len()).Msg("market service stopped")
	return nil
}

// Warm creates and refreshes the given pools concurrently. Failures are logged
// and do not stop the others.
func (svc *Service) Warm(ctx context.Context, keys []solana.PublicKey) {
	p := pool.New().WithMaxGoroutines(warmupConcurrency)
	for _, key := range keys {
		p.Go(func() {
			c, err := svc.registry.GetOrCreate(ctx, key)
			if err != nil {
				svc.logger.Warn().Err(err).Str("pair", key.String()).Msg("warm-up creation failed")
				return
			}
			if err := svc.RefreshClient(ctx, c, metrics.RefreshTriggerWarmup); err != nil {
				svc.logger.Warn().Err(err).Str("pair", key.String()).Msg("warm-up refresh failed")
			}
		})
	}
	p.Wait()
	svc.logger.Info().Int("pools", len(keys)).Int("poolClients", svc.registry.Len()).Msg("warm-up finished")
}

// Client returns the single pool client of key, creating it on first use.
func (svc *Service) Client(ctx context.Context, key solana.PublicKey) (*PoolClient, error) {
	return svc.registry.GetOrCreate(ctx, key)
}

// RefreshClient runs one refresh attempt bounded by the configured refresh timeout.
func (svc *Service) RefreshClient(ctx context.Context, c *PoolClient, trigger string) error {
	ctx, cancel := context.WithTimeout(ctx, svc.conf.RefreshTimeout)
	defer cancel()

	start := time.Now()
	err := c.Refresh(ctx)
	metrics.PoolRefreshDuration.Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.PoolRefreshes.WithLabelValues(trigger, status).Inc()
	return err
}

func (svc *Service) TokenMeta(ctx context.Context, mints ...solana.PublicKey) ([]domain.TokenMeta, error) {
	return svc.tokens.Resolve(ctx, mints...)
}

func (svc *Service) PoolCount() int {
	return svc.registry.Len()
}

func (svc *Service) CacheTTL() time.Duration {
	return svc.conf.CacheTTL
}

func (svc *Service) Config() *config.DLMMConfig {
	return svc.conf
}
