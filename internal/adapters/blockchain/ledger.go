package blockchain

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/dlmm-gateway/internal/config"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

const (
	LEDGER_SERVICE = "ledger-svc"

	// getMultipleAccounts accepts at most this many keys per call.
	maxAccountsPerCall = 100
)

// RPCLedger reads accounts and simulates transactions through a Solana JSON-RPC endpoint.
type RPCLedger struct {
	container.BaseDIInstance

	endpoint   string
	timeout    time.Duration
	rpcClient  *rpc.Client
	httpClient *gohttp.Client
}

func NewRPCLedger(endpoint string, timeout time.Duration) *RPCLedger {
	l := &RPCLedger{}
	l.init(endpoint, timeout)
	return l
}

func (l *RPCLedger) init(endpoint string, timeout time.Duration) {
	l.endpoint = endpoint
	l.timeout = timeout
	l.rpcClient = rpc.New(endpoint)
	l.httpClient = &gohttp.Client{Timeout: timeout}
}

func (l *RPCLedger) ID() string {
	return LEDGER_SERVICE
}

func (l *RPCLedger) Configure(c container.IContainer) error {
	rpcConfig, ok := c.GetConfig(config.RPC_CONFIG_KEY).(*config.RPCConfig)
	if !ok || rpcConfig == nil {
		return errors.New("invalid rpc config")
	}
	l.init(rpcConfig.RPCUrl, rpcConfig.Timeout)
	return nil
}

func (l *RPCLedger) Start() error {
	log.Info().Str("endpoint", l.endpoint).Msg("[Ledger] using rpc endpoint")
	return nil
}

func (l *RPCLedger) Stop() error {
	l.httpClient.CloseIdleConnections()
	return l.rpcClient.Close()
}

func (l *RPCLedger) GetAccount(ctx context.Context, key solana.PublicKey) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.rpcClient.GetAccountInfoWithOpts(ctx, key, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", key, err)
	}
	if res == nil || res.Value == nil {
		return nil, fmt.Errorf("%s: %w", key, domain.ErrAccountNotFound)
	}
	return toAccount(res.Value), nil
}

func (l *RPCLedger) GetMultipleAccounts(ctx context.Context, keys []solana.PublicKey) ([]*domain.Account, error) {
	out := make([]*domain.Account, 0, len(keys))
	for start := 0; start < len(keys); start += maxAccountsPerCall {
		end := min(start+maxAccountsPerCall, len(keys))
		chunk, err := l.getMultiple(ctx, keys[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (l *RPCLedger) getMultiple(ctx context.Context, keys []solana.PublicKey) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	res, err := l.rpcClient.GetMultipleAccountsWithOpts(ctx, keys, &rpc.GetMultipleAccountsOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("getMultipleAccounts: %w", err)
	}
	if res == nil || len(res.Value) != len(keys) {
		return nil, fmt.Errorf("getMultipleAccounts: expected %d accounts", len(keys))
	}
	out := make([]*domain.Account, len(keys))
	for i, acc := range res.Value {
		if acc != nil {
			out[i] = toAccount(acc)
		}
	}
	return out, nil
}

func (l *RPCLedger) GetHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	status, err := l.rpcClient.GetHealth(ctx)
	if err != nil {
		return err
	}
	if status != rpc.HealthOk {
		return fmt.Errorf("rpc health: %s", status)
	}
	return nil
}

func toAccount(acc *rpc.Account) *domain.Account {
	out := &domain.Account{
		Owner:    acc.Owner,
		Lamports: acc.Lamports,
	}
	if acc.Data != nil {
		out.Data = acc.Data.GetBinary()
	}
	return out
}
