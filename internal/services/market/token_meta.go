package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/metrics"
)

// TokenMetaResolver resolves decimals and symbols of mints, caching results with expiry.
type TokenMetaResolver struct {
	ledger Ledger
	cache  *expirable.LRU[solana.PublicKey, domain.TokenMeta]
}

func NewTokenMetaResolver(ledger Ledger, size int, ttl time.Duration) *TokenMetaResolver {
	return &TokenMetaResolver{
		ledger: ledger,
		cache:  expirable.NewLRU[solana.PublicKey, domain.TokenMeta](size, nil, ttl),
	}
}

// Resolve returns metadata in the order of mints. Uncached mints and their
// metadata accounts are fetched in a single batch.
func (r *TokenMetaResolver) Resolve(ctx context.Context, mints ...solana.PublicKey) ([]domain.TokenMeta, error) {
	out := make([]domain.TokenMeta, len(mints))
	var missing []int
	for i, mint := range mints {
		if meta, ok := r.cache.Get(mint); ok {
			metrics.TokenMetaCacheHits.Inc()
			out[i] = meta
			continue
		}
		metrics.TokenMetaCacheMisses.Inc()
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	keys := make([]solana.PublicKey, 0, 2*len(missing))
	for _, i := range missing {
		keys = append(keys, mints[i])
	}
	for _, i := range missing {
		md, err := common.GetMetadataAddress(mints[i])
		if err != nil {
			return nil, err
		}
		keys = append(keys, md)
	}

	accounts, err := r.ledger.GetMultipleAccounts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch token metadata: %w", err)
	}
	if len(accounts) != len(keys) {
		return nil, fmt.Errorf("fetch token metadata: ledger returned %d accounts for %d keys", len(accounts), len(keys))
	}

	n := len(missing)
	for j, i := range missing {
		meta, err := decodeTokenMeta(mints[i], accounts[j], accounts[n+j])
		if err != nil {
			return nil, err
		}
		r.cache.Add(mints[i], meta)
		out[i] = meta
	}
	return out, nil
}

type metadataHeader struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
}

func decodeTokenMeta(mint solana.PublicKey, mintAcc, metaAcc *domain.Account) (domain.TokenMeta, error) {
	if mintAcc == nil {
		return domain.TokenMeta{}, fmt.Errorf("mint %s: %w", mint, domain.ErrAccountNotFound)
	}
	if !common.IsTokenProgram(mintAcc.Owner) {
		return domain.TokenMeta{}, fmt.Errorf("mint %s is owned by %s, not a token program", mint, mintAcc.Owner)
	}
	var m token.Mint
	if err := bin.NewBinDecoder(mintAcc.Data).Decode(&m); err != nil {
		return domain.TokenMeta{}, fmt.Errorf("decode mint %s: %w", mint, err)
	}

	symbol := ""
	if metaAcc != nil {
		var h metadataHeader
		if err := bin.NewBorshDecoder(metaAcc.Data).Decode(&h); err == nil && h.Mint == mint {
			symbol = strings.TrimSpace(strings.TrimRight(h.Symbol, "\x00"))
		}
	}
	if symbol == "" {
		symbol = shortSymbol(mint)
	}

	return domain.TokenMeta{
		Mint:         mint,
		Symbol:       symbol,
		Decimals:     m.Decimals,
		TokenProgram: mintAcc.Owner,
	}, nil
}

func shortSymbol(mint solana.PublicKey) string {
	s := mint.String()
	if len(s) <= 8 {
		return s
	}
	return s[:4] + "..." + s[len(s)-4:]
}
