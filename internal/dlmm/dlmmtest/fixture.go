// Package dlmmtest builds liquidity-book pool accounts and an in-memory ledger for tests.
package dlmmtest

import (
	"bytes"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

// Fixture describes one pool and everything the ledger must hold for it.
type Fixture struct {
	ProgramID solana.PublicKey
	Pair      solana.PublicKey
	MintX     solana.PublicKey
	MintY     solana.PublicKey
	DecimalsX uint8
	DecimalsY uint8
	SymbolX   string
	SymbolY   string
	State     dlmm.Pair
	BinArrays map[uint32]*dlmm.BinArray
}

func NewFixture(activeID uint32, binStep uint8) *Fixture {
	return &Fixture{
		ProgramID: dlmm.ProgramID,
		Pair:      solana.NewWallet().PublicKey(),
		MintX:     solana.NewWallet().PublicKey(),
		MintY:     solana.NewWallet().PublicKey(),
		DecimalsX: 9,
		DecimalsY: 6,
		SymbolX:   "SOL",
		SymbolY:   "USDC",
		State: dlmm.Pair{
			BinStep: binStep,
			StaticFeeParameters: dlmm.StaticFeeParameters{
				BaseFactor:               10_000,
				FilterPeriod:             30,
				DecayPeriod:              600,
				ReductionFactor:          5_000,
				VariableFeeControl:       40_000,
				MaxVolatilityAccumulator: 350_000,
			},
			ActiveID: activeID,
		},
		BinArrays: make(map[uint32]*dlmm.BinArray),
	}
}

func (f *Fixture) WithHook(hook solana.PublicKey) *Fixture {
	f.State.Hook = &hook
	return f
}

// FillAround seeds liquidity in the radius bins on each side of the active bin:
// Y below the active bin, X above it, both in it.
func (f *Fixture) FillAround(radius uint32, reserveX, reserveY uint64) *Fixture {
	active := f.State.ActiveID
	for id := active - radius; id <= active+radius; id++ {
		b := f.bin(id)
		switch {
		case id < active:
			b.ReserveY = reserveY
		case id > active:
			b.ReserveX = reserveX
		default:
			b.ReserveX = reserveX
			b.ReserveY = reserveY
		}
	}
	return f
}

func (f *Fixture) bin(id uint32) *dlmm.Bin {
	idx := dlmm.BinArrayIndex(id)
	arr, ok := f.BinArrays[idx]
	if !ok {
		arr = &dlmm.BinArray{Pair: f.Pair, Index: idx}
		f.BinArrays[idx] = arr
	}
	return &arr.Bins[id%dlmm.BinArraySize]
}

func (f *Fixture) PairState() *dlmm.Pair {
	p := f.State
	p.TokenMintX = f.MintX
	p.TokenMintY = f.MintY
	return &p
}

func (f *Fixture) PairAccount() *domain.Account {
	data, err := dlmm.EncodePair(f.PairState())
	if err != nil {
		panic(err)
	}
	return &domain.Account{Owner: f.ProgramID, Lamports: 1, Data: data}
}

func (f *Fixture) BinArrayKey(index uint32) solana.PublicKey {
	key, err := dlmm.DeriveBinArray(f.ProgramID, f.Pair, index)
	if err != nil {
		panic(err)
	}
	return key
}

// Accounts returns every account of the pool: pair, mints, metadata and bin arrays.
func (f *Fixture) Accounts() domain.AccountMap {
	accounts := domain.AccountMap{
		f.Pair:  f.PairAccount(),
		f.MintX: MintAccount(f.DecimalsX, common.TokenProgramID),
		f.MintY: MintAccount(f.DecimalsY, common.TokenProgramID),
	}
	if f.SymbolX != "" {
		accounts[metadataKey(f.MintX)] = MetadataAccount(f.MintX, f.SymbolX)
	}
	if f.SymbolY != "" {
		accounts[metadataKey(f.MintY)] = MetadataAccount(f.MintY, f.SymbolY)
	}
	for idx, arr := range f.BinArrays {
		data, err := dlmm.EncodeBinArray(arr)
		if err != nil {
			panic(err)
		}
		accounts[f.BinArrayKey(idx)] = &domain.Account{Owner: f.ProgramID, Lamports: 1, Data: data}
	}
	return accounts
}

// UpdateBatch returns the accounts the engine asks for on refresh.
func (f *Fixture) UpdateBatch(keys []solana.PublicKey) domain.AccountMap {
	all := f.Accounts()
	batch := make(domain.AccountMap, len(keys))
	for _, k := range keys {
		if acc, ok := all[k]; ok {
			batch[k] = acc
		}
	}
	return batch
}

func MintAccount(decimals uint8, tokenProgram solana.PublicKey) *domain.Account {
	buf := new(bytes.Buffer)
	mint := token.Mint{Supply: 1_000_000_000_000, Decimals: decimals, IsInitialized: true}
	if err := bin.NewBinEncoder(buf).Encode(mint); err != nil {
		panic(err)
	}
	return &domain.Account{Owner: tokenProgram, Lamports: 1, Data: buf.Bytes()}
}

type metadataLayout struct {
	Key             uint8
	UpdateAuthority solana.PublicKey
	Mint            solana.PublicKey
	Name            string
	Symbol          string
	URI             string
}

// MetadataAccount builds a Metaplex metadata account with NUL-padded strings.
func MetadataAccount(mint solana.PublicKey, symbol string) *domain.Account {
	buf := new(bytes.Buffer)
	err := bin.NewBorshEncoder(buf).Encode(&metadataLayout{
		Key:    4,
		Mint:   mint,
		Name:   padNul(symbol+" token", 32),
		Symbol: padNul(symbol, 10),
		URI:    padNul("", 200),
	})
	if err != nil {
		panic(err)
	}
	return &domain.Account{Owner: common.MetadataProgramID, Lamports: 1, Data: buf.Bytes()}
}

func metadataKey(mint solana.PublicKey) solana.PublicKey {
	key, err := common.GetMetadataAddress(mint)
	if err != nil {
		panic(err)
	}
	return key
}

func padNul(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat("\x00", n-len(s))
}
