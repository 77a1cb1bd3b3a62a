package domain

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrAccountNotFound = errors.New("account not found")
)

// Account is the ledger-agnostic view of an on-chain account.
type Account struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// AccountMap is a batch of fetched accounts keyed by address. Missing accounts are absent.
type AccountMap map[solana.PublicKey]*Account

// PoolState is the immutable snapshot of a pool that instruction assembly and responses need.
type PoolState struct {
	Address        solana.PublicKey
	ProgramID      solana.PublicKey
	MintX          solana.PublicKey
	MintY          solana.PublicKey
	VaultX         solana.PublicKey
	VaultY         solana.PublicKey
	TokenProgramX  solana.PublicKey
	TokenProgramY  solana.PublicKey
	DecimalsX      uint8
	DecimalsY      uint8
	Hook           solana.PublicKey
	EventAuthority solana.PublicKey
	ActiveID       uint32
	BinStep        uint8
}

// HasHook reports whether the pool delegates to an external hook account.
// A pool without a hook records its own address in the hook slot.
func (p PoolState) HasHook() bool {
	return p.Hook != p.Address
}

func (p PoolState) HasMint(mint solana.PublicKey) bool {
	return mint == p.MintX || mint == p.MintY
}

// DecimalsOf returns the decimals of one of the pool's mints.
func (p PoolState) DecimalsOf(mint solana.PublicKey) uint8 {
	if mint == p.MintX {
		return p.DecimalsX
	}
	return p.DecimalsY
}

type TokenMeta struct {
	Mint         solana.PublicKey `json:"mint"`
	Symbol       string           `json:"symbol"`
	Decimals     uint8            `json:"decimals"`
	TokenProgram solana.PublicKey `json:"-"`
}

type PairInfo struct {
	PairAddress string    `json:"pair_address"`
	TokenMintX  string    `json:"token_mint_x"`
	TokenMintY  string    `json:"token_mint_y"`
	TokenA      TokenMeta `json:"token_a"`
	TokenB      TokenMeta `json:"token_b"`
	BinStep     uint8     `json:"bin_step"`
	ActiveID    uint32    `json:"active_id"`
	Hook        string    `json:"hook"`
	HasHook     bool      `json:"has_hook"`
}

type NetworkStatus struct {
	PoolClients int    `json:"pool_clients"`
	CacheTTL    string `json:"cache_ttl"`
	RPCHealthy  bool   `json:"rpc_healthy"`
}
