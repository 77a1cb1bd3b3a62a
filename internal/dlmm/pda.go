package dlmm

import (
	"encoding/binary"
	"sync"

	"github.com/gagliardetto/solana-go"
)

const (
	BinArraySeed       = "bin_array"
	EventAuthoritySeed = "__event_authority"
)

var (
	ProgramID = solana.MustPublicKeyFromBase58("1qbkdrr3z4ryLA7pZykqxvxWPoeifcVKo6ZG9CfkvVE")
)

type binArrayKey struct {
	program solana.PublicKey
	owner   solana.PublicKey
	index   uint32
}

var (
	binArrayPDACache   = make(map[binArrayKey]solana.PublicKey)
	binArrayPDACacheMu sync.RWMutex

	eventAuthorityCache   = make(map[solana.PublicKey]solana.PublicKey)
	eventAuthorityCacheMu sync.RWMutex
)

// BinArrayIndex returns the index of the bin array holding the given bin id.
func BinArrayIndex(binID uint32) uint32 {
	return binID / BinArraySize
}

// DeriveBinArray derives ["bin_array", owner, index LE] under program.
// owner is the pair for pool bin arrays and the hook account for hook bin arrays.
func DeriveBinArray(program, owner solana.PublicKey, index uint32) (solana.PublicKey, error) {
	key := binArrayKey{program: program, owner: owner, index: index}

	binArrayPDACacheMu.RLock()
	if cached, ok := binArrayPDACache[key]; ok {
		binArrayPDACacheMu.RUnlock()
		return cached, nil
	}
	binArrayPDACacheMu.RUnlock()

	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(BinArraySeed), owner[:], idx[:]},
		program,
	)
	if err != nil {
		return solana.PublicKey{}, err
	}

	binArrayPDACacheMu.Lock()
	binArrayPDACache[key] = addr
	binArrayPDACacheMu.Unlock()
	return addr, nil
}

func DeriveEventAuthority(program solana.PublicKey) (solana.PublicKey, error) {
	eventAuthorityCacheMu.RLock()
	if cached, ok := eventAuthorityCache[program]; ok {
		eventAuthorityCacheMu.RUnlock()
		return cached, nil
	}
	eventAuthorityCacheMu.RUnlock()

	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(EventAuthoritySeed)}, program)
	if err != nil {
		return solana.PublicKey{}, err
	}

	eventAuthorityCacheMu.Lock()
	eventAuthorityCache[program] = addr
	eventAuthorityCacheMu.Unlock()
	return addr, nil
}
