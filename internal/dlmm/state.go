package dlmm

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	BinArraySize   = 256
	discriminatorN = 8
)

var (
	PairDiscriminator     = accountDiscriminator("Pair")
	BinArrayDiscriminator = accountDiscriminator("BinArray")

	ErrInvalidAccount = errors.New("invalid account data")
)

func accountDiscriminator(name string) [discriminatorN]byte {
	var d [discriminatorN]byte
	sum := sha256.Sum256([]byte("account:" + name))
	copy(d[:], sum[:discriminatorN])
	return d
}

type StaticFeeParameters struct {
	BaseFactor               uint16
	FilterPeriod             uint16
	DecayPeriod              uint16
	ReductionFactor          uint16
	VariableFeeControl       uint32
	MaxVolatilityAccumulator uint32
	ProtocolShare            uint16
	Space                    [2]uint8
}

type DynamicFeeParameters struct {
	TimeLastUpdated       uint64
	VolatilityAccumulator uint32
	VolatilityReference   uint32
	IDReference           uint32
	Space                 [4]uint8
}

// Pair is the on-chain liquidity-book pair account.
type Pair struct {
	Bump                 [1]uint8
	LiquidityBookConfig  solana.PublicKey
	BinStep              uint8
	BinStepSeed          [1]uint8
	TokenMintX           solana.PublicKey
	TokenMintY           solana.PublicKey
	StaticFeeParameters  StaticFeeParameters
	ActiveID             uint32
	DynamicFeeParameters DynamicFeeParameters
	ProtocolFeesX        uint64
	ProtocolFeesY        uint64
	Hook                 *solana.PublicKey `bin:"optional"`
}

type Bin struct {
	TotalSupply bin.Uint128
	ReserveX    uint64
	ReserveY    uint64
}

type BinArray struct {
	Pair  solana.PublicKey
	Bins  [BinArraySize]Bin
	Index uint32
	Space [12]uint8
}

func DecodePair(data []byte) (*Pair, error) {
	payload, err := stripDiscriminator(data, PairDiscriminator)
	if err != nil {
		return nil, fmt.Errorf("pair: %w", err)
	}
	var p Pair
	if err := bin.NewBorshDecoder(payload).Decode(&p); err != nil {
		return nil, fmt.Errorf("pair: %w: %v", ErrInvalidAccount, err)
	}
	return &p, nil
}

func DecodeBinArray(data []byte) (*BinArray, error) {
	payload, err := stripDiscriminator(data, BinArrayDiscriminator)
	if err != nil {
		return nil, fmt.Errorf("bin array: %w", err)
	}
	var b BinArray
	if err := bin.NewBorshDecoder(payload).Decode(&b); err != nil {
		return nil, fmt.Errorf("bin array: %w: %v", ErrInvalidAccount, err)
	}
	return &b, nil
}

// EncodePair serializes a pair account the way the program stores it.
func EncodePair(p *Pair) ([]byte, error) {
	return encodeAccount(PairDiscriminator, p)
}

func EncodeBinArray(b *BinArray) ([]byte, error) {
	return encodeAccount(BinArrayDiscriminator, b)
}

func encodeAccount(disc [discriminatorN]byte, v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func stripDiscriminator(data []byte, want [discriminatorN]byte) ([]byte, error) {
	if len(data) < discriminatorN {
		return nil, ErrInvalidAccount
	}
	if !bytes.Equal(data[:discriminatorN], want[:]) {
		return nil, fmt.Errorf("%w: discriminator mismatch", ErrInvalidAccount)
	}
	return data[discriminatorN:], nil
}
