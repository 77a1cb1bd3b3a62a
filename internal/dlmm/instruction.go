package dlmm

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
)

var SwapDiscriminator = instructionDiscriminator("swap")

func instructionDiscriminator(name string) [discriminatorN]byte {
	var d [discriminatorN]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(d[:], sum[:discriminatorN])
	return d
}

// IsSwapForY reports whether swapping source means selling X for Y.
func IsSwapForY(source, mintX solana.PublicKey) bool {
	return source == mintX
}

type swapArgs struct {
	Amount               uint64
	OtherAmountThreshold uint64
	SwapForY             bool
	SwapType             uint8
}

// EncodeSwapData serializes the swap instruction payload.
func EncodeSwapData(params domain.SwapParams) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(SwapDiscriminator[:])
	err := bin.NewBorshEncoder(buf).Encode(&swapArgs{
		Amount:               params.Amount,
		OtherAmountThreshold: params.OtherAmountThreshold,
		SwapForY:             params.SwapForY,
		SwapType:             uint8(params.SwapMode),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
