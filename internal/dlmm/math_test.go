package dlmm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceFromID_CenterIsOne(t *testing.T) {
	for _, step := range []uint8{1, 10, 100, 250} {
		price, err := PriceFromID(CenterBinID, step)
		require.NoError(t, err)
		assert.True(t, price.Eq(u256Q64), "bin step %d", step)
	}
}

func TestPriceFromID_Monotonic(t *testing.T) {
	prev, err := PriceFromID(CenterBinID-50, 25)
	require.NoError(t, err)
	for id := uint32(CenterBinID - 49); id <= CenterBinID+50; id++ {
		price, err := PriceFromID(id, 25)
		require.NoError(t, err)
		assert.True(t, price.Gt(prev), "price must increase at bin %d", id)
		prev = price
	}
}

func TestPriceFromID_Reciprocal(t *testing.T) {
	up, err := PriceFromID(CenterBinID+100, 20)
	require.NoError(t, err)
	down, err := PriceFromID(CenterBinID-100, 20)
	require.NoError(t, err)

	// up * down should be 1.0 in Q128 up to rounding.
	product := new(uint256.Int).Mul(up, down)
	product.Rsh(product, 64)
	diff := new(uint256.Int)
	if product.Gt(u256Q64) {
		diff.Sub(product, u256Q64)
	} else {
		diff.Sub(u256Q64, product)
	}
	tolerance := new(uint256.Int).Rsh(u256Q64, 40)
	assert.True(t, diff.Lt(tolerance), "reciprocal drift %s", diff.Dec())
}

func TestPriceFromID_Overflow(t *testing.T) {
	_, err := PriceFromID(^uint32(0), 250)
	assert.ErrorIs(t, err, ErrMathOverflow)
}

func TestFeeRate(t *testing.T) {
	p := &Pair{BinStep: 1}
	p.StaticFeeParameters.BaseFactor = 10_000
	assert.Equal(t, uint64(100_000), FeeRate(p))

	p.StaticFeeParameters.VariableFeeControl = 40_000
	p.DynamicFeeParameters.VolatilityAccumulator = 100_000
	assert.Greater(t, FeeRate(p), uint64(100_000))

	p.BinStep = 250
	p.DynamicFeeParameters.VolatilityAccumulator = 4_000_000
	assert.Equal(t, uint64(MaxFeeRate), FeeRate(p))
}

func TestSwapExactInBin_PartialFill(t *testing.T) {
	b := &Bin{ReserveX: 1_000_000_000, ReserveY: 1_000_000_000}
	got := swapExactInBin(b, u256Q64, 100_000, 1_000_000, true)
	assert.Equal(t, uint64(1_000_000), got.amountIn)
	assert.Equal(t, uint64(100), got.fee)
	assert.Equal(t, uint64(999_900), got.amountOut)
}

func TestSwapExactInBin_DrainsBin(t *testing.T) {
	b := &Bin{ReserveY: 1_000}
	got := swapExactInBin(b, u256Q64, 100_000, 1_000_000, true)
	assert.Equal(t, uint64(1_000), got.amountOut)
	assert.Equal(t, uint64(1), got.fee)
	assert.Equal(t, uint64(1_001), got.amountIn)
}

func TestSwapExactOutBin(t *testing.T) {
	b := &Bin{ReserveX: 1_000_000_000}
	got := swapExactOutBin(b, u256Q64, 100_000, 999_900, false)
	assert.Equal(t, uint64(999_900), got.amountOut)
	assert.Equal(t, uint64(100), got.fee)
	assert.Equal(t, uint64(1_000_000), got.amountIn)
}

func TestSwapInBin_EmptyReserve(t *testing.T) {
	b := &Bin{ReserveX: 500}
	assert.Equal(t, binSwap{}, swapExactInBin(b, u256Q64, 100_000, 10, true))
	assert.Equal(t, binSwap{}, swapExactOutBin(b, u256Q64, 100_000, 10, true))
}
