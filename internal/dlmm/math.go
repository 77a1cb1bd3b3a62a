package dlmm

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	BasisPointMax = 10_000
	// Fee rates are expressed with 1e9 precision.
	FeePrecision = 1_000_000_000
	MaxFeeRate   = 100_000_000
	CenterBinID  = 1 << 23

	variableFeeDenominator = 100_000_000_000
)

var (
	ErrMathOverflow = errors.New("math overflow")

	u256One      = uint256.NewInt(1)
	u256Q64      = new(uint256.Int).Lsh(u256One, 64)
	u256Q128     = new(uint256.Int).Lsh(u256One, 128)
	u256BpsMax   = uint256.NewInt(BasisPointMax)
	u256Max64    = uint256.NewInt(^uint64(0))
	u256FeeScale = uint256.NewInt(FeePrecision)
)

// PriceFromID returns the Q64.64 price of a bin: (1 + binStep/10^4)^(id - 2^23).
func PriceFromID(id uint32, binStep uint8) (*uint256.Int, error) {
	base := new(uint256.Int).Lsh(uint256.NewInt(uint64(binStep)), 64)
	base.Div(base, u256BpsMax)
	base.Add(base, u256Q64)

	exp := int64(id) - CenterBinID
	invert := exp < 0
	if invert {
		exp = -exp
	}

	result := new(uint256.Int).Set(u256Q64)
	square := base
	for exp > 0 {
		if exp&1 == 1 {
			if _, overflow := result.MulOverflow(result, square); overflow {
				return nil, ErrMathOverflow
			}
			result.Rsh(result, 64)
		}
		exp >>= 1
		if exp > 0 {
			if _, overflow := square.MulOverflow(square, square); overflow {
				return nil, ErrMathOverflow
			}
			square.Rsh(square, 64)
		}
	}

	if invert {
		if result.IsZero() {
			return nil, ErrMathOverflow
		}
		result = new(uint256.Int).Div(u256Q128, result)
	}
	if result.IsZero() {
		return nil, ErrMathOverflow
	}
	return result, nil
}

// FeeRate is base plus variable fee for the pair's current volatility, capped at MaxFeeRate.
func FeeRate(p *Pair) uint64 {
	s := p.StaticFeeParameters
	base := uint64(s.BaseFactor) * uint64(p.BinStep) * 10

	var variable uint64
	if s.VariableFeeControl > 0 {
		prod := uint256.NewInt(uint64(p.DynamicFeeParameters.VolatilityAccumulator) * uint64(p.BinStep))
		v := new(uint256.Int).Mul(prod, prod)
		v.Mul(v, uint256.NewInt(uint64(s.VariableFeeControl)))
		v.Add(v, uint256.NewInt(variableFeeDenominator-1))
		v.Div(v, uint256.NewInt(variableFeeDenominator))
		if v.Gt(uint256.NewInt(MaxFeeRate)) {
			variable = MaxFeeRate
		} else {
			variable = v.Uint64()
		}
	}

	if total := base + variable; total < MaxFeeRate {
		return total
	}
	return MaxFeeRate
}

// feeFromGross is the fee charged on an input amount that already includes it.
func feeFromGross(amount, rate uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(rate))
	return divCeil(v, u256FeeScale)
}

// feeForNet is the fee to add on top of a net input amount.
func feeForNet(amount, rate uint64) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(rate))
	return divCeil(v, uint256.NewInt(FeePrecision-rate))
}

// mulShr computes amount*price >> 64, saturating at u64.
func mulShr(amount uint64, price *uint256.Int, roundUp bool) uint64 {
	v := new(uint256.Int).Mul(uint256.NewInt(amount), price)
	if roundUp {
		return divCeil(v, u256Q64)
	}
	return saturate(v.Rsh(v, 64))
}

// shlDiv computes (amount << 64) / price, saturating at u64.
func shlDiv(amount uint64, price *uint256.Int, roundUp bool) uint64 {
	v := new(uint256.Int).Lsh(uint256.NewInt(amount), 64)
	if roundUp {
		return divCeil(v, price)
	}
	return saturate(v.Div(v, price))
}

func divCeil(num, den *uint256.Int) uint64 {
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(num, den, r)
	if !r.IsZero() {
		q.Add(q, u256One)
	}
	return saturate(q)
}

func saturate(v *uint256.Int) uint64 {
	if v.Gt(u256Max64) {
		return ^uint64(0)
	}
	return v.Uint64()
}

type binSwap struct {
	amountIn  uint64
	amountOut uint64
	fee       uint64
}

// swapExactInBin consumes up to amountIn against one bin.
func swapExactInBin(b *Bin, price *uint256.Int, rate, amountIn uint64, swapForY bool) binSwap {
	reserveOut := b.ReserveX
	if swapForY {
		reserveOut = b.ReserveY
	}
	if reserveOut == 0 || amountIn == 0 {
		return binSwap{}
	}

	var maxInNet uint64
	if swapForY {
		maxInNet = shlDiv(reserveOut, price, true)
	} else {
		maxInNet = mulShr(reserveOut, price, true)
	}
	maxFee := feeForNet(maxInNet, rate)

	if maxIn := maxInNet + maxFee; maxIn >= maxInNet && amountIn >= maxIn {
		return binSwap{amountIn: maxIn, amountOut: reserveOut, fee: maxFee}
	}

	fee := feeFromGross(amountIn, rate)
	net := amountIn - fee
	var out uint64
	if swapForY {
		out = mulShr(net, price, false)
	} else {
		out = shlDiv(net, price, false)
	}
	if out > reserveOut {
		out = reserveOut
	}
	return binSwap{amountIn: amountIn, amountOut: out, fee: fee}
}

// swapExactOutBin produces up to amountOut from one bin.
func swapExactOutBin(b *Bin, price *uint256.Int, rate, amountOut uint64, swapForY bool) binSwap {
	reserveOut := b.ReserveX
	if swapForY {
		reserveOut = b.ReserveY
	}
	if reserveOut == 0 || amountOut == 0 {
		return binSwap{}
	}

	out := amountOut
	if out > reserveOut {
		out = reserveOut
	}
	var inNet uint64
	if swapForY {
		inNet = shlDiv(out, price, true)
	} else {
		inNet = mulShr(out, price, true)
	}
	fee := feeForNet(inNet, rate)
	return binSwap{amountIn: inNet + fee, amountOut: out, fee: fee}
}
