package domain

import (
	"github.com/gagliardetto/solana-go"
)

type SwapMode uint8

const (
	ExactIn SwapMode = iota
	ExactOut
)

func (m SwapMode) String() string {
	if m == ExactOut {
		return "ExactOut"
	}
	return "ExactIn"
}

func (m SwapMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// QuoteParams is what a pricing engine needs to price one swap.
// For ExactIn, Amount is the input; for ExactOut it is the desired output.
type QuoteParams struct {
	Amount     uint64
	InputMint  solana.PublicKey
	OutputMint solana.PublicKey
	SwapMode   SwapMode
}

type Quote struct {
	InAmount  uint64
	OutAmount uint64
	FeeAmount uint64
	FeeMint   solana.PublicKey
}

type QuoteRequest struct {
	Pair            solana.PublicKey
	SourceMint      solana.PublicKey
	DestinationMint solana.PublicKey
	AmountIn        uint64
}

type QuoteResult struct {
	InAmount    uint64   `json:"in_amount"`
	OutAmount   uint64   `json:"out_amount"`
	FeeAmount   uint64   `json:"fee_amount"`
	FeeMint     string   `json:"fee_mint"`
	SwapMode    SwapMode `json:"swap_mode"`
	SwapForY    bool     `json:"swap_for_y"`
	InAmountUI  string   `json:"in_amount_ui"`
	OutAmountUI string   `json:"out_amount_ui"`
}
