package domain

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

type InstructionType string

const (
	InstructionSwap            InstructionType = "swap"
	InstructionAddLiquidity    InstructionType = "add_liquidity"
	InstructionRemoveLiquidity InstructionType = "remove_liquidity"
	InstructionCreatePosition  InstructionType = "create_position"
	InstructionClosePosition   InstructionType = "close_position"

	// InstructionUnsupported is reported for known types the gateway does not build.
	InstructionUnsupported = "unsupported"
)

func ParseInstructionType(s string) (InstructionType, error) {
	switch t := InstructionType(s); t {
	case InstructionSwap, InstructionAddLiquidity, InstructionRemoveLiquidity,
		InstructionCreatePosition, InstructionClosePosition:
		return t, nil
	}
	return "", fmt.Errorf("unknown instruction type %q", s)
}

// SwapParams are the program-level arguments of a swap instruction.
type SwapParams struct {
	Amount               uint64
	OtherAmountThreshold uint64
	SwapForY             bool
	SwapMode             SwapMode
}

// SwapBinArrays are the two bin arrays around the active bin a swap may traverse.
type SwapBinArrays struct {
	Index uint32
	Lower solana.PublicKey
	Upper solana.PublicKey
}

type SwapRequest struct {
	Pair            solana.PublicKey
	SourceMint      solana.PublicKey
	DestinationMint solana.PublicKey
	InAmount        uint64
	MinOutAmount    uint64
	Signer          solana.PublicKey
}

type InstructionRequest struct {
	Type InstructionType
	Swap SwapRequest
}

type AccountMetaView struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

type InstructionView struct {
	ProgramID string            `json:"program_id"`
	Accounts  []AccountMetaView `json:"accounts"`
	Data      string            `json:"data"`
}

type SwapParamsView struct {
	AmountIn         uint64 `json:"amount_in"`
	MinimumAmountOut uint64 `json:"minimum_amount_out"`
	SourceMint       string `json:"source_mint"`
	DestinationMint  string `json:"destination_mint"`
	SwapForY         bool   `json:"swap_for_y"`
	SwapMode         string `json:"swap_mode"`
	PairAddress      string `json:"pair_address"`
}

type InstructionResult struct {
	InstructionType string           `json:"instruction_type"`
	Instruction     *InstructionView `json:"instruction,omitempty"`
	Transaction     string           `json:"transaction,omitempty"`
	Params          *SwapParamsView  `json:"params,omitempty"`
}

// SimulationResult is the normalized projection of a simulateTransaction response.
type SimulationResult struct {
	Slot              uint64          `json:"slot"`
	Status            string          `json:"status"`
	Fee               uint64          `json:"fee"`
	Units             uint64          `json:"units"`
	Error             *string         `json:"error"`
	Logs              []string        `json:"logs"`
	PreTokenBalances  json.RawMessage `json:"preTokenBalances"`
	PostTokenBalances json.RawMessage `json:"postTokenBalances"`

	InsufficientFunds    bool   `json:"insufficient_funds"`
	SlippageExceeded     bool   `json:"slippage_exceeded"`
	ComputeUnitsEstimate uint64 `json:"compute_units_estimate,omitempty"`
}

const (
	SimulationSuccess = "success"
	SimulationError   = "error"
)

func (r *SimulationResult) Succeeded() bool {
	return r.Status == SimulationSuccess
}
