package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/http/httputil"
)

type SwapHandler struct {
	gateway Gateway
}

func NewSwapHandler(gateway Gateway) *SwapHandler {
	return &SwapHandler{gateway: gateway}
}

func (h *SwapHandler) Root() string {
	return ""
}

func (h *SwapHandler) SetRoutes(api *gin.RouterGroup) {
	api.POST("/instruction", h.postInstruction)
	api.POST("/simulate_swap", h.postSimulateSwap)
}

// SwapInstructionParams are the swap arguments of an instruction request
type SwapInstructionParams struct {
	SourceMint      string `json:"source_mint" example:"So11111111111111111111111111111111111111112"`
	DestinationMint string `json:"destination_mint" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Exact input amount in smallest units
	InAmount uint64 `json:"in_amount" example:"1000000000"`

	// Minimum output accepted, passed to the program as the slippage threshold
	MinOutAmount uint64 `json:"min_out_amount" example:"145000000"`

	// Wallet that signs and pays
	Signer string `json:"signer" example:"9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"`
}

// InstructionRequest selects an instruction type and carries its params
type InstructionRequest struct {
	InstructionType string                `json:"instruction_type" binding:"required" enums:"swap,add_liquidity,remove_liquidity,create_position,close_position" example:"swap"`
	PairAddress     string                `json:"pair_address" binding:"required" example:"Cpjn7PkhKs5VMJ1YAb2ebS5AEGXUgRsxQHt38U8aefK3"`
	Params          SwapInstructionParams `json:"params"`
}

// SimulationResponse wraps the normalized simulation result
type SimulationResponse struct {
	InstructionType string                   `json:"instruction_type" example:"swap"`
	Response        *domain.SimulationResult `json:"response"`
}

func (r *InstructionRequest) swapRequest() (domain.SwapRequest, bool) {
	pair, err := httputil.ParsePublicKey(r.PairAddress)
	if err != nil {
		return domain.SwapRequest{}, false
	}
	source, err := httputil.ParsePublicKey(r.Params.SourceMint)
	if err != nil {
		return domain.SwapRequest{}, false
	}
	destination, err := httputil.ParsePublicKey(r.Params.DestinationMint)
	if err != nil {
		return domain.SwapRequest{}, false
	}
	signer, err := httputil.ParsePublicKey(r.Params.Signer)
	if err != nil {
		return domain.SwapRequest{}, false
	}
	return domain.SwapRequest{
		Pair:            pair,
		SourceMint:      source,
		DestinationMint: destination,
		InAmount:        r.Params.InAmount,
		MinOutAmount:    r.Params.MinOutAmount,
		Signer:          signer,
	}, true
}

// parse binds the body and returns the instruction type and, for swaps, the swap request.
func (h *SwapHandler) parse(c *gin.Context) (domain.InstructionRequest, bool) {
	var body InstructionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return domain.InstructionRequest{}, false
	}
	typ, err := domain.ParseInstructionType(body.InstructionType)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return domain.InstructionRequest{}, false
	}
	if typ != domain.InstructionSwap {
		return domain.InstructionRequest{Type: typ}, true
	}
	swap, ok := body.swapRequest()
	if !ok {
		httputil.BadRequest(c, httputil.MsgInvalidAddress)
		return domain.InstructionRequest{}, false
	}
	return domain.InstructionRequest{Type: typ, Swap: swap}, true
}

// @Summary Build an instruction
// @Description Assembles a swap instruction for the pair with its full account list and payload, and the
// @Description unsigned transaction used for simulation. The transaction carries a placeholder signature
// @Description and must not be broadcast. Other instruction types are answered as unsupported.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body InstructionRequest true "Instruction request"
// @Success 200 {object} httputil.Response{data=domain.InstructionResult}
// @Failure 400 {object} httputil.Response "Malformed request"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 422 {object} httputil.Response "Bin arrays unavailable"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/instruction [post]
func (h *SwapHandler) postInstruction(c *gin.Context) {
	req, ok := h.parse(c)
	if !ok {
		return
	}

	res, err := h.gateway.Instruction(c.Request.Context(), req)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	if res.InstructionType == domain.InstructionUnsupported {
		httputil.Success(c, "unsupported instruction type", res)
		return
	}
	httputil.Success(c, "Instruction fetched successfully", res)
}

// @Summary Simulate a swap
// @Description Assembles the swap and dry-runs it on the RPC node with signature verification off and the
// @Description blockhash replaced. A program error is a normal result with status "error".
// @Tags swap
// @Accept json
// @Produce json
// @Param request body InstructionRequest true "Swap request"
// @Success 200 {object} httputil.Response{data=SimulationResponse}
// @Failure 400 {object} httputil.Response "Malformed request"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/simulate_swap [post]
func (h *SwapHandler) postSimulateSwap(c *gin.Context) {
	req, ok := h.parse(c)
	if !ok {
		return
	}
	if req.Type != domain.InstructionSwap {
		httputil.Success(c, "unsupported instruction type", gin.H{"instruction_type": domain.InstructionUnsupported})
		return
	}

	res, err := h.gateway.SimulateSwap(c.Request.Context(), req.Swap)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, "Simulation successful", SimulationResponse{
		InstructionType: string(domain.InstructionSwap),
		Response:        res,
	})
}
