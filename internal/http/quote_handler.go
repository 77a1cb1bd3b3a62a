package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/http/httputil"
)

type QuoteHandler struct {
	gateway Gateway
}

func NewQuoteHandler(gateway Gateway) *QuoteHandler {
	return &QuoteHandler{gateway: gateway}
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

func (h *QuoteHandler) SetRoutes(api *gin.RouterGroup) {
	api.POST("", h.postQuote)
}

// QuoteRequest asks for a quote of one swap on one pair
type QuoteRequest struct {
	// Pair address (base58)
	PairAddress string `json:"pair_address" binding:"required" example:"Cpjn7PkhKs5VMJ1YAb2ebS5AEGXUgRsxQHt38U8aefK3"`

	// Mint sold by the trader
	SourceMint string `json:"source_mint" binding:"required" example:"So11111111111111111111111111111111111111112"`

	// Mint bought by the trader
	DestinationMint string `json:"destination_mint" binding:"required" example:"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"`

	// Amount in the smallest unit of the source mint
	AmountIn uint64 `json:"amount_in" binding:"required" example:"1000000000"`
}

func (r *QuoteRequest) toDomain() (domain.QuoteRequest, bool) {
	pair, err := httputil.ParsePublicKey(r.PairAddress)
	if err != nil {
		return domain.QuoteRequest{}, false
	}
	source, err := httputil.ParsePublicKey(r.SourceMint)
	if err != nil {
		return domain.QuoteRequest{}, false
	}
	destination, err := httputil.ParsePublicKey(r.DestinationMint)
	if err != nil {
		return domain.QuoteRequest{}, false
	}
	return domain.QuoteRequest{
		Pair:            pair,
		SourceMint:      source,
		DestinationMint: destination,
		AmountIn:        r.AmountIn,
	}, true
}

// @Summary Quote a swap
// @Description Prices a swap on a DLMM pair from the locally cached bin state, refreshing it first when stale.
// @Description The swap mode is derived from the pair's mint ordering and reported back with the quote.
// @Description
// @Description **Amount Format:** smallest token units (lamports for SOL, base units for SPL tokens)
// @Tags quote
// @Accept json
// @Produce json
// @Param request body QuoteRequest true "Quote request"
// @Success 200 {object} httputil.Response{data=domain.QuoteResult}
// @Failure 400 {object} httputil.Response "Malformed request"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 422 {object} httputil.Response "Not enough liquidity in the loaded bins"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/quote [post]
func (h *QuoteHandler) postQuote(c *gin.Context) {
	var body QuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	req, ok := body.toDomain()
	if !ok {
		httputil.BadRequest(c, httputil.MsgInvalidAddress)
		return
	}

	res, err := h.gateway.Quote(c.Request.Context(), req)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, "quote successful", res)
}
