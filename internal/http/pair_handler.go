package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-gateway/internal/http/httputil"
)

type PairHandler struct {
	gateway Gateway
}

func NewPairHandler(gateway Gateway) *PairHandler {
	return &PairHandler{gateway: gateway}
}

func (h *PairHandler) Root() string {
	return "/pair"
}

func (h *PairHandler) SetRoutes(api *gin.RouterGroup) {
	api.GET("", h.getPair)
}

// @Summary Get pair
// @Description Returns the two tokens of a DLMM pair with their symbols and decimals, the bin step,
// @Description the active bin and the hook. The pool client is created on first use.
// @Tags pair
// @Produce json
// @Param address query string true "Pair address (base58)" example("Cpjn7PkhKs5VMJ1YAb2ebS5AEGXUgRsxQHt38U8aefK3")
// @Success 200 {object} httputil.Response{data=domain.PairInfo}
// @Failure 400 {object} httputil.Response "Invalid address format"
// @Failure 404 {object} httputil.Response "Pool not found"
// @Failure 502 {object} httputil.Response "RPC failure"
// @Router /api/pair [get]
func (h *PairHandler) getPair(c *gin.Context) {
	key, err := httputil.ParsePublicKey(c.Query("address"))
	if err != nil {
		httputil.BadRequest(c, httputil.MsgInvalidAddress)
		return
	}

	info, err := h.gateway.Pair(c.Request.Context(), key)
	if err != nil {
		httputil.HandleError(c, err)
		return
	}
	httputil.Success(c, "pair fetched", info)
}
