package http

import (
	gohttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/dlmm-gateway/internal/http/httputil"
)

type NetworkHandler struct {
	gateway Gateway
}

func NewNetworkHandler(gateway Gateway) *NetworkHandler {
	return &NetworkHandler{gateway: gateway}
}

func (h *NetworkHandler) Root() string {
	return ""
}

func (h *NetworkHandler) SetRoutes(api *gin.RouterGroup) {
	api.GET("/network/status", h.getStatus)
	api.GET("/ping", h.ping)
}

// @Summary Network status
// @Description Reports the number of cached pool clients, the pool cache TTL and whether the RPC node is healthy.
// @Tags network
// @Produce json
// @Success 200 {object} httputil.Response{data=domain.NetworkStatus}
// @Router /api/network/status [get]
func (h *NetworkHandler) getStatus(c *gin.Context) {
	httputil.Success(c, "network status", h.gateway.NetworkStatus(c.Request.Context()))
}

// @Summary Ping
// @Tags network
// @Produce plain
// @Success 200 {string} string "pong"
// @Router /api/ping [get]
func (h *NetworkHandler) ping(c *gin.Context) {
	c.String(gohttp.StatusOK, "pong")
}
