package httputil

import (
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hxuan190/dlmm-gateway/internal/common"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusFailure = "failure"

	MsgInvalidAddress = "Invalid address format"
)

var ErrInvalidAddress = errors.New("invalid address format")

// Response is the envelope of every /api reply.
type Response struct {
	Status  string      `json:"status" enums:"ok,error,failure" example:"ok"`
	Message string      `json:"message" example:"quote successful"`
	Data    interface{} `json:"data"`
}

func Success(c *gin.Context, message string, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(http.StatusOK, Response{
		Status:  StatusOK,
		Message: message,
		Data:    data,
	})
}

func Error(c *gin.Context, code int, status string, message string) {
	c.AbortWithStatusJSON(code, Response{
		Status:  status,
		Message: message,
		Data:    gin.H{},
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, StatusError, message)
}

// HandleError renders err in the envelope. Upstream failures use the failure status.
func HandleError(c *gin.Context, err error) {
	he := common.AsHttpError(err)
	status := StatusError
	if he.Upstream() {
		status = StatusFailure
	}

	logger := zerolog.Ctx(c.Request.Context())
	event := logger.Warn()
	if he.StatusCode >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(he.Unwrap()).
		Int("status", he.StatusCode).
		Str("path", c.FullPath()).
		Msg(he.Message)

	Error(c, he.StatusCode, status, he.Message)
}

// ParsePublicKey accepts a base58 address of 32 to 44 characters that decodes to 32 bytes.
func ParsePublicKey(s string) (solana.PublicKey, error) {
	if len(s) < 32 || len(s) > 44 {
		return solana.PublicKey{}, ErrInvalidAddress
	}
	key, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, ErrInvalidAddress
	}
	return key, nil
}
