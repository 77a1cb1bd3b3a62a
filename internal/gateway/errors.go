package gateway

import (
	"context"
	"errors"

	"github.com/hxuan190/dlmm-gateway/internal/common"
	"github.com/hxuan190/dlmm-gateway/internal/dlmm"
	"github.com/hxuan190/dlmm-gateway/internal/domain"
	"github.com/hxuan190/dlmm-gateway/internal/services/builder"
)

var (
	ErrSameMint         = errors.New("source and destination mints must differ")
	ErrMintNotInPool    = errors.New("mint is not one of the pool's tokens")
	ErrZeroAmount       = errors.New("amount must be positive")
	ErrStateUnavailable = errors.New("pool state unavailable")
)

// creationError maps a failure to obtain a pool client.
func creationError(err error) *common.HttpError {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return common.HTTPErrorNotFound("Pool not found").Wrap(err)
	case errors.Is(err, dlmm.ErrInvalidAccount), errors.Is(err, dlmm.ErrInvalidMint):
		return common.HTTPErrorNotFound("Address is not a DLMM pair").Wrap(err)
	case errors.Is(err, context.Canceled):
		return common.HTTPErrorBadRequest("Request cancelled").Wrap(err)
	}
	return common.HTTPErrorBadGateway("Failed to get DLMM client").Wrap(err)
}

// operationError maps a failure while quoting or assembling against a pool.
func operationError(err error) *common.HttpError {
	var he *common.HttpError
	if errors.As(err, &he) {
		return he
	}
	switch {
	case errors.Is(err, ErrSameMint), errors.Is(err, ErrMintNotInPool),
		errors.Is(err, ErrZeroAmount), errors.Is(err, builder.ErrInvalidUser):
		return common.HTTPErrorBadRequest(err.Error()).Wrap(err)
	case errors.Is(err, dlmm.ErrBinArraysUnavailable), errors.Is(err, dlmm.ErrInsufficientLiquidity),
		errors.Is(err, dlmm.ErrMintMismatch), errors.Is(err, dlmm.ErrMathOverflow):
		return common.HTTPErrorUnprocessable(err.Error()).Wrap(err)
	case errors.Is(err, ErrStateUnavailable), errors.Is(err, builder.ErrMalformedResponse),
		errors.Is(err, context.DeadlineExceeded):
		return common.HTTPErrorBadGateway(err.Error()).Wrap(err)
	}
	return common.HTTPErrorInternalError("").Wrap(err)
}
