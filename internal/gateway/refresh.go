package gateway

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/hxuan190/dlmm-gateway/internal/metrics"
	"github.com/hxuan190/dlmm-gateway/internal/services/market"
)

// ensureFresh refreshes a stale client with a bounded number of attempts. Failures
// are logged and the request goes on with the last good snapshot. It only fails
// when the client has never been refreshed, since there is no snapshot to use.
func (svc *Service) ensureFresh(ctx context.Context, c *market.PoolClient) error {
	conf := svc.marketSvc.Config()
	if !c.IsStale(conf.CacheTTL) {
		return nil
	}

	attempt := 0
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			attempt++
			return struct{}{}, svc.marketSvc.RefreshClient(ctx, c, metrics.RefreshTriggerRequest)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(conf.RefreshRetryInterval)),
		backoff.WithMaxTries(uint(conf.RefreshAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			svc.logger.Ctx(ctx).Warn().Err(err).
				Str("pair", c.Key().String()).
				Int("attempt", attempt).
				Dur("retryIn", next).
				Msg("failed to update DLMM client")
		}),
	)
	if err == nil {
		return nil
	}

	if c.LastRefreshed().IsZero() {
		return ErrStateUnavailable
	}
	svc.logger.Ctx(ctx).Warn().Err(err).
		Str("pair", c.Key().String()).
		Time("lastRefreshed", c.LastRefreshed()).
		Msg("refresh attempts exhausted, serving last snapshot")
	return nil
}
