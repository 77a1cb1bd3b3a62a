package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the id of the service that emitted it.
type ServiceLogger struct {
	id     string
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		id:     svc.ID(),
		logger: log.With().Str("service", svc.ID()).Logger(),
	}
}

// Ctx prefers the request-scoped logger carried by ctx, so events keep the
// request id. Without one it falls back to the service logger.
func (l *ServiceLogger) Ctx(ctx context.Context) *zerolog.Logger {
	reqLogger := zerolog.Ctx(ctx)
	if reqLogger == nil || reqLogger.GetLevel() == zerolog.Disabled || reqLogger == zerolog.DefaultContextLogger {
		return &l.logger
	}
	child := reqLogger.With().Str("service", l.id).Logger()
	return &child
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Debug() *zerolog.Event {
	return l.logger.Debug()
}
