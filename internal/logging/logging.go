// Package logging attaches a structured logger to the eventbus.
package logging

import (
	"context"

	eventbus "github.com/quellhq/quell/internal/eventbus"
	events "github.com/quellhq/quell/internal/events"
	reqid "github.com/quellhq/quell/internal/reqid"

	"go.uber.org/zap"
)

// Setup builds a zap logger and subscribes it to request, operation, and
// subscription events. It returns a flush function for shutdown.
func Setup(dev bool) (func(), error) {
	var logger *zap.Logger
	var err error
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	Attach(logger)
	return func() { _ = logger.Sync() }, nil
}

// Attach subscribes the given logger to the default bus.
func Attach(logger *zap.Logger) {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		logger.Info("http request",
			zap.String("request_id", requestID(ctx)),
			zap.String("method", e.Request.Method),
			zap.String("path", e.Request.URL.Path),
			zap.Int("status", e.Status),
			zap.Duration("duration", e.Duration),
		)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		fields := []zap.Field{
			zap.String("request_id", requestID(ctx)),
			zap.String("operation_name", e.OperationName),
			zap.String("operation_type", e.OperationType),
			zap.Duration("duration", e.Duration),
			zap.Int("error_count", len(e.Errors)),
		}
		if len(e.Errors) > 0 {
			logger.Warn("graphql operation finished with errors", append(fields, zap.Errors("errors", e.Errors))...)
			return
		}
		logger.Info("graphql operation", fields...)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ResolveFinish) {
		if e.Err == nil {
			return
		}
		logger.Debug("resolver failed",
			zap.String("request_id", requestID(ctx)),
			zap.String("parent_type", e.ParentType),
			zap.String("field", e.FieldName),
			zap.String("path", e.Path),
			zap.Error(e.Err),
		)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.SubscriptionEvent) {
		logger.Debug("subscription event delivered",
			zap.String("operation_name", e.OperationName),
			zap.String("field", e.Field),
			zap.Int("error_count", e.ErrorCount),
		)
	})
}

func requestID(ctx context.Context) string {
	id, _ := reqid.FromContext(ctx)
	return id
}
