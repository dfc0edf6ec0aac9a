package middleware

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ose-micro/mediator"
)

// Logging logs each request before it is handled and its response after.
// Failed requests are not logged here.
func Logging(log *zap.Logger, level zapcore.Level) mediator.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(ctx context.Context, request mediator.Request, next mediator.HandleFunc) (mediator.Response, error) {
		log.Log(level, "handle request",
			zap.String("request", request.RequestName()),
			zap.Stringer("request_id", request.RequestID()),
		)

		response, err := next(ctx, request)
		if err != nil {
			return nil, err
		}

		log.Log(level, "request handled",
			zap.String("request", request.RequestName()),
			zap.Stringer("request_id", request.RequestID()),
			zap.Any("response", response),
		)
		return response, nil
	}
}
