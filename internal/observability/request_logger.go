package observability

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/pipeline"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// ResponseLogger is a response middleware that logs every completed request,
// failed ones included, and feeds the request and error counters.
func ResponseLogger(logger *zap.Logger, metrics *Metrics) pipeline.ResponseMiddleware {
	return pipeline.ResponseMiddleware{
		Name: "response_logger",
		Run: func(rc *pipeline.RequestContext) error {
			route := rc.Route().Path
			status := rc.Status()
			duration := time.Since(rc.StartedAt())

			metrics.RecordRequest(route, rc.Method(), status, duration)
			fields := []zap.Field{
				zap.String("method", rc.Method()),
				zap.String("path", rc.Path()),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", duration),
				zap.String("request_id", rc.RequestID()),
			}
			if claims, ok := rc.Claims(); ok {
				fields = append(fields, zap.String("subject", claims.Subject))
			}

			if err := rc.Err(); err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(route, rc.Method(), domainErr.Code)
				fields = append(fields, zap.String("code", domainErr.Code), zap.Error(err))
			}
			logger.Info("request completed", fields...)
			return nil
		},
	}
}
