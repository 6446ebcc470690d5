package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/jobs"
	"github.com/spec-kit/service-core/internal/pipeline"
)

// DemoJobs builds the background jobs attached to the home route, one per
// execution substrate.
type DemoJobs struct {
	logger     *zap.Logger
	ioDelay    time.Duration
	iterations int
}

// NewDemoJobs constructs the factories. ioDelay is how long the status
// report blocks; iterations sizes the counting loop.
func NewDemoJobs(logger *zap.Logger, ioDelay time.Duration, iterations int) *DemoJobs {
	return &DemoJobs{logger: logger, ioDelay: ioDelay, iterations: iterations}
}

// Visit is a request job that runs on the shared scheduler.
func (d *DemoJobs) Visit(rc *pipeline.RequestContext) jobs.Job {
	logger := d.logger.With(zap.String("request_id", rc.RequestID()))
	return jobs.Future("home.visit", func(context.Context) {
		logger.Info("home visited in the background")
	})
}

// StatusReport is a response job that blocks before logging the response
// status it was given.
func (d *DemoJobs) StatusReport(meta jobs.ResponseMeta) jobs.Job {
	logger, delay := d.logger, d.ioDelay
	return jobs.IOBlocking("home.status_report", func() {
		time.Sleep(delay)
		logger.Info("status report finished",
			zap.Int("status", meta.Status),
			zap.String("request_id", meta.RequestID),
		)
	})
}

// Count is a compute-only response job.
func (d *DemoJobs) Count(jobs.ResponseMeta) jobs.Job {
	logger, n := d.logger, d.iterations
	return jobs.CPUBound("home.count", func() {
		r := 0
		for i := 0; i < n; i++ {
			r++
		}
		logger.Info("count finished", zap.Int("result", r))
	})
}
