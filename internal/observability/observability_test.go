package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/service-core/internal/config"
	"github.com/spec-kit/service-core/internal/pipeline"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "nonsense"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestResponseLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()
	logMW := ResponseLogger(zap.New(core), metrics)

	table, err := pipeline.NewTable(
		pipeline.Route{
			Method:   http.MethodGet,
			Path:     "/ok/:id",
			Response: []pipeline.ResponseMiddleware{logMW},
			Handler:  func(rc *pipeline.RequestContext) error { return rc.Ctx().SendString("ok") },
		},
		pipeline.Route{
			Method: http.MethodGet,
			Path:   "/denied",
			Request: []pipeline.RequestMiddleware{{Name: "deny", Run: func(*pipeline.RequestContext) (any, error) {
				return nil, apperrors.NewForbidden("no")
			}}},
			Response: []pipeline.ResponseMiddleware{logMW},
			Handler:  func(rc *pipeline.RequestContext) error { return nil },
		},
	)
	require.NoError(t, err)
	app := fiber.New()
	table.Mount(app, pipeline.NewExecutor(nil, nil, nil))

	for _, target := range []string{"/ok/1", "/ok/2", "/denied"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 3)
	assert.EqualValues(t, http.StatusForbidden, entries[2].ContextMap()["status"])
	assert.Equal(t, "FORBIDDEN", entries[2].ContextMap()["code"])

	snap := metrics.Snapshot()
	assert.EqualValues(t, 2, snap.Requests["/ok/:id|GET|200"])
	assert.EqualValues(t, 1, snap.Requests["/denied|GET|403"])
	assert.EqualValues(t, 1, snap.Errors["/denied|GET|FORBIDDEN"])
}

func TestMetricsJobsAndNil(t *testing.T) {
	m := NewMetrics()
	m.RecordJob("cpu_bound", "completed", 0)
	m.RecordJob("cpu_bound", "completed", 0)
	m.RecordJob("future", "panicked", 0)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.Jobs["cpu_bound|completed"])
	assert.EqualValues(t, 1, snap.Jobs["future|panicked"])

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordRequest("/", "GET", 200, 0)
		nilMetrics.RecordError("/", "GET", "X")
		nilMetrics.RecordJob("future", "completed", 0)
	})
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}
