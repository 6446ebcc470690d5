package pipeline

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/jobs"
)

// staticExtractor maps raw Authorization headers to claims.
type staticExtractor map[string]*auth.Claims

func (s staticExtractor) Extract(_ context.Context, header string) (*auth.Claims, error) {
	if header == "" {
		return nil, auth.ErrNoCredential
	}
	claims, ok := s[header]
	if !ok {
		return nil, auth.ErrMalformed
	}
	return claims, nil
}

type jobRecorder struct {
	mu   sync.Mutex
	jobs []jobs.Job
}

func (r *jobRecorder) Submit(job jobs.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

func (r *jobRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.Name)
	}
	return out
}

func mount(t *testing.T, exec *Executor, routes ...Route) *fiber.App {
	t.Helper()
	table, err := NewTable(routes...)
	require.NoError(t, err)
	app := fiber.New()
	table.Mount(app, exec)
	return app
}

func call(t *testing.T, app *fiber.App, method, target, body string, headers map[string]string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func value(v any) RequestMiddleware {
	return RequestMiddleware{Name: "value", Run: func(*RequestContext) (any, error) { return v, nil }}
}
