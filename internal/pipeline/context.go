package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/jobs"
)

// RequestIDKey is the fiber Locals key holding the request id.
const RequestIDKey = "request_id"

// Stage is the position of a request in the middleware chain.
type Stage int

const (
	StagePending Stage = iota
	StageRequestMiddleware
	StageAuthorized
	StageHandler
	StageResponseMiddleware
	StageCompleted
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StagePending:
		return "pending"
	case StageRequestMiddleware:
		return "request_middleware"
	case StageAuthorized:
		return "authorized"
	case StageHandler:
		return "handler"
	case StageResponseMiddleware:
		return "response_middleware"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	}
	return "unknown"
}

var (
	ErrResultIndex       = errors.New("middleware result index out of range")
	ErrResultUnavailable = errors.New("middleware result not available")
	ErrResultType        = errors.New("middleware result has unexpected type")
)

// JobSubmitter accepts background jobs without waiting for them.
type JobSubmitter interface {
	Submit(job jobs.Job)
}

// RequestContext is the state of one in-flight request. It is owned by the
// goroutine serving that request and must not be retained after the
// response is written.
type RequestContext struct {
	c       *fiber.Ctx
	route   *Route
	results []any
	filled  []bool
	claims  *auth.Claims
	stage   Stage
	failure error
	started time.Time
	jobs    JobSubmitter
}

func newRequestContext(c *fiber.Ctx, route *Route, submitter JobSubmitter) *RequestContext {
	n := len(route.Request)
	return &RequestContext{
		c:       c,
		route:   route,
		results: make([]any, n),
		filled:  make([]bool, n),
		started: time.Now(),
		jobs:    submitter,
	}
}

// Ctx exposes the underlying fiber context for writing the response.
func (rc *RequestContext) Ctx() *fiber.Ctx { return rc.c }

// Context returns the request scoped context.Context.
func (rc *RequestContext) Context() context.Context { return rc.c.UserContext() }

// Route returns the route declaration serving this request.
func (rc *RequestContext) Route() *Route { return rc.route }

func (rc *RequestContext) Method() string           { return rc.c.Method() }
func (rc *RequestContext) Path() string             { return rc.c.Path() }
func (rc *RequestContext) Param(key string) string  { return rc.c.Params(key) }
func (rc *RequestContext) Query(key string) string  { return rc.c.Query(key) }
func (rc *RequestContext) Header(key string) string { return rc.c.Get(key) }
func (rc *RequestContext) Body() []byte             { return rc.c.Body() }
func (rc *RequestContext) Stage() Stage             { return rc.stage }
func (rc *RequestContext) StartedAt() time.Time     { return rc.started }
func (rc *RequestContext) Status() int              { return rc.c.Response().StatusCode() }
func (rc *RequestContext) ResponseBody() []byte     { return rc.c.Response().Body() }
func (rc *RequestContext) Err() error               { return rc.failure }

// RequestID returns the id assigned by the transport, if any.
func (rc *RequestContext) RequestID() string {
	if id, ok := rc.c.Locals(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// Claims returns the claims validated by the route's role requirement.
func (rc *RequestContext) Claims() (*auth.Claims, bool) {
	return rc.claims, rc.claims != nil
}

// Result returns the output of the i-th declared request middleware. Results
// are visible to the handler and to response middleware only, and are
// discarded when the chain fails.
func (rc *RequestContext) Result(i int) (any, error) {
	if i < 0 || i >= len(rc.results) {
		return nil, fmt.Errorf("%w: %d of %d", ErrResultIndex, i, len(rc.results))
	}
	if rc.stage == StageRequestMiddleware || !rc.filled[i] {
		return nil, fmt.Errorf("%w: index %d", ErrResultUnavailable, i)
	}
	return rc.results[i], nil
}

// MiddlewareResult returns the i-th request middleware result as T.
func MiddlewareResult[T any](rc *RequestContext, i int) (T, error) {
	var zero T
	v, err := rc.Result(i)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: index %d holds %T, want %T", ErrResultType, i, v, zero)
	}
	return typed, nil
}

// Submit hands a job to the dispatcher without waiting for it.
func (rc *RequestContext) Submit(job jobs.Job) {
	if rc.jobs != nil {
		rc.jobs.Submit(job)
	}
}

// ResponseMeta snapshots the response for response-triggered jobs. Strings
// are copied because fiber reuses request buffers once the handler returns.
func (rc *RequestContext) ResponseMeta() jobs.ResponseMeta {
	return jobs.ResponseMeta{
		Status:    rc.Status(),
		Method:    strings.Clone(rc.c.Method()),
		Path:      strings.Clone(rc.c.Path()),
		Route:     rc.route.Path,
		RequestID: strings.Clone(rc.RequestID()),
	}
}

func (rc *RequestContext) store(i int, v any) {
	rc.results[i] = v
	rc.filled[i] = true
}

func (rc *RequestContext) discardResults() {
	for i := range rc.results {
		rc.results[i] = nil
		rc.filled[i] = false
	}
}
