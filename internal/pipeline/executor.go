package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/jobs"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// MiddlewareError reports which request middleware short-circuited the chain.
type MiddlewareError struct {
	Index int
	Name  string
	Err   error
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("request middleware %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *MiddlewareError) Unwrap() error { return e.Err }

// Executor runs a route's request middleware, handler and response
// middleware in order for each request.
type Executor struct {
	extractor auth.ClaimsExtractor
	jobs      JobSubmitter
	logger    *zap.Logger
}

// NewExecutor wires the claims extractor used for role requirements and the
// dispatcher used for route jobs. Either may be nil when no route needs it.
func NewExecutor(extractor auth.ClaimsExtractor, submitter JobSubmitter, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{extractor: extractor, jobs: submitter, logger: logger}
}

// Handler adapts one route to a fiber handler. Errors never escape: they are
// mapped to a response inside the chain.
func (e *Executor) Handler(route *Route) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e.Execute(newRequestContext(c, route, e.jobs))
		return nil
	}
}

// Execute drives rc through the chain until StageCompleted.
func (e *Executor) Execute(rc *RequestContext) {
	err := e.runRequestMiddleware(rc)
	if err == nil {
		e.submitRequestJobs(rc)
		err = e.invokeHandler(rc)
	}
	if err != nil {
		e.fail(rc, err)
	}

	e.runResponseMiddleware(rc)
	rc.stage = StageCompleted
	e.submitResponseJobs(rc)
}

func (e *Executor) runRequestMiddleware(rc *RequestContext) error {
	rc.stage = StageRequestMiddleware

	if rc.route.RequiredRole != nil {
		claims, err := e.authorize(rc, *rc.route.RequiredRole)
		if err != nil {
			return err
		}
		rc.claims = claims
	}

	for i, mw := range rc.route.Request {
		v, err := e.callRequestMiddleware(rc, mw)
		if err != nil {
			return &MiddlewareError{Index: i, Name: mw.Name, Err: err}
		}
		rc.store(i, v)
	}

	rc.stage = StageAuthorized
	return nil
}

func (e *Executor) authorize(rc *RequestContext, required domain.Role) (*auth.Claims, error) {
	if e.extractor == nil {
		return nil, apperrors.NewInternalError(errors.New("route requires a role but no claims extractor is configured"))
	}
	claims, err := e.extractor.Extract(rc.Context(), rc.Header(fiber.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(required, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (e *Executor) callRequestMiddleware(rc *RequestContext, mw RequestMiddleware) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(rc, "request middleware panicked", r, zap.String("middleware", mw.Name))
			err = apperrors.NewInternalError(fmt.Errorf("middleware %s panicked: %v", mw.Name, r))
		}
	}()
	return mw.Run(rc)
}

func (e *Executor) invokeHandler(rc *RequestContext) (err error) {
	rc.stage = StageHandler
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(rc, "handler panicked", r)
			err = apperrors.NewInternalError(fmt.Errorf("handler panicked: %v", r))
		}
	}()
	return rc.route.Handler(rc)
}

func (e *Executor) fail(rc *RequestContext, err error) {
	rc.failure = err
	rc.stage = StageFailed
	rc.discardResults()

	domainErr := apperrors.Respond(rc.c, err)
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		e.logger.Error("request failed",
			zap.String("method", rc.Method()),
			zap.String("route", rc.route.Path),
			zap.String("request_id", rc.RequestID()),
			zap.Error(err))
		return
	}
	e.logger.Debug("request rejected",
		zap.String("method", rc.Method()),
		zap.String("route", rc.route.Path),
		zap.String("code", domainErr.Code),
		zap.Error(err))
}

func (e *Executor) runResponseMiddleware(rc *RequestContext) {
	rc.stage = StageResponseMiddleware
	for i, mw := range rc.route.Response {
		if err := e.callResponseMiddleware(rc, mw); err != nil {
			e.logger.Warn("response middleware failed",
				zap.Int("index", i),
				zap.String("middleware", mw.Name),
				zap.String("route", rc.route.Path),
				zap.String("request_id", rc.RequestID()),
				zap.Error(err))
		}
	}
}

func (e *Executor) callResponseMiddleware(rc *RequestContext, mw ResponseMiddleware) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(rc, "response middleware panicked", r, zap.String("middleware", mw.Name))
			err = fmt.Errorf("middleware %s panicked: %v", mw.Name, r)
		}
	}()
	return mw.Run(rc)
}

func (e *Executor) submitRequestJobs(rc *RequestContext) {
	for _, factory := range rc.route.RequestJobs {
		job, ok := e.buildJob(rc, func() jobs.Job { return factory(rc) })
		if ok {
			e.submit(rc, job)
		}
	}
}

func (e *Executor) submitResponseJobs(rc *RequestContext) {
	if len(rc.route.ResponseJobs) == 0 {
		return
	}
	meta := rc.ResponseMeta()
	for _, factory := range rc.route.ResponseJobs {
		job, ok := e.buildJob(rc, func() jobs.Job { return factory(meta) })
		if ok {
			e.submit(rc, job)
		}
	}
}

func (e *Executor) buildJob(rc *RequestContext, build func() jobs.Job) (job jobs.Job, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logPanic(rc, "job factory panicked", r)
			ok = false
		}
	}()
	return build(), true
}

func (e *Executor) submit(rc *RequestContext, job jobs.Job) {
	if e.jobs == nil {
		e.logger.Warn("no job dispatcher configured; dropping job",
			zap.String("job", job.Name),
			zap.String("route", rc.route.Path))
		return
	}
	e.jobs.Submit(job)
}

func (e *Executor) logPanic(rc *RequestContext, msg string, r any, fields ...zap.Field) {
	fields = append(fields,
		zap.String("route", rc.route.Path),
		zap.String("stage", rc.stage.String()),
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()))
	e.logger.Error(msg, fields...)
}
