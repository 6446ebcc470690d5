package pipeline

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/multierr"

	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/jobs"
)

// Handler produces the response for a route, either by writing to the fiber
// context or by returning an error that carries its own response mapping.
type Handler func(rc *RequestContext) error

// RequestMiddleware runs before the handler. Its value is stored at the
// middleware's declaration index.
type RequestMiddleware struct {
	Name string
	Run  func(rc *RequestContext) (any, error)
}

// ResponseMiddleware runs after the handler or after a short-circuit and may
// inspect the produced response.
type ResponseMiddleware struct {
	Name string
	Run  func(rc *RequestContext) error
}

// RequestJobFactory builds a job once request middleware succeeded.
type RequestJobFactory func(rc *RequestContext) jobs.Job

// ResponseJobFactory builds a job from a snapshot of the final response.
type ResponseJobFactory func(meta jobs.ResponseMeta) jobs.Job

// Route declares one endpoint.
type Route struct {
	Method       string
	Path         string
	RequiredRole *domain.Role
	Request      []RequestMiddleware
	Response     []ResponseMiddleware
	RequestJobs  []RequestJobFactory
	ResponseJobs []ResponseJobFactory
	Handler      Handler
}

// Require returns a role requirement for Route.RequiredRole.
func Require(role domain.Role) *domain.Role {
	return &role
}

func (r *Route) key() string {
	return r.Method + " " + r.Path
}

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// Table is the validated, immutable route table.
type Table struct {
	routes []*Route
	byKey  map[string]*Route
}

// NewTable validates the declarations and builds the lookup table.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{byKey: make(map[string]*Route, len(routes))}

	var errs error
	for i := range routes {
		route := routes[i]
		route.Method = strings.ToUpper(route.Method)
		route.Request = append([]RequestMiddleware(nil), route.Request...)
		route.Response = append([]ResponseMiddleware(nil), route.Response...)
		route.RequestJobs = append([]RequestJobFactory(nil), route.RequestJobs...)
		route.ResponseJobs = append([]ResponseJobFactory(nil), route.ResponseJobs...)
		if route.RequiredRole != nil {
			route.RequiredRole = Require(*route.RequiredRole)
		}

		if err := validateRoute(&route); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if _, dup := t.byKey[route.key()]; dup {
			errs = multierr.Append(errs, fmt.Errorf("route %s: declared twice", route.key()))
			continue
		}
		t.routes = append(t.routes, &route)
		t.byKey[route.key()] = &route
	}
	if errs != nil {
		return nil, errs
	}
	return t, nil
}

func validateRoute(r *Route) error {
	if _, ok := allowedMethods[r.Method]; !ok {
		return fmt.Errorf("route %s: unsupported method", r.key())
	}
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("route %s: path must start with /", r.key())
	}
	if r.Handler == nil {
		return fmt.Errorf("route %s: nil handler", r.key())
	}
	if r.RequiredRole != nil {
		known := false
		for _, role := range domain.Roles() {
			if role == *r.RequiredRole {
				known = true
			}
		}
		if !known {
			return fmt.Errorf("route %s: unknown required role %d", r.key(), int(*r.RequiredRole))
		}
	}
	for i, mw := range r.Request {
		if mw.Run == nil {
			return fmt.Errorf("route %s: request middleware %d (%s) has no Run", r.key(), i, mw.Name)
		}
	}
	for i, mw := range r.Response {
		if mw.Run == nil {
			return fmt.Errorf("route %s: response middleware %d (%s) has no Run", r.key(), i, mw.Name)
		}
	}
	for i, f := range r.RequestJobs {
		if f == nil {
			return fmt.Errorf("route %s: request job factory %d is nil", r.key(), i)
		}
	}
	for i, f := range r.ResponseJobs {
		if f == nil {
			return fmt.Errorf("route %s: response job factory %d is nil", r.key(), i)
		}
	}
	return nil
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.routes) }

// Lookup finds a route by method and declared path pattern.
func (t *Table) Lookup(method, path string) (*Route, bool) {
	r, ok := t.byKey[strings.ToUpper(method)+" "+path]
	return r, ok
}

// Routes returns the declarations in registration order.
func (t *Table) Routes() []*Route {
	return append([]*Route(nil), t.routes...)
}

// Mount registers every route on the fiber router, executed by exec.
func (t *Table) Mount(router fiber.Router, exec *Executor) {
	for _, route := range t.routes {
		router.Add(route.Method, route.Path, exec.Handler(route))
	}
}
