package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-core/internal/api/http/handlers"
	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/pipeline"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health *handlers.HealthHandler
	Home   *handlers.HomeHandler
	Auth   *handlers.AuthHandler
	Users  *handlers.UsersHandler
	Jobs   *handlers.DemoJobs
	// Response is appended to every route's response middleware.
	Response []pipeline.ResponseMiddleware
}

// Routes declares every endpoint served by the API.
func Routes(cfg RouteConfig) []pipeline.Route {
	routes := []pipeline.Route{
		{Method: http.MethodGet, Path: "/health/live", Handler: cfg.Health.Live},
		{Method: http.MethodGet, Path: "/health/ready", Handler: cfg.Health.Ready},
		{
			Method:       http.MethodGet,
			Path:         "/",
			Request:      []pipeline.RequestMiddleware{pipeline.BodySizeLimit(90), pipeline.Roundtrip("blah")},
			RequestJobs:  []pipeline.RequestJobFactory{cfg.Jobs.Visit},
			ResponseJobs: []pipeline.ResponseJobFactory{cfg.Jobs.StatusReport, cfg.Jobs.Count},
			Handler:      cfg.Home.Home,
		},
		{
			Method:  http.MethodPost,
			Path:    "/login",
			Request: []pipeline.RequestMiddleware{pipeline.Roundtrip("hello")},
			Handler: cfg.Auth.Login,
		},
		{
			Method:       http.MethodPost,
			Path:         "/logout",
			RequiredRole: pipeline.Require(domain.RoleUser),
			Handler:      cfg.Auth.Logout,
		},
		{
			Method:  http.MethodGet,
			Path:    "/hello/:name",
			Request: []pipeline.RequestMiddleware{pipeline.BodySizeLimit(64)},
			Handler: cfg.Home.Hello,
		},
		{
			Method:       http.MethodPost,
			Path:         "/important/:name",
			RequiredRole: pipeline.Require(domain.RoleAdmin),
			Request:      []pipeline.RequestMiddleware{pipeline.BodySizeLimit(128)},
			Handler:      cfg.Home.Important,
		},
		{
			Method:       http.MethodPost,
			Path:         "/users",
			RequiredRole: pipeline.Require(domain.RoleAdmin),
			ResponseJobs: []pipeline.ResponseJobFactory{cfg.Users.Audit},
			Handler:      cfg.Users.Create,
		},
		{
			Method:       http.MethodGet,
			Path:         "/users/:id",
			RequiredRole: pipeline.Require(domain.RoleUser),
			Handler:      cfg.Users.Get,
		},
	}

	if len(cfg.Response) > 0 {
		for i := range routes {
			routes[i].Response = append(routes[i].Response, cfg.Response...)
		}
	}
	return routes
}

// RegisterRoutes validates the declared routes and mounts them on router.
func RegisterRoutes(router fiber.Router, exec *pipeline.Executor, cfg RouteConfig) (*pipeline.Table, error) {
	table, err := pipeline.NewTable(Routes(cfg)...)
	if err != nil {
		return nil, err
	}
	table.Mount(router, exec)
	return table, nil
}
