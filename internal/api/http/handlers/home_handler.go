package handlers

import (
	"github.com/spec-kit/service-core/internal/pipeline"
)

// HomeHandler serves the demo endpoints that read request middleware
// results by index.
type HomeHandler struct{}

func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home handles GET /. Index 1 is the roundtrip middleware.
func (h *HomeHandler) Home(rc *pipeline.RequestContext) error {
	msg, err := pipeline.MiddlewareResult[string](rc, 1)
	if err != nil {
		return err
	}
	return rc.Ctx().SendString("home " + msg)
}

// Hello handles GET /hello/:name.
func (h *HomeHandler) Hello(rc *pipeline.RequestContext) error {
	return rc.Ctx().SendString("user " + rc.Param("name"))
}

// Important handles POST /important/:name, reachable by admins only.
func (h *HomeHandler) Important(rc *pipeline.RequestContext) error {
	return rc.Ctx().SendString("user token " + rc.Param("name"))
}
