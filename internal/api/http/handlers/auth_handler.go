package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/api/dto"
	"github.com/spec-kit/service-core/internal/pipeline"
	"github.com/spec-kit/service-core/internal/service"
)

// AuthHandler exposes login and logout.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, logger: logger}
}

// Login handles POST /login. Index 0 is the roundtrip middleware.
func (h *AuthHandler) Login(rc *pipeline.RequestContext) error {
	msg, err := pipeline.MiddlewareResult[string](rc, 0)
	if err != nil {
		return err
	}
	h.logger.Debug("login attempt", zap.String("roundtrip", msg), zap.String("request_id", rc.RequestID()))

	req, err := pipeline.BindBody[dto.LoginRequest](rc)
	if err != nil {
		return err
	}

	_, token, err := h.auth.Login(rc.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return rc.Ctx().JSON(map[string]any{
		"data": dto.AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
	})
}

// Logout handles POST /logout by revoking the caller's token.
func (h *AuthHandler) Logout(rc *pipeline.RequestContext) error {
	claims, _ := rc.Claims()
	if err := h.auth.Logout(rc.Context(), claims); err != nil {
		return err
	}
	return rc.Ctx().SendStatus(http.StatusNoContent)
}
