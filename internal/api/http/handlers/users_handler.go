package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/service-core/internal/api/dto"
	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/jobs"
	"github.com/spec-kit/service-core/internal/pipeline"
	"github.com/spec-kit/service-core/internal/service"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// UsersHandler exposes user account endpoints.
type UsersHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// NewUsersHandler constructs handler.
func NewUsersHandler(users *service.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

// Create handles POST /users.
func (h *UsersHandler) Create(rc *pipeline.RequestContext) error {
	req, err := pipeline.BindBody[dto.CreateUserRequest](rc)
	if err != nil {
		return err
	}

	user, err := h.users.Create(rc.Context(), service.UserCreateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.ParseRole(req.Role),
	})
	if err != nil {
		return err
	}

	return rc.Ctx().Status(http.StatusCreated).JSON(map[string]any{
		"data": dto.NewUserResponse(user),
	})
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(rc *pipeline.RequestContext) error {
	id, err := strconv.ParseInt(rc.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return apperrors.NewValidationError("invalid user id", nil)
	}

	user, err := h.users.Get(rc.Context(), id)
	if err != nil {
		return err
	}

	return rc.Ctx().JSON(map[string]any{
		"data": dto.NewUserResponse(user),
	})
}

// Audit records the outcome of a user creation request off the response path.
func (h *UsersHandler) Audit(meta jobs.ResponseMeta) jobs.Job {
	logger := h.logger
	return jobs.IOBlocking("users.audit", func() {
		logger.Info("user creation audited",
			zap.Int("status", meta.Status),
			zap.Bool("created", meta.Status == http.StatusCreated),
			zap.String("request_id", meta.RequestID),
		)
	})
}
