package pipeline

import (
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// Validator is implemented by request payloads that check their own fields.
type Validator interface {
	Validate() error
}

// BindBody decodes the request body into T and runs its Validate method when
// present. Failures are mapped to a 400 rejection.
func BindBody[T any](rc *RequestContext) (T, error) {
	var v T
	if len(rc.Body()) == 0 {
		return v, apperrors.NewValidationError("request body required", nil)
	}
	if err := rc.c.BodyParser(&v); err != nil {
		return v, apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	if err := validate(&v); err != nil {
		return v, apperrors.NewValidationError(err.Error(), nil)
	}
	return v, nil
}

func validate(v any) error {
	if val, ok := v.(Validator); ok {
		return val.Validate()
	}
	return nil
}
