package pipeline

import (
	"fmt"

	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// BodySizeLimit rejects requests whose body exceeds limit bytes. Its result
// is the body length.
func BodySizeLimit(limit int) RequestMiddleware {
	return RequestMiddleware{
		Name: "body_size_limit",
		Run: func(rc *RequestContext) (any, error) {
			size := len(rc.Body())
			if size > limit {
				return nil, apperrors.NewPayloadTooLarge(limit)
			}
			return size, nil
		},
	}
}

// Roundtrip echoes msg back as a string result, tagged by the middleware.
func Roundtrip(msg string) RequestMiddleware {
	return RequestMiddleware{
		Name: "roundtrip",
		Run: func(*RequestContext) (any, error) {
			return fmt.Sprintf("%s from roundtrip middleware", msg), nil
		},
	}
}
