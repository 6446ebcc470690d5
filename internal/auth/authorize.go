package auth

import (
	"fmt"

	"github.com/spec-kit/service-core/internal/domain"
)

// Authorize succeeds iff the role carried by claims is at least required.
// Unknown role strings resolve to the lowest privilege.
func Authorize(required domain.Role, claims *Claims) error {
	if claims == nil {
		return ErrNoCredential
	}
	actual := domain.ParseRole(claims.Role)
	if !actual.Satisfies(required) {
		return wrap(KindAccessDenied, fmt.Errorf("role %s below required %s", actual, required))
	}
	return nil
}
