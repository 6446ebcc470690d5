package auth

import (
	"errors"
	"net/http"

	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// ErrorKind classifies authentication and authorization failures.
type ErrorKind int

const (
	KindNoCredential ErrorKind = iota + 1
	KindMalformed
	KindExpired
	KindAccessDenied
	KindRevoked
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoCredential:
		return "no credential"
	case KindMalformed:
		return "malformed token"
	case KindExpired:
		return "token expired"
	case KindAccessDenied:
		return "access denied"
	case KindRevoked:
		return "token revoked"
	}
	return "auth error"
}

// Error is returned by the token service, the claims extractor and Authorize.
type Error struct {
	Kind ErrorKind
	Err  error
}

var (
	ErrNoCredential = &Error{Kind: KindNoCredential}
	ErrMalformed    = &Error{Kind: KindMalformed}
	ErrExpired      = &Error{Kind: KindExpired}
	ErrAccessDenied = &Error{Kind: KindAccessDenied}
	ErrRevoked      = &Error{Kind: KindRevoked}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so wrapped causes still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// DomainError maps the failure to a client-facing rejection.
func (e *Error) DomainError() *apperrors.DomainError {
	if e.Kind == KindAccessDenied {
		return apperrors.NewDomainError("FORBIDDEN", e.Kind.String(), http.StatusForbidden, nil)
	}
	return apperrors.NewDomainError("UNAUTHORIZED", e.Kind.String(), http.StatusUnauthorized, nil)
}

func wrap(kind ErrorKind, err error) error {
	return &Error{Kind: kind, Err: err}
}
