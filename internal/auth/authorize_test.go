package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-core/internal/domain"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

func TestAuthorize(t *testing.T) {
	for _, required := range domain.Roles() {
		for _, actual := range domain.Roles() {
			claims := &Claims{Role: actual.String()}
			err := Authorize(required, claims)
			if actual >= required {
				assert.NoError(t, err, "actual=%s required=%s", actual, required)
			} else {
				assert.ErrorIs(t, err, ErrAccessDenied, "actual=%s required=%s", actual, required)
			}
		}
	}
}

func TestAuthorize_UserVersusAdmin(t *testing.T) {
	claims := &Claims{Role: "User"}
	assert.ErrorIs(t, Authorize(domain.RoleAdmin, claims), ErrAccessDenied)
	assert.NoError(t, Authorize(domain.RoleUser, claims))
}

func TestAuthorize_UnknownRoleNeverEscalates(t *testing.T) {
	for _, name := range []string{"admin", "root", "Superuser", ""} {
		assert.ErrorIs(t, Authorize(domain.RoleAdmin, &Claims{Role: name}), ErrAccessDenied, name)
		assert.NoError(t, Authorize(domain.RoleUser, &Claims{Role: name}), name)
	}
}

func TestAuthorize_NoClaims(t *testing.T) {
	assert.ErrorIs(t, Authorize(domain.RoleUser, nil), ErrNoCredential)
}

func TestAuthorize_ValidatedToken(t *testing.T) {
	c := &clock{now: issuedAt}
	ts := newHMACService(t, c)

	tok, err := ts.Issue("uid", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	claims, err := ts.Validate(tok.Value)
	require.NoError(t, err)

	assert.NoError(t, Authorize(domain.RoleUser, claims))
	assert.ErrorIs(t, Authorize(domain.RoleAdmin, claims), ErrAccessDenied)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNoCredential, http.StatusUnauthorized},
		{ErrMalformed, http.StatusUnauthorized},
		{ErrExpired, http.StatusUnauthorized},
		{ErrRevoked, http.StatusUnauthorized},
		{Authorize(domain.RoleAdmin, &Claims{Role: "User"}), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, apperrors.ToDomainError(tt.err).HTTPStatus)
		})
	}
}
