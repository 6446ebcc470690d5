package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/repository"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string, role domain.Role, ttl time.Duration) (auth.Token, error)
}

// AuthService coordinates login and logout flows.
type AuthService struct {
	users   repository.UserRepository
	tokens  TokenIssuer
	revoked auth.RevocationStore
	ttl     time.Duration
}

// AuthDependencies encapsulates what the auth service needs. Users and
// Revocations may be nil when the backing store is not configured.
type AuthDependencies struct {
	Users       repository.UserRepository
	Tokens      TokenIssuer
	Revocations auth.RevocationStore
	TokenTTL    time.Duration
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:   deps.Users,
		tokens:  deps.Tokens,
		revoked: deps.Revocations,
		ttl:     deps.TokenTTL,
	}
}

// Login authenticates by email and password and issues a token carrying the
// user's role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.Token, error) {
	if s.users == nil {
		return nil, auth.Token{}, ErrUnavailable("user store")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, auth.Token{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, auth.Token{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, auth.Token{}, apperrors.NewInternalError(err)
	}

	token, err := s.tokens.Issue(strconv.FormatInt(user.ID, 10), user.Role, s.ttl)
	if err != nil {
		return nil, auth.Token{}, apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// Logout revokes the token the claims were read from until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil {
		return auth.ErrNoCredential
	}
	if s.revoked == nil {
		return ErrUnavailable("token revocation")
	}
	if claims.TokenID() == "" {
		return apperrors.NewValidationError("token has no id and cannot be revoked", nil)
	}
	if err := s.revoked.Revoke(ctx, claims.TokenID(), claims.ExpiresAtTime()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// ErrUnavailable reports a feature whose backing store is not configured.
func ErrUnavailable(what string) error {
	return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", what+" not configured", http.StatusServiceUnavailable, nil)
}
