package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/service-core/internal/auth"
	"github.com/spec-kit/service-core/internal/domain"
	"github.com/spec-kit/service-core/internal/repository"
	apperrors "github.com/spec-kit/service-core/pkg/errorutil"
)

type stubUsers struct {
	users []*domain.User
	err   error
}

func (s *stubUsers) Create(_ context.Context, u domain.NewUser) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	created := &domain.User{
		ID: int64(len(s.users) + 1), FirstName: u.FirstName, LastName: u.LastName,
		Email: u.Email, PasswordHash: u.PasswordHash, Role: u.Role,
	}
	s.users = append(s.users, created)
	return created, nil
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubRevocations struct {
	revoked map[string]time.Time
}

func (s *stubRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	s.revoked[id] = until
	return nil
}

func (s *stubRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := s.revoked[id]
	return ok, nil
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperrors.ToDomainError(err).HTTPStatus
}

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenServiceWithKey("HS256", []byte("service-test-secret"))
	require.NoError(t, err)
	return ts
}

func TestUserService(t *testing.T) {
	ctx := context.Background()
	repo := &stubUsers{}
	svc := NewUserService(repo, bcrypt.MinCost)

	user, err := svc.Create(ctx, UserCreateInput{FirstName: "Ada", LastName: "L", Email: "ada@example.com", Password: "analytical", Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.NotEqual(t, "analytical", user.PasswordHash)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "analytical"))

	_, err = svc.Create(ctx, UserCreateInput{FirstName: "A", LastName: "B", Email: "ada@example.com", Password: "whatever1"})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	got, err := svc.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	_, err = svc.Get(ctx, 2)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	repo.err = errors.New("connection reset")
	_, err = svc.Get(ctx, 1)
	assert.Equal(t, http.StatusInternalServerError, statusOf(t, err))

	_, err = NewUserService(nil, bcrypt.MinCost).Get(ctx, 1)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	repo := &stubUsers{}
	_, err := NewUserService(repo, bcrypt.MinCost).Create(ctx, UserCreateInput{
		FirstName: "G", LastName: "H", Email: "grace@example.com", Password: "cobol-rules", Role: domain.RoleUser,
	})
	require.NoError(t, err)

	tokens := newTokens(t)
	svc := NewAuthService(AuthDependencies{Users: repo, Tokens: tokens, TokenTTL: 10 * time.Minute})

	t.Run("success", func(t *testing.T) {
		user, tok, err := svc.Login(ctx, "grace@example.com", "cobol-rules")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)

		claims, err := tokens.Validate(tok.Value)
		require.NoError(t, err)
		assert.Equal(t, "1", claims.Subject)
		assert.Equal(t, "User", claims.RoleName())
		assert.WithinDuration(t, time.Now().Add(10*time.Minute), tok.ExpiresAt, 5*time.Second)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "grace@example.com", "fortran")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "cobol-rules")
		assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
	})

	t.Run("no user store", func(t *testing.T) {
		_, _, err := NewAuthService(AuthDependencies{Tokens: tokens}).Login(ctx, "grace@example.com", "x")
		assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
	})
}

func TestAuthServiceLogout(t *testing.T) {
	ctx := context.Background()
	tokens := newTokens(t)
	store := &stubRevocations{revoked: map[string]time.Time{}}
	svc := NewAuthService(AuthDependencies{Tokens: tokens, Revocations: store})

	tok, err := tokens.Issue("7", domain.RoleUser, time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Validate(tok.Value)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims))
	assert.Equal(t, claims.ExpiresAtTime(), store.revoked[claims.TokenID()])

	assert.ErrorIs(t, svc.Logout(ctx, nil), auth.ErrNoCredential)

	err = NewAuthService(AuthDependencies{Tokens: tokens}).Logout(ctx, claims)
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
}
