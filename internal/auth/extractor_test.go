package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-core/internal/domain"
)

type memoryRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (m *memoryRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	m.revoked[id] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[id]
	return ok, nil
}

func TestBearerExtractor(t *testing.T) {
	c := &clock{now: issuedAt}
	ts := newHMACService(t, c)
	store := &memoryRevocations{revoked: map[string]time.Time{}}
	extractor := NewBearerExtractor(ts, store)

	tok, err := ts.Issue("uid", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)

	t.Run("valid bearer", func(t *testing.T) {
		claims, err := extractor.Extract(context.Background(), "Bearer "+tok.Value)
		require.NoError(t, err)
		assert.Equal(t, "uid", claims.Subject)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		_, err := extractor.Extract(context.Background(), "bearer "+tok.Value)
		assert.NoError(t, err)
	})

	failures := []struct {
		name   string
		header string
		want   error
	}{
		{"missing header", "", ErrNoCredential},
		{"blank header", "   ", ErrNoCredential},
		{"basic scheme", "Basic dXNlcjpwYXNz", ErrMalformed},
		{"no token", "Bearer ", ErrMalformed},
		{"garbage token", "Bearer abc.def.ghi", ErrMalformed},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(context.Background(), tt.header)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("expired", func(t *testing.T) {
		c.now = issuedAt.Add(2 * time.Hour)
		defer func() { c.now = issuedAt }()
		_, err := extractor.Extract(context.Background(), "Bearer "+tok.Value)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("revoked", func(t *testing.T) {
		claims, err := ts.Validate(tok.Value)
		require.NoError(t, err)
		require.NoError(t, store.Revoke(context.Background(), claims.TokenID(), claims.ExpiresAtTime()))

		_, err = extractor.Extract(context.Background(), "Bearer "+tok.Value)
		assert.ErrorIs(t, err, ErrRevoked)
	})
}

func TestBearerExtractor_RevocationStoreFailure(t *testing.T) {
	c := &clock{now: issuedAt}
	ts := newHMACService(t, c)
	storeErr := errors.New("redis down")
	extractor := NewBearerExtractor(ts, &memoryRevocations{err: storeErr})

	tok, err := ts.Issue("uid", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "Bearer "+tok.Value)
	assert.ErrorIs(t, err, storeErr)
}

func TestBearerExtractor_WithoutRevocationStore(t *testing.T) {
	c := &clock{now: issuedAt}
	ts := newHMACService(t, c)
	extractor := NewBearerExtractor(ts, nil)

	tok, err := ts.Issue("uid", domain.RoleUser, time.Hour)
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), "Bearer "+tok.Value)
	assert.NoError(t, err)
}
