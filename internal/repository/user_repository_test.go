package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/service-core/internal/domain"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.values[i].(int64)
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

func TestScanUser(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	user, err := scanUser(fakeRow{values: []any{int64(7), "Ada", "Lovelace", "ada@example.com", "hash", "Admin", created}})
	require.NoError(t, err)

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, created, user.CreatedAt)
}

func TestScanUserUnknownRoleIsLowest(t *testing.T) {
	user, err := scanUser(fakeRow{values: []any{int64(1), "a", "b", "c", "h", "superuser", time.Now()}})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
}

func TestScanUserNoRows(t *testing.T) {
	_, err := scanUser(fakeRow{err: pgx.ErrNoRows})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
