package postgres

import (
	"errors"
	"testing"

	xerrors "carp-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "find vehicle"))

	err := mapError(pgx.ErrNoRows, "find vehicle")
	assert.ErrorIs(t, err, xerrors.ErrNotFound)

	err = mapError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_vehicles_one_default_per_user"}, "set default vehicle")
	assert.ErrorIs(t, err, xerrors.ErrConstraintViolation)
	assert.Contains(t, err.Error(), "uq_vehicles_one_default_per_user")

	cause := errors.New("connection refused")
	err = mapError(cause, "list trips")
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, xerrors.ErrNotFound)
}

func TestPagination(t *testing.T) {
	page, size := 0, 0
	limit, offset := pagination(&page, &size)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	page, size = 3, 500
	limit, offset = pagination(&page, &size)
	assert.Equal(t, 100, size)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 200, offset)
}
