package xerrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldErrorMatchesInvalidInput(t *testing.T) {
	err := fmt.Errorf("create trip: %w", InvalidField("distance_km", "must not be negative"))

	assert.True(t, Is(err, ErrInvalidInput))
	assert.False(t, Is(err, ErrNotFound))

	fe, ok := AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "distance_km", fe.Field)
	assert.Equal(t, "invalid distance_km: must not be negative", fe.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ignored"))

	err := Wrap(ErrNoFactorAvailable, "resolve car/gasoline")
	assert.True(t, Is(err, ErrNoFactorAvailable))
	assert.Equal(t, "resolve car/gasoline: no emission factor available", err.Error())
}

func TestMessageOrDefault(t *testing.T) {
	assert.Equal(t, "fallback", MessageOrDefault(nil, "fallback"))
	assert.Equal(t, ErrConflict.Error(), MessageOrDefault(ErrConflict, "fallback"))
}
