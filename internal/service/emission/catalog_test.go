package emission

import (
	"context"
	"testing"

	"carp-service/internal/domain/emission"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listerFunc func(ctx context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error)

func (f listerFunc) List(ctx context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error) {
	return f(ctx, filters)
}

func TestCatalogListActive(t *testing.T) {
	var seen *emission.FactorListFilters
	catalog := NewCatalog(listerFunc(func(_ context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error) {
		seen = filters
		return []emission.EmissionFactor{{ID: 1, IsActive: true}}, 45, nil
	}))

	inactive := false
	resp, err := catalog.ListActive(context.Background(), &emission.FactorListFilters{IsActive: &inactive, Page: 1, PageSize: 20})
	require.NoError(t, err)

	require.NotNil(t, seen.IsActive)
	assert.True(t, *seen.IsActive)
	assert.Equal(t, int64(45), resp.Total)
	assert.Equal(t, 3, resp.TotalPages)
}
