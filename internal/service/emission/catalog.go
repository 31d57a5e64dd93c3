package emission

import (
	"context"
	"fmt"

	"carp-service/internal/domain/emission"
)

type FactorLister interface {
	List(ctx context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error)
}

// Catalog is the read-only factor listing every signed-in user can browse.
type Catalog struct {
	lister FactorLister
}

func NewCatalog(lister FactorLister) *Catalog {
	return &Catalog{lister: lister}
}

// ListActive lists factors that are currently used for resolution.
func (c *Catalog) ListActive(ctx context.Context, filters *emission.FactorListFilters) (*emission.FactorListResponse, error) {
	active := true
	filters.IsActive = &active

	factors, total, err := c.lister.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list emission factors: %w", err)
	}

	var pages int
	if filters.PageSize > 0 {
		pages = int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	}
	return &emission.FactorListResponse{
		Factors:    factors,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pages,
	}, nil
}
