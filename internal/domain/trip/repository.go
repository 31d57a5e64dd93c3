package trip

import (
	"context"

	"carp-service/internal/domain/emission"
)

type Repository interface {
	Create(ctx context.Context, t *Trip) error
	FindByID(ctx context.Context, id int64) (*Trip, error)
	ListByUser(ctx context.Context, userID int64, filters *TripListFilters) ([]Trip, int64, error)
	ListAllByUser(ctx context.Context, userID int64) ([]Trip, error)
	Delete(ctx context.Context, id int64) error

	ListPending(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) ([]Trip, error)
	// FillPending sets the emissions of a pending trip. It reports false when
	// the trip was no longer pending, leaving it untouched.
	FillPending(ctx context.Context, t *Trip) (bool, error)
}
