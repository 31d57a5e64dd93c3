package vehicle

import "context"

type Repository interface {
	Create(ctx context.Context, v *Vehicle) error
	FindByID(ctx context.Context, id int64) (*Vehicle, error)
	FindDefaultByUser(ctx context.Context, userID int64) (*Vehicle, error)
	ListByUser(ctx context.Context, userID int64, filters *VehicleListFilters) ([]Vehicle, int64, error)
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, id int64) error

	// CreateDefault inserts v as the user's only default in one transaction.
	CreateDefault(ctx context.Context, v *Vehicle) error
	// SetDefault makes vehicleID the user's only default in one transaction.
	SetDefault(ctx context.Context, userID, vehicleID int64) error
}
