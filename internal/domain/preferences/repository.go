package preferences

import "context"

type Repository interface {
	FindByUser(ctx context.Context, userID int64) (*UserPreferences, error)
	// Create fails with ErrConstraintViolation when the user already has a row.
	Create(ctx context.Context, p *UserPreferences) error
	Update(ctx context.Context, p *UserPreferences) error
}
