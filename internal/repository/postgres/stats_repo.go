// internal/repository/postgres/stats_repo.go
package postgres

import (
	"context"
	"fmt"

	"carp-service/internal/domain/stats"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// AdminStats reads every installation-wide counter in one round trip.
func (r *StatsRepository) AdminStats(ctx context.Context) (*stats.AdminStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active),
			(SELECT COUNT(*) FROM vehicles),
			(SELECT COUNT(*) FROM trips),
			(SELECT COUNT(*) FROM trips WHERE emission_status = 'pending'),
			(SELECT COALESCE(SUM(co2_emissions), 0) FROM trips),
			(SELECT COUNT(*) FROM emission_factors),
			(SELECT COUNT(*) FROM emission_factors WHERE is_active)
	`

	var s stats.AdminStats
	err := r.db.QueryRow(ctx, query).Scan(
		&s.TotalUsers, &s.ActiveUsers, &s.TotalVehicles, &s.TotalTrips, &s.PendingTrips,
		&s.TotalCo2, &s.TotalEmissionFactors, &s.ActiveEmissionFactors,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin stats: %w", err)
	}
	return &s, nil
}
