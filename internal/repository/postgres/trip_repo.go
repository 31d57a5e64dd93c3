// internal/repository/postgres/trip_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"carp-service/internal/domain/emission"
	"carp-service/internal/domain/trip"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tripColumns = `id, user_id, vehicle_id, origin, destination, distance_km, duration_minutes,
	co2_emissions, route_data, travel_mode, emission_status, emission_factor_id, factor_g_per_km,
	vehicle_type, fuel_type, created_at`

type TripRepository struct {
	db *pgxpool.Pool
}

func NewTripRepository(db *pgxpool.Pool) *TripRepository {
	return &TripRepository{db: db}
}

func scanTrip(row rowScanner) (*trip.Trip, error) {
	var t trip.Trip
	var routeJSON []byte

	err := row.Scan(
		&t.ID, &t.UserID, &t.VehicleID, &t.Origin, &t.Destination, &t.DistanceKm, &t.DurationMinutes,
		&t.Co2Emissions, &routeJSON, &t.TravelMode, &t.EmissionStatus, &t.EmissionFactorID, &t.FactorGPerKm,
		&t.VehicleType, &t.FuelType, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(routeJSON) > 0 {
		if err := json.Unmarshal(routeJSON, &t.RouteData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route data: %w", err)
		}
	}
	return &t, nil
}

func collectTrips(rows pgx.Rows) ([]trip.Trip, error) {
	defer rows.Close()

	trips := []trip.Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	query := `
		INSERT INTO trips (
			user_id, vehicle_id, origin, destination, distance_km, duration_minutes, co2_emissions,
			route_data, travel_mode, emission_status, emission_factor_id, factor_g_per_km,
			vehicle_type, fuel_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`

	var routeJSON []byte
	if t.RouteData != nil {
		var err error
		routeJSON, err = json.Marshal(t.RouteData)
		if err != nil {
			return fmt.Errorf("failed to marshal route data: %w", err)
		}
	}

	err := r.db.QueryRow(ctx, query,
		t.UserID, t.VehicleID, t.Origin, t.Destination, t.DistanceKm, t.DurationMinutes, t.Co2Emissions,
		routeJSON, t.TravelMode, t.EmissionStatus, t.EmissionFactorID, t.FactorGPerKm,
		t.VehicleType, t.FuelType,
	).Scan(&t.ID, &t.CreatedAt)
	return mapError(err, "create trip")
}

func (r *TripRepository) FindByID(ctx context.Context, id int64) (*trip.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	t, err := scanTrip(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find trip")
	}
	return t, nil
}

func (r *TripRepository) ListByUser(ctx context.Context, userID int64, filters *trip.TripListFilters) ([]trip.Trip, int64, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argPos := 2

	if filters.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argPos))
		args = append(args, *filters.VehicleID)
		argPos++
	}

	if filters.TravelMode != "" {
		conditions = append(conditions, fmt.Sprintf("travel_mode = $%d", argPos))
		args = append(args, filters.TravelMode)
		argPos++
	}

	if filters.EmissionStatus != "" {
		conditions = append(conditions, fmt.Sprintf("emission_status = $%d", argPos))
		args = append(args, filters.EmissionStatus)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM trips WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	limit, offset := pagination(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM trips
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, tripColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	trips, err := collectTrips(rows)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// ListAllByUser feeds the dashboard aggregate.
func (r *TripRepository) ListAllByUser(ctx context.Context, userID int64) ([]trip.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}
	return collectTrips(rows)
}

func (r *TripRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func (r *TripRepository) ListPending(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) ([]trip.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE emission_status = 'pending' AND vehicle_type = $1 AND fuel_type = $2
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, vt, ft)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending trips: %w", err)
	}
	return collectTrips(rows)
}

// FillPending writes emissions only while the trip is still pending, so a
// computed trip is never rewritten.
func (r *TripRepository) FillPending(ctx context.Context, t *trip.Trip) (bool, error) {
	result, err := r.db.Exec(ctx, `
		UPDATE trips
		SET co2_emissions = $2, emission_factor_id = $3, factor_g_per_km = $4, emission_status = 'computed'
		WHERE id = $1 AND emission_status = 'pending'
	`, t.ID, t.Co2Emissions, t.EmissionFactorID, t.FactorGPerKm)
	if err != nil {
		return false, fmt.Errorf("failed to fill pending trip: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

