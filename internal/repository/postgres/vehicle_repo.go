// internal/repository/postgres/vehicle_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"carp-service/internal/domain/vehicle"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const vehicleColumns = `id, user_id, make, model, year, vehicle_type, fuel_type, fuel_efficiency,
	engine_size, transmission, is_default, is_active, created_at, updated_at`

type VehicleRepository struct {
	db        *pgxpool.Pool
	dbWrapper *DB
}

func NewVehicleRepository(db *pgxpool.Pool, dbWrapper *DB) *VehicleRepository {
	return &VehicleRepository{db: db, dbWrapper: dbWrapper}
}

func scanVehicle(row rowScanner) (*vehicle.Vehicle, error) {
	var v vehicle.Vehicle
	err := row.Scan(
		&v.ID, &v.UserID, &v.Make, &v.Model, &v.Year, &v.VehicleType, &v.FuelType, &v.FuelEfficiency,
		&v.EngineSize, &v.Transmission, &v.IsDefault, &v.IsActive, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts the vehicle. is_default is always written false; use SetDefault
// or CreateDefault.
func (r *VehicleRepository) Create(ctx context.Context, v *vehicle.Vehicle) error {
	return insertVehicle(ctx, r.db, v)
}

// CreateDefault inserts the vehicle and makes it the user's default in one
// transaction, so a failed default switch leaves no vehicle behind.
func (r *VehicleRepository) CreateDefault(ctx context.Context, v *vehicle.Vehicle) error {
	tx, err := r.dbWrapper.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockOwner(ctx, tx, v.UserID); err != nil {
		return err
	}
	if err := insertVehicle(ctx, tx, v); err != nil {
		return err
	}
	if err := setDefaultWithTx(ctx, tx, v.UserID, v.ID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit vehicle")
	}
	v.IsDefault = true
	return nil
}

func insertVehicle(ctx context.Context, q queryRower, v *vehicle.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			user_id, make, model, year, vehicle_type, fuel_type, fuel_efficiency,
			engine_size, transmission, is_default, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10)
		RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		v.UserID, v.Make, v.Model, v.Year, v.VehicleType, v.FuelType, v.FuelEfficiency,
		v.EngineSize, v.Transmission, v.IsActive,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return mapError(err, "create vehicle")
	}
	v.IsDefault = false
	return nil
}

func (r *VehicleRepository) FindByID(ctx context.Context, id int64) (*vehicle.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find vehicle")
	}
	return v, nil
}

func (r *VehicleRepository) FindDefaultByUser(ctx context.Context, userID int64) (*vehicle.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = $1 AND is_default AND is_active`

	v, err := scanVehicle(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapError(err, "find default vehicle")
	}
	return v, nil
}

func (r *VehicleRepository) ListByUser(ctx context.Context, userID int64, filters *vehicle.VehicleListFilters) ([]vehicle.Vehicle, int64, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argPos := 2

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM vehicles WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	limit, offset := pagination(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM vehicles
		WHERE %s
		ORDER BY is_default DESC, created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, vehicleColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []vehicle.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, total, nil
}

// Update writes every field except is_default.
func (r *VehicleRepository) Update(ctx context.Context, v *vehicle.Vehicle) error {
	query := `
		UPDATE vehicles
		SET make = $2, model = $3, year = $4, vehicle_type = $5, fuel_type = $6,
		    fuel_efficiency = $7, engine_size = $8, transmission = $9, is_active = $10,
		    is_default = is_default AND $10, updated_at = NOW()
		WHERE id = $1
		RETURNING is_default, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		v.ID, v.Make, v.Model, v.Year, v.VehicleType, v.FuelType,
		v.FuelEfficiency, v.EngineSize, v.Transmission, v.IsActive,
	).Scan(&v.IsDefault, &v.UpdatedAt)
	return mapError(err, "update vehicle")
}

func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// SetDefault serializes on the owner's user row, reads every vehicle of the
// user and writes the change set computed by vehicle.ReassignDefault.
func (r *VehicleRepository) SetDefault(ctx context.Context, userID, vehicleID int64) error {
	tx, err := r.dbWrapper.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockOwner(ctx, tx, userID); err != nil {
		return err
	}
	if err := setDefaultWithTx(ctx, tx, userID, vehicleID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit default vehicle")
	}
	return nil
}

func lockOwner(ctx context.Context, tx pgx.Tx, userID int64) error {
	var lockedID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&lockedID); err != nil {
		return mapError(err, "lock vehicle owner")
	}
	return nil
}

// setDefaultWithTx expects the owner row to be locked already.
func setDefaultWithTx(ctx context.Context, tx pgx.Tx, userID, vehicleID int64) error {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE user_id = $1 ORDER BY id FOR UPDATE`
	rows, err := tx.Query(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to load vehicles: %w", err)
	}
	var owned []vehicle.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan vehicle: %w", err)
		}
		owned = append(owned, *v)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	changes, err := vehicle.ReassignDefault(owned, vehicleID)
	if err != nil {
		return err
	}

	for _, ch := range changes {
		_, err := tx.Exec(ctx,
			`UPDATE vehicles SET is_default = $2, updated_at = NOW() WHERE id = $1`,
			ch.VehicleID, ch.IsDefault,
		)
		if err != nil {
			return mapError(err, "write default vehicle")
		}
	}
	return nil
}
