// internal/repository/postgres/emission_factor_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const factorColumns = `id, vehicle_type, fuel_type, factor_g_per_km, description, source, tags,
	version, is_active, created_by, created_at, updated_at`

// EmissionFactorRepository is the PostgreSQL factor store.
type EmissionFactorRepository struct {
	db *pgxpool.Pool
}

func NewEmissionFactorRepository(db *pgxpool.Pool) *EmissionFactorRepository {
	return &EmissionFactorRepository{db: db}
}

func scanFactor(row rowScanner) (*emission.EmissionFactor, error) {
	var f emission.EmissionFactor
	var tags []string

	err := row.Scan(
		&f.ID, &f.VehicleType, &f.FuelType, &f.FactorGPerKm, &f.Description, &f.Source, &tags,
		&f.Version, &f.IsActive, &f.CreatedBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	f.Tags = tags
	return &f, nil
}

func collectFactors(rows pgx.Rows) ([]emission.EmissionFactor, error) {
	defer rows.Close()

	factors := []emission.EmissionFactor{}
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emission factor: %w", err)
		}
		factors = append(factors, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emission factors: %w", err)
	}
	return factors, nil
}

// FindCandidates returns active factors for the pair, oldest first.
func (r *EmissionFactorRepository) FindCandidates(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) ([]emission.EmissionFactor, error) {
	query := `
		SELECT ` + factorColumns + `
		FROM emission_factors
		WHERE vehicle_type = $1 AND fuel_type = $2 AND is_active
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, vt, ft)
	if err != nil {
		return nil, fmt.Errorf("failed to find emission factor candidates: %w", err)
	}
	return collectFactors(rows)
}

func (r *EmissionFactorRepository) FindByID(ctx context.Context, id int64) (*emission.EmissionFactor, error) {
	query := `SELECT ` + factorColumns + ` FROM emission_factors WHERE id = $1`

	f, err := scanFactor(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find emission factor")
	}
	return f, nil
}

// ActiveFactorValues is the reference distribution for eco ratings.
func (r *EmissionFactorRepository) ActiveFactorValues(ctx context.Context) ([]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT factor_g_per_km FROM emission_factors WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load factor values: %w", err)
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan factor value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// Upsert inserts f when it has no id, otherwise updates it and bumps its version.
func (r *EmissionFactorRepository) Upsert(ctx context.Context, f *emission.EmissionFactor) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if f.ID == 0 {
		err = r.CreateWithTx(ctx, tx, f)
	} else {
		err = r.UpdateWithTx(ctx, tx, f)
	}
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *EmissionFactorRepository) Deactivate(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := r.DeactivateWithTx(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *EmissionFactorRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, f *emission.EmissionFactor) error {
	query := `
		INSERT INTO emission_factors (
			vehicle_type, fuel_type, factor_g_per_km, description, source, tags, is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at
	`
	if f.Tags == nil {
		f.Tags = []string{}
	}
	err := tx.QueryRow(ctx, query,
		f.VehicleType, f.FuelType, f.FactorGPerKm, f.Description, f.Source, pq.Array(f.Tags), f.IsActive, f.CreatedBy,
	).Scan(&f.ID, &f.Version, &f.CreatedAt, &f.UpdatedAt)
	return mapError(err, "create emission factor")
}

// FindByIDForUpdate locks the factor row for the rest of tx.
func (r *EmissionFactorRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*emission.EmissionFactor, error) {
	query := `SELECT ` + factorColumns + ` FROM emission_factors WHERE id = $1 FOR UPDATE`

	f, err := scanFactor(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "lock emission factor")
	}
	return f, nil
}

func (r *EmissionFactorRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, f *emission.EmissionFactor) error {
	query := `
		UPDATE emission_factors
		SET factor_g_per_km = $2, description = $3, source = $4, tags = $5, is_active = $6,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING version, updated_at
	`
	if f.Tags == nil {
		f.Tags = []string{}
	}
	err := tx.QueryRow(ctx, query,
		f.ID, f.FactorGPerKm, f.Description, f.Source, pq.Array(f.Tags), f.IsActive,
	).Scan(&f.Version, &f.UpdatedAt)
	return mapError(err, "update emission factor")
}

// DeactivateWithTx clears is_active. Trips keep their frozen emissions.
func (r *EmissionFactorRepository) DeactivateWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	result, err := tx.Exec(ctx, `
		UPDATE emission_factors
		SET is_active = FALSE,
		    version = version + CASE WHEN is_active THEN 1 ELSE 0 END,
		    updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate emission factor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("emission factor %d: %w", id, xerrors.ErrNotFound)
	}
	return nil
}

func (r *EmissionFactorRepository) List(ctx context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filters.VehicleType != "" {
		conditions = append(conditions, fmt.Sprintf("vehicle_type = $%d", argPos))
		args = append(args, filters.VehicleType)
		argPos++
	}

	if filters.FuelType != "" {
		conditions = append(conditions, fmt.Sprintf("fuel_type = $%d", argPos))
		args = append(args, filters.FuelType)
		argPos++
	}

	if filters.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *filters.IsActive)
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int64
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM emission_factors WHERE %s", whereClause)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count emission factors: %w", err)
	}

	limit, offset := pagination(&filters.Page, &filters.PageSize)
	query := fmt.Sprintf(`
		SELECT %s FROM emission_factors
		WHERE %s
		ORDER BY vehicle_type, fuel_type, id
		LIMIT $%d OFFSET $%d
	`, factorColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list emission factors: %w", err)
	}
	factors, err := collectFactors(rows)
	if err != nil {
		return nil, 0, err
	}
	return factors, total, nil
}
