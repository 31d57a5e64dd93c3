// internal/repository/postgres/preferences_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"carp-service/internal/domain/preferences"

	"github.com/jackc/pgx/v5/pgxpool"
)

const preferencesColumns = `id, user_id, avoid_tolls, avoid_highways, prefer_eco_routes,
	max_walking_distance_km, max_cycling_distance_km, default_travel_mode, notification_settings,
	created_at, updated_at`

type PreferencesRepository struct {
	db *pgxpool.Pool
}

func NewPreferencesRepository(db *pgxpool.Pool) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

func scanPreferences(row rowScanner) (*preferences.UserPreferences, error) {
	var p preferences.UserPreferences
	var settingsJSON []byte

	err := row.Scan(
		&p.ID, &p.UserID, &p.AvoidTolls, &p.AvoidHighways, &p.PreferEcoRoutes,
		&p.MaxWalkingDistanceKm, &p.MaxCyclingDistanceKm, &p.DefaultTravelMode, &settingsJSON,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.NotificationSettings = map[string]interface{}{}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &p.NotificationSettings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notification settings: %w", err)
		}
	}
	return &p, nil
}

func marshalSettings(settings map[string]interface{}) ([]byte, error) {
	if settings == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification settings: %w", err)
	}
	return b, nil
}

func (r *PreferencesRepository) FindByUser(ctx context.Context, userID int64) (*preferences.UserPreferences, error) {
	query := `SELECT ` + preferencesColumns + ` FROM user_preferences WHERE user_id = $1`

	p, err := scanPreferences(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, mapError(err, "find preferences")
	}
	return p, nil
}

func (r *PreferencesRepository) Create(ctx context.Context, p *preferences.UserPreferences) error {
	settings, err := marshalSettings(p.NotificationSettings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_preferences (
			user_id, avoid_tolls, avoid_highways, prefer_eco_routes,
			max_walking_distance_km, max_cycling_distance_km, default_travel_mode, notification_settings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query,
		p.UserID, p.AvoidTolls, p.AvoidHighways, p.PreferEcoRoutes,
		p.MaxWalkingDistanceKm, p.MaxCyclingDistanceKm, p.DefaultTravelMode, settings,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return mapError(err, "create preferences")
}

func (r *PreferencesRepository) Update(ctx context.Context, p *preferences.UserPreferences) error {
	settings, err := marshalSettings(p.NotificationSettings)
	if err != nil {
		return err
	}

	query := `
		UPDATE user_preferences
		SET avoid_tolls = $2, avoid_highways = $3, prefer_eco_routes = $4,
		    max_walking_distance_km = $5, max_cycling_distance_km = $6,
		    default_travel_mode = $7, notification_settings = $8, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	err = r.db.QueryRow(ctx, query,
		p.UserID, p.AvoidTolls, p.AvoidHighways, p.PreferEcoRoutes,
		p.MaxWalkingDistanceKm, p.MaxCyclingDistanceKm, p.DefaultTravelMode, settings,
	).Scan(&p.UpdatedAt)
	return mapError(err, "update preferences")
}
