// internal/domain/preferences/entity.go
package preferences

import (
	"time"

	"carp-service/internal/domain/trip"
)

const (
	DefaultMaxWalkingDistanceKm = 2.0
	DefaultMaxCyclingDistanceKm = 10.0
)

type UserPreferences struct {
	ID                   int64                  `json:"id" db:"id"`
	UserID               int64                  `json:"user_id" db:"user_id"`
	AvoidTolls           bool                   `json:"avoid_tolls" db:"avoid_tolls"`
	AvoidHighways        bool                   `json:"avoid_highways" db:"avoid_highways"`
	PreferEcoRoutes      bool                   `json:"prefer_eco_routes" db:"prefer_eco_routes"`
	MaxWalkingDistanceKm float64                `json:"max_walking_distance_km" db:"max_walking_distance_km"`
	MaxCyclingDistanceKm float64                `json:"max_cycling_distance_km" db:"max_cycling_distance_km"`
	DefaultTravelMode    trip.TravelMode        `json:"default_travel_mode" db:"default_travel_mode"`
	NotificationSettings map[string]interface{} `json:"notification_settings" db:"notification_settings"`
	CreatedAt            time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at" db:"updated_at"`
}

// Defaults returns the preferences a user gets before saving any.
func Defaults(userID int64) *UserPreferences {
	return &UserPreferences{
		UserID:               userID,
		PreferEcoRoutes:      true,
		MaxWalkingDistanceKm: DefaultMaxWalkingDistanceKm,
		MaxCyclingDistanceKm: DefaultMaxCyclingDistanceKm,
		DefaultTravelMode:    trip.TravelModeDriving,
		NotificationSettings: map[string]interface{}{
			"email":          true,
			"push":           false,
			"trip_emissions": true,
		},
	}
}
