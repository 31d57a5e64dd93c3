package preferences

import (
	"math"

	"carp-service/internal/domain/trip"
	xerrors "carp-service/internal/pkg/errors"
)

type UpdatePreferencesRequest struct {
	AvoidTolls           *bool                  `json:"avoid_tolls,omitempty"`
	AvoidHighways        *bool                  `json:"avoid_highways,omitempty"`
	PreferEcoRoutes      *bool                  `json:"prefer_eco_routes,omitempty"`
	MaxWalkingDistanceKm *float64               `json:"max_walking_distance_km,omitempty"`
	MaxCyclingDistanceKm *float64               `json:"max_cycling_distance_km,omitempty"`
	DefaultTravelMode    *trip.TravelMode       `json:"default_travel_mode,omitempty"`
	NotificationSettings map[string]interface{} `json:"notification_settings,omitempty"`
}

// Apply validates the request and merges it into p. Notification settings
// are merged key by key.
func (r *UpdatePreferencesRequest) Apply(p *UserPreferences) error {
	if r.MaxWalkingDistanceKm != nil {
		if err := validateDistance("max_walking_distance_km", *r.MaxWalkingDistanceKm); err != nil {
			return err
		}
	}
	if r.MaxCyclingDistanceKm != nil {
		if err := validateDistance("max_cycling_distance_km", *r.MaxCyclingDistanceKm); err != nil {
			return err
		}
	}
	if r.DefaultTravelMode != nil && !r.DefaultTravelMode.Valid() {
		return xerrors.InvalidField("default_travel_mode", "unknown travel mode "+string(*r.DefaultTravelMode))
	}

	if r.AvoidTolls != nil {
		p.AvoidTolls = *r.AvoidTolls
	}
	if r.AvoidHighways != nil {
		p.AvoidHighways = *r.AvoidHighways
	}
	if r.PreferEcoRoutes != nil {
		p.PreferEcoRoutes = *r.PreferEcoRoutes
	}
	if r.MaxWalkingDistanceKm != nil {
		p.MaxWalkingDistanceKm = *r.MaxWalkingDistanceKm
	}
	if r.MaxCyclingDistanceKm != nil {
		p.MaxCyclingDistanceKm = *r.MaxCyclingDistanceKm
	}
	if r.DefaultTravelMode != nil {
		p.DefaultTravelMode = *r.DefaultTravelMode
	}
	if len(r.NotificationSettings) > 0 {
		if p.NotificationSettings == nil {
			p.NotificationSettings = make(map[string]interface{}, len(r.NotificationSettings))
		}
		for k, v := range r.NotificationSettings {
			p.NotificationSettings[k] = v
		}
	}
	return nil
}

func validateDistance(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return xerrors.InvalidField(field, "must be a non-negative number")
	}
	return nil
}
