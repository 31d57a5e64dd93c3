package trip

import (
	"strings"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"
)

type CreateTripRequest struct {
	VehicleID       *int64                 `json:"vehicle_id,omitempty"`
	Origin          string                 `json:"origin" binding:"required,max=255"`
	Destination     string                 `json:"destination" binding:"required,max=255"`
	DistanceKm      float64                `json:"distance_km"`
	DurationMinutes *int                   `json:"duration_minutes,omitempty"`
	TravelMode      TravelMode             `json:"travel_mode,omitempty"`
	RouteData       map[string]interface{} `json:"route_data,omitempty"`
}

// EstimateRequest asks for the emissions of a route option without storing a trip.
type EstimateRequest struct {
	VehicleID  *int64     `json:"vehicle_id,omitempty"`
	DistanceKm float64    `json:"distance_km"`
	TravelMode TravelMode `json:"travel_mode,omitempty"`
}

type EstimateResponse struct {
	DistanceKm       float64        `json:"distance_km"`
	TravelMode       TravelMode     `json:"travel_mode"`
	EmissionStatus   EmissionStatus `json:"emission_status"`
	Co2Kg            *float64       `json:"co2_kg"`
	Co2              string         `json:"co2"`
	EmissionFactorID *int64         `json:"emission_factor_id,omitempty"`
	FactorGPerKm     *float64       `json:"factor_g_per_km,omitempty"`
	ResolvedBy       string         `json:"resolved_by,omitempty"`
	Approximate      bool           `json:"approximate"`
}

type TripListFilters struct {
	VehicleID      *int64         `form:"vehicle_id"`
	TravelMode     TravelMode     `form:"travel_mode"`
	EmissionStatus EmissionStatus `form:"emission_status"`
	Page           int            `form:"page"`
	PageSize       int            `form:"page_size"`
}

type TripListResponse struct {
	Trips      []Trip `json:"trips"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// PendingKey groups pending trips by the factor pair that would cover them.
type PendingKey struct {
	VehicleType emission.VehicleType
	FuelType    emission.FuelType
}

// Normalize trims the free-text fields and defaults the travel mode.
func (r *CreateTripRequest) Normalize() error {
	r.Origin = strings.TrimSpace(r.Origin)
	r.Destination = strings.TrimSpace(r.Destination)
	if r.Origin == "" {
		return xerrors.InvalidField("origin", "must not be empty")
	}
	if r.Destination == "" {
		return xerrors.InvalidField("destination", "must not be empty")
	}
	if r.DurationMinutes != nil && *r.DurationMinutes < 0 {
		return xerrors.InvalidField("duration_minutes", "must not be negative")
	}
	mode, err := NormalizeTravelMode(r.TravelMode)
	if err != nil {
		return err
	}
	r.TravelMode = mode
	return nil
}

// NormalizeTravelMode defaults an empty mode to driving and rejects unknown ones.
func NormalizeTravelMode(m TravelMode) (TravelMode, error) {
	if m == "" {
		return TravelModeDriving, nil
	}
	if !m.Valid() {
		return "", xerrors.InvalidField("travel_mode", "unknown travel mode "+string(m))
	}
	return m, nil
}
