// internal/domain/trip/entity.go
package trip

import (
	"time"

	"carp-service/internal/domain/emission"
)

type TravelMode string
type EmissionStatus string

const (
	TravelModeDriving TravelMode = "driving"
	TravelModeCycling TravelMode = "cycling"
	TravelModeWalking TravelMode = "walking"
	TravelModeTransit TravelMode = "transit"

	// EmissionStatusComputed trips carry a frozen co2_emissions value.
	EmissionStatusComputed EmissionStatus = "computed"
	// EmissionStatusPending trips had no covering factor when they were created.
	EmissionStatusPending EmissionStatus = "pending"
	// EmissionStatusNotApplicable trips are human powered and emit nothing.
	EmissionStatusNotApplicable EmissionStatus = "not_applicable"
)

func (m TravelMode) Valid() bool {
	switch m {
	case TravelModeDriving, TravelModeCycling, TravelModeWalking, TravelModeTransit:
		return true
	}
	return false
}

// HumanPowered reports modes that never need an emission factor.
func (m TravelMode) HumanPowered() bool {
	return m == TravelModeCycling || m == TravelModeWalking
}

type Trip struct {
	ID               int64                  `json:"id" db:"id"`
	UserID           int64                  `json:"user_id" db:"user_id"`
	VehicleID        *int64                 `json:"vehicle_id,omitempty" db:"vehicle_id"`
	Origin           string                 `json:"origin" db:"origin"`
	Destination      string                 `json:"destination" db:"destination"`
	DistanceKm       float64                `json:"distance_km" db:"distance_km"`
	DurationMinutes  *int                   `json:"duration_minutes,omitempty" db:"duration_minutes"`
	Co2Emissions     *float64               `json:"co2_emissions" db:"co2_emissions"` // kg
	RouteData        map[string]interface{} `json:"route_data,omitempty" db:"route_data"`
	TravelMode       TravelMode             `json:"travel_mode" db:"travel_mode"`
	EmissionStatus   EmissionStatus         `json:"emission_status" db:"emission_status"`
	EmissionFactorID *int64                 `json:"emission_factor_id,omitempty" db:"emission_factor_id"`
	FactorGPerKm     *float64               `json:"factor_g_per_km,omitempty" db:"factor_g_per_km"`
	VehicleType      *emission.VehicleType  `json:"vehicle_type,omitempty" db:"vehicle_type"`
	FuelType         *emission.FuelType     `json:"fuel_type,omitempty" db:"fuel_type"`
	CreatedAt        time.Time              `json:"created_at" db:"created_at"`
}

// HasKnownEmissions reports whether co2_emissions is set.
func (t *Trip) HasKnownEmissions() bool {
	return t.Co2Emissions != nil
}

// IsEco reports trips on low-carbon fuel or human power.
func (t *Trip) IsEco() bool {
	if t.TravelMode.HumanPowered() {
		return true
	}
	return t.FuelType != nil && t.FuelType.IsLowCarbon()
}
