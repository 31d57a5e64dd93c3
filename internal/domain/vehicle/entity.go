// internal/domain/vehicle/entity.go
package vehicle

import (
	"time"

	"carp-service/internal/domain/emission"
)

type TransmissionType string

const (
	TransmissionManual    TransmissionType = "manual"
	TransmissionAutomatic TransmissionType = "automatic"
)

// Vehicle is owned by exactly one user. At most one of a user's vehicles is the default.
type Vehicle struct {
	ID             int64                `json:"id" db:"id"`
	UserID         int64                `json:"user_id" db:"user_id"`
	Make           string               `json:"make" db:"make"`
	Model          string               `json:"model" db:"model"`
	Year           int                  `json:"year" db:"year"`
	VehicleType    emission.VehicleType `json:"vehicle_type" db:"vehicle_type"`
	FuelType       emission.FuelType    `json:"fuel_type" db:"fuel_type"`
	FuelEfficiency *float64             `json:"fuel_efficiency,omitempty" db:"fuel_efficiency"` // L/100km
	EngineSize     *float64             `json:"engine_size,omitempty" db:"engine_size"`         // litres
	Transmission   *TransmissionType    `json:"transmission,omitempty" db:"transmission"`
	IsDefault      bool                 `json:"is_default" db:"is_default"`
	IsActive       bool                 `json:"is_active" db:"is_active"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" db:"updated_at"`
}

// Profile returns the fields the factor resolver consumes.
func (v *Vehicle) Profile() emission.Profile {
	return emission.Profile{
		VehicleType:    v.VehicleType,
		FuelType:       v.FuelType,
		EngineSize:     v.EngineSize,
		FuelEfficiency: v.FuelEfficiency,
	}
}
