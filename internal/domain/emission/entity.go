// internal/domain/emission/entity.go
package emission

import (
	"strings"
	"time"
	"unicode"
)

type VehicleType string
type FuelType string

const (
	VehicleTypeCar        VehicleType = "car"
	VehicleTypeMotorcycle VehicleType = "motorcycle"
	VehicleTypeTruck      VehicleType = "truck"
	VehicleTypeBus        VehicleType = "bus"
	VehicleTypeVan        VehicleType = "van"

	FuelTypeGasoline FuelType = "gasoline"
	FuelTypeDiesel   FuelType = "diesel"
	FuelTypeElectric FuelType = "electric"
	FuelTypeHybrid   FuelType = "hybrid"
	FuelTypeLPG      FuelType = "lpg"
	FuelTypeCNG      FuelType = "cng"
)

// Classification labels carried in factor tags or description words.
const (
	TagSmall       = "small"
	TagMedium      = "medium"
	TagLarge       = "large"
	TagEfficient   = "efficient"
	TagInefficient = "inefficient"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleTypeCar, VehicleTypeMotorcycle, VehicleTypeTruck, VehicleTypeBus, VehicleTypeVan:
		return true
	}
	return false
}

func (f FuelType) Valid() bool {
	switch f {
	case FuelTypeGasoline, FuelTypeDiesel, FuelTypeElectric, FuelTypeHybrid, FuelTypeLPG, FuelTypeCNG:
		return true
	}
	return false
}

// IsLowCarbon reports whether the fuel counts towards eco trips.
func (f FuelType) IsLowCarbon() bool {
	return f == FuelTypeElectric || f == FuelTypeHybrid
}

// EmissionFactor is grams of CO2 emitted per vehicle-km for a vehicle/fuel pair.
type EmissionFactor struct {
	ID           int64       `json:"id" db:"id"`
	VehicleType  VehicleType `json:"vehicle_type" db:"vehicle_type"`
	FuelType     FuelType    `json:"fuel_type" db:"fuel_type"`
	FactorGPerKm float64     `json:"factor_g_per_km" db:"factor_g_per_km"`
	Description  string      `json:"description" db:"description"`
	Source       *string     `json:"source,omitempty" db:"source"`
	Tags         []string    `json:"tags" db:"tags"`
	Version      int         `json:"version" db:"version"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedBy    *int64      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Covers reports whether the factor applies to the given vehicle/fuel pair.
func (f *EmissionFactor) Covers(vt VehicleType, ft FuelType) bool {
	return f.VehicleType == vt && f.FuelType == ft
}

// HasLabel matches a classification label against the tags first, then
// against whole words of the description. Matching is case-insensitive.
func (f *EmissionFactor) HasLabel(label string) bool {
	for _, t := range f.Tags {
		if strings.EqualFold(strings.TrimSpace(t), label) {
			return true
		}
	}
	words := strings.FieldsFunc(f.Description, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if strings.EqualFold(w, label) {
			return true
		}
	}
	return false
}

// Profile is the subset of a vehicle the resolver looks at.
// EngineSize is in litres, FuelEfficiency in litres per 100 km.
type Profile struct {
	VehicleType    VehicleType `json:"vehicle_type"`
	FuelType       FuelType    `json:"fuel_type"`
	EngineSize     *float64    `json:"engine_size,omitempty"`
	FuelEfficiency *float64    `json:"fuel_efficiency,omitempty"`
}
