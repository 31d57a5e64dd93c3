package emission

import (
	"fmt"
	"math"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"
)

// GramsPerKg converts factor grams into reported kilograms.
const GramsPerKg = 1000.0

// DefaultBaselineGPerKm is the "average gasoline car" factor used for savings.
const DefaultBaselineGPerKm = 120.0

// ValidateDistance rejects negative and non-finite distances.
func ValidateDistance(distanceKm float64) error {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return xerrors.InvalidField("distance_km", "must be a finite number")
	}
	if distanceKm < 0 {
		return xerrors.InvalidField("distance_km", "must not be negative")
	}
	return nil
}

// ComputeEmissions returns the kg of CO2 for driving distanceKm with factor.
func ComputeEmissions(distanceKm float64, factor emission.EmissionFactor) (float64, error) {
	return ComputeWithFactor(distanceKm, factor.FactorGPerKm)
}

// ComputeWithFactor multiplies distance by grams per km and returns kg
// rounded to two decimals.
func ComputeWithFactor(distanceKm, factorGPerKm float64) (float64, error) {
	if err := ValidateDistance(distanceKm); err != nil {
		return 0, err
	}
	if err := emission.ValidateFactorValue(factorGPerKm); err != nil {
		return 0, err
	}
	return Round2(distanceKm * factorGPerKm / GramsPerKg), nil
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatKg renders a kg amount the way route options display it.
func FormatKg(kg float64) string {
	return fmt.Sprintf("%.2f kg", kg)
}
