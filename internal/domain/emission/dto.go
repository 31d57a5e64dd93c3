package emission

import (
	"fmt"
	"math"
	"strings"

	xerrors "carp-service/internal/pkg/errors"
)

// CreateFactorRequest is used by admins to add a factor.
type CreateFactorRequest struct {
	VehicleType  VehicleType `json:"vehicle_type" binding:"required"`
	FuelType     FuelType    `json:"fuel_type" binding:"required"`
	FactorGPerKm float64     `json:"factor_g_per_km"`
	Description  string      `json:"description" binding:"max=500"`
	Source       *string     `json:"source,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
}

// UpdateFactorRequest is a partial update; nil fields are left untouched.
type UpdateFactorRequest struct {
	FactorGPerKm *float64  `json:"factor_g_per_km,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Source       *string   `json:"source,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

type FactorListFilters struct {
	VehicleType VehicleType `form:"vehicle_type"`
	FuelType    FuelType    `form:"fuel_type"`
	IsActive    *bool       `form:"is_active"`
	Page        int         `form:"page"`
	PageSize    int         `form:"page_size"`
}

type FactorListResponse struct {
	Factors    []EmissionFactor `json:"factors"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// ValidateProfile checks the vehicle/fuel pair against the enumerated sets.
func ValidateProfile(vt VehicleType, ft FuelType) error {
	if !vt.Valid() {
		return xerrors.InvalidField("vehicle_type", fmt.Sprintf("unknown vehicle type %q", vt))
	}
	if !ft.Valid() {
		return xerrors.InvalidField("fuel_type", fmt.Sprintf("unknown fuel type %q", ft))
	}
	return nil
}

// ValidateFactorValue rejects negative and non-finite factors.
func ValidateFactorValue(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return xerrors.InvalidField("factor_g_per_km", "must be a finite number")
	}
	if v < 0 {
		return xerrors.InvalidField("factor_g_per_km", "must not be negative")
	}
	return nil
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Validate checks a create request and normalizes its tags in place.
func (r *CreateFactorRequest) Validate() error {
	if err := ValidateProfile(r.VehicleType, r.FuelType); err != nil {
		return err
	}
	if err := ValidateFactorValue(r.FactorGPerKm); err != nil {
		return err
	}
	r.Tags = NormalizeTags(r.Tags)
	return nil
}

// Apply copies the non-nil fields of the request onto f.
func (r *UpdateFactorRequest) Apply(f *EmissionFactor) error {
	if r.FactorGPerKm != nil {
		if err := ValidateFactorValue(*r.FactorGPerKm); err != nil {
			return err
		}
		f.FactorGPerKm = *r.FactorGPerKm
	}
	if r.Description != nil {
		f.Description = *r.Description
	}
	if r.Source != nil {
		f.Source = r.Source
	}
	if r.Tags != nil {
		f.Tags = NormalizeTags(*r.Tags)
	}
	if r.IsActive != nil {
		f.IsActive = *r.IsActive
	}
	return nil
}
