package vehicle

import (
	"strings"
	"time"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"
)

const minVehicleYear = 1900

type CreateVehicleRequest struct {
	Make           string               `json:"make" binding:"required,max=100"`
	Model          string               `json:"model" binding:"required,max=100"`
	Year           int                  `json:"year" binding:"required"`
	VehicleType    emission.VehicleType `json:"vehicle_type" binding:"required"`
	FuelType       emission.FuelType    `json:"fuel_type" binding:"required"`
	FuelEfficiency *float64             `json:"fuel_efficiency,omitempty"`
	EngineSize     *float64             `json:"engine_size,omitempty"`
	Transmission   *TransmissionType    `json:"transmission,omitempty"`
	IsDefault      bool                 `json:"is_default,omitempty"`
}

type UpdateVehicleRequest struct {
	Make           *string               `json:"make,omitempty"`
	Model          *string               `json:"model,omitempty"`
	Year           *int                  `json:"year,omitempty"`
	VehicleType    *emission.VehicleType `json:"vehicle_type,omitempty"`
	FuelType       *emission.FuelType    `json:"fuel_type,omitempty"`
	FuelEfficiency *float64              `json:"fuel_efficiency,omitempty"`
	EngineSize     *float64              `json:"engine_size,omitempty"`
	Transmission   *TransmissionType     `json:"transmission,omitempty"`
	IsActive       *bool                 `json:"is_active,omitempty"`
}

type VehicleListFilters struct {
	IsActive *bool `form:"is_active"`
	Page     int   `form:"page"`
	PageSize int   `form:"page_size"`
}

type VehicleListResponse struct {
	Vehicles   []Vehicle `json:"vehicles"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// ToVehicle validates the request and builds an active, non-default vehicle.
func (r *CreateVehicleRequest) ToVehicle(userID int64, now time.Time) (*Vehicle, error) {
	v := &Vehicle{
		UserID:         userID,
		Make:           strings.TrimSpace(r.Make),
		Model:          strings.TrimSpace(r.Model),
		Year:           r.Year,
		VehicleType:    r.VehicleType,
		FuelType:       r.FuelType,
		FuelEfficiency: r.FuelEfficiency,
		EngineSize:     r.EngineSize,
		Transmission:   r.Transmission,
		IsActive:       true,
	}
	if err := v.Validate(now); err != nil {
		return nil, err
	}
	return v, nil
}

// Apply copies the non-nil fields onto v and revalidates it.
func (r *UpdateVehicleRequest) Apply(v *Vehicle, now time.Time) error {
	if r.Make != nil {
		v.Make = strings.TrimSpace(*r.Make)
	}
	if r.Model != nil {
		v.Model = strings.TrimSpace(*r.Model)
	}
	if r.Year != nil {
		v.Year = *r.Year
	}
	if r.VehicleType != nil {
		v.VehicleType = *r.VehicleType
	}
	if r.FuelType != nil {
		v.FuelType = *r.FuelType
	}
	if r.FuelEfficiency != nil {
		v.FuelEfficiency = r.FuelEfficiency
	}
	if r.EngineSize != nil {
		v.EngineSize = r.EngineSize
	}
	if r.Transmission != nil {
		v.Transmission = r.Transmission
	}
	if r.IsActive != nil {
		v.IsActive = *r.IsActive
	}
	return v.Validate(now)
}

func (v *Vehicle) Validate(now time.Time) error {
	if v.Make == "" {
		return xerrors.InvalidField("make", "must not be empty")
	}
	if v.Model == "" {
		return xerrors.InvalidField("model", "must not be empty")
	}
	if v.Year < minVehicleYear || v.Year > now.Year()+1 {
		return xerrors.InvalidField("year", "out of range")
	}
	if err := emission.ValidateProfile(v.VehicleType, v.FuelType); err != nil {
		return err
	}
	if v.FuelEfficiency != nil && *v.FuelEfficiency < 0 {
		return xerrors.InvalidField("fuel_efficiency", "must not be negative")
	}
	if v.EngineSize != nil && *v.EngineSize < 0 {
		return xerrors.InvalidField("engine_size", "must not be negative")
	}
	if v.Transmission != nil && *v.Transmission != TransmissionManual && *v.Transmission != TransmissionAutomatic {
		return xerrors.InvalidField("transmission", "must be manual or automatic")
	}
	return nil
}
