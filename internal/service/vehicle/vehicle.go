// internal/service/vehicle/vehicle.go
package vehicle

import (
	"context"
	"fmt"
	"time"

	"carp-service/internal/domain/vehicle"
	xerrors "carp-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type VehicleService struct {
	vehicleRepo vehicle.Repository
	logger      *zap.Logger
	now         func() time.Time
}

func NewVehicleService(vehicleRepo vehicle.Repository, logger *zap.Logger) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// ========== Vehicle CRUD Operations ==========

// CreateVehicle stores a vehicle for the user. The user's first vehicle
// becomes the default, as does one created with is_default set.
func (s *VehicleService) CreateVehicle(ctx context.Context, userID int64, req *vehicle.CreateVehicleRequest) (*vehicle.Vehicle, error) {
	v, err := req.ToVehicle(userID, s.now())
	if err != nil {
		return nil, err
	}

	makeDefault := req.IsDefault
	if !makeDefault {
		_, err := s.vehicleRepo.FindDefaultByUser(ctx, userID)
		switch {
		case xerrors.Is(err, xerrors.ErrNotFound):
			makeDefault = true
		case err != nil:
			return nil, fmt.Errorf("failed to check default vehicle: %w", err)
		}
	}

	if makeDefault {
		err = s.vehicleRepo.CreateDefault(ctx, v)
	} else {
		err = s.vehicleRepo.Create(ctx, v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("vehicle created",
		zap.Int64("vehicle_id", v.ID),
		zap.Int64("user_id", userID),
		zap.Bool("is_default", v.IsDefault),
	)
	return v, nil
}

// GetVehicle returns the vehicle if the user owns it. Vehicles of other users
// are reported as not found.
func (s *VehicleService) GetVehicle(ctx context.Context, userID, vehicleID int64) (*vehicle.Vehicle, error) {
	v, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	if v.UserID != userID {
		return nil, fmt.Errorf("vehicle %d: %w", vehicleID, xerrors.ErrNotFound)
	}
	return v, nil
}

func (s *VehicleService) ListVehicles(ctx context.Context, userID int64, filters *vehicle.VehicleListFilters) (*vehicle.VehicleListResponse, error) {
	vehicles, total, err := s.vehicleRepo.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	return &vehicle.VehicleListResponse{
		Vehicles:   vehicles,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

// UpdateVehicle applies a partial update. Deactivating the default vehicle
// hands the default to another active vehicle of the user.
func (s *VehicleService) UpdateVehicle(ctx context.Context, userID, vehicleID int64, req *vehicle.UpdateVehicleRequest) (*vehicle.Vehicle, error) {
	v, err := s.GetVehicle(ctx, userID, vehicleID)
	if err != nil {
		return nil, err
	}

	wasDefault := v.IsDefault
	if err := req.Apply(v, s.now()); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	if wasDefault && !v.IsDefault {
		s.promoteNextDefault(ctx, userID, vehicleID)
	}

	s.logger.Info("vehicle updated", zap.Int64("vehicle_id", vehicleID))
	return v, nil
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, userID, vehicleID int64) error {
	v, err := s.GetVehicle(ctx, userID, vehicleID)
	if err != nil {
		return err
	}

	if err := s.vehicleRepo.Delete(ctx, vehicleID); err != nil {
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	if v.IsDefault {
		s.promoteNextDefault(ctx, userID, vehicleID)
	}

	s.logger.Info("vehicle deleted", zap.Int64("vehicle_id", vehicleID), zap.Int64("user_id", userID))
	return nil
}

// SetDefaultVehicle makes the vehicle the user's only default.
func (s *VehicleService) SetDefaultVehicle(ctx context.Context, userID, vehicleID int64) (*vehicle.Vehicle, error) {
	if _, err := s.GetVehicle(ctx, userID, vehicleID); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.SetDefault(ctx, userID, vehicleID); err != nil {
		return nil, fmt.Errorf("failed to set default vehicle: %w", err)
	}

	return s.GetVehicle(ctx, userID, vehicleID)
}

// promoteNextDefault is best-effort: a user without a default simply has
// trips fall back to an explicit vehicle.
func (s *VehicleService) promoteNextDefault(ctx context.Context, userID, formerID int64) {
	active := true
	candidates, _, err := s.vehicleRepo.ListByUser(ctx, userID, &vehicle.VehicleListFilters{IsActive: &active})
	if err != nil {
		s.logger.Warn("failed to list vehicles for default promotion", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	for _, c := range candidates {
		if c.ID == formerID {
			continue
		}
		if err := s.vehicleRepo.SetDefault(ctx, userID, c.ID); err != nil {
			s.logger.Warn("failed to promote default vehicle", zap.Int64("vehicle_id", c.ID), zap.Error(err))
		}
		return
	}
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
