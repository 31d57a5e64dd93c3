// internal/service/trip/trip.go
package trip

import (
	"context"
	"fmt"

	"carp-service/internal/domain/emission"
	"carp-service/internal/domain/stats"
	"carp-service/internal/domain/trip"
	"carp-service/internal/domain/vehicle"
	xerrors "carp-service/internal/pkg/errors"
	emissionsvc "carp-service/internal/service/emission"

	"go.uber.org/zap"
)

// transitProfile is used for transit trips that name no vehicle.
var transitProfile = emission.Profile{
	VehicleType: emission.VehicleTypeBus,
	FuelType:    emission.FuelTypeDiesel,
}

type FactorResolver interface {
	Resolve(ctx context.Context, p emission.Profile) (*emissionsvc.Resolution, error)
}

type VehicleFinder interface {
	FindByID(ctx context.Context, id int64) (*vehicle.Vehicle, error)
	FindDefaultByUser(ctx context.Context, userID int64) (*vehicle.Vehicle, error)
}

type FactorReference interface {
	ActiveFactorValues(ctx context.Context) ([]float64, error)
}

// Notifier pushes back-filled trips to their owners.
type Notifier interface {
	NotifyEmissionsResolved(userID int64, trips []trip.Trip)
}

type TripService struct {
	tripRepo       trip.Repository
	vehicles       VehicleFinder
	resolver       FactorResolver
	factors        FactorReference
	notifier       Notifier
	baselineGPerKm float64
	logger         *zap.Logger
}

func NewTripService(
	tripRepo trip.Repository,
	vehicles VehicleFinder,
	resolver FactorResolver,
	factors FactorReference,
	notifier Notifier,
	baselineGPerKm float64,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		tripRepo:       tripRepo,
		vehicles:       vehicles,
		resolver:       resolver,
		factors:        factors,
		notifier:       notifier,
		baselineGPerKm: baselineGPerKm,
		logger:         logger,
	}
}

// assessment is the emission outcome for one distance and mode.
type assessment struct {
	vehicleID  *int64
	profile    *emission.Profile
	resolution *emissionsvc.Resolution
	status     trip.EmissionStatus
	co2Kg      *float64
}

// assess picks the vehicle, resolves its factor and computes kg of CO2. A
// missing factor is not an error: the outcome is pending.
func (s *TripService) assess(ctx context.Context, userID int64, vehicleID *int64, mode trip.TravelMode, distanceKm float64) (*assessment, error) {
	if err := emissionsvc.ValidateDistance(distanceKm); err != nil {
		return nil, err
	}

	if mode.HumanPowered() {
		zero := 0.0
		return &assessment{status: trip.EmissionStatusNotApplicable, co2Kg: &zero}, nil
	}

	a := &assessment{}
	profile, usedID, err := s.profileFor(ctx, userID, vehicleID, mode)
	if err != nil {
		return nil, err
	}
	a.profile, a.vehicleID = &profile, usedID

	res, err := s.resolver.Resolve(ctx, profile)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNoFactorAvailable) {
			a.status = trip.EmissionStatusPending
			return a, nil
		}
		return nil, fmt.Errorf("failed to resolve emission factor: %w", err)
	}

	co2, err := emissionsvc.ComputeEmissions(distanceKm, res.Factor)
	if err != nil {
		return nil, err
	}
	a.resolution, a.status, a.co2Kg = res, trip.EmissionStatusComputed, &co2
	return a, nil
}

func (s *TripService) profileFor(ctx context.Context, userID int64, vehicleID *int64, mode trip.TravelMode) (emission.Profile, *int64, error) {
	if vehicleID != nil {
		v, err := s.vehicles.FindByID(ctx, *vehicleID)
		if err != nil {
			return emission.Profile{}, nil, fmt.Errorf("failed to get vehicle: %w", err)
		}
		if v.UserID != userID {
			return emission.Profile{}, nil, fmt.Errorf("vehicle %d: %w", *vehicleID, xerrors.ErrNotFound)
		}
		if !v.IsActive {
			return emission.Profile{}, nil, xerrors.InvalidField("vehicle_id", "vehicle is inactive")
		}
		id := v.ID
		return v.Profile(), &id, nil
	}

	if mode == trip.TravelModeTransit {
		return transitProfile, nil, nil
	}

	v, err := s.vehicles.FindDefaultByUser(ctx, userID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return emission.Profile{}, nil, xerrors.InvalidField("vehicle_id", "no vehicle given and no default vehicle set")
		}
		return emission.Profile{}, nil, fmt.Errorf("failed to get default vehicle: %w", err)
	}
	id := v.ID
	return v.Profile(), &id, nil
}

// ========== Trip Operations ==========

// CreateTrip stores a trip with its emissions frozen at creation time.
func (s *TripService) CreateTrip(ctx context.Context, userID int64, req *trip.CreateTripRequest) (*trip.Trip, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	a, err := s.assess(ctx, userID, req.VehicleID, req.TravelMode, req.DistanceKm)
	if err != nil {
		return nil, err
	}

	t := &trip.Trip{
		UserID:          userID,
		VehicleID:       a.vehicleID,
		Origin:          req.Origin,
		Destination:     req.Destination,
		DistanceKm:      req.DistanceKm,
		DurationMinutes: req.DurationMinutes,
		Co2Emissions:    a.co2Kg,
		RouteData:       req.RouteData,
		TravelMode:      req.TravelMode,
		EmissionStatus:  a.status,
	}
	if a.profile != nil {
		vt, ft := a.profile.VehicleType, a.profile.FuelType
		t.VehicleType, t.FuelType = &vt, &ft
	}
	if a.resolution != nil {
		factorID, g := a.resolution.Factor.ID, a.resolution.Factor.FactorGPerKm
		t.EmissionFactorID, t.FactorGPerKm = &factorID, &g
	}

	if err := s.tripRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	if t.EmissionStatus == trip.EmissionStatusPending {
		s.logger.Warn("no emission factor covers trip, stored as pending",
			zap.Int64("trip_id", t.ID),
			zap.String("vehicle_type", string(*t.VehicleType)),
			zap.String("fuel_type", string(*t.FuelType)),
		)
	} else {
		s.logger.Info("trip created",
			zap.Int64("trip_id", t.ID),
			zap.Int64("user_id", userID),
			zap.String("emission_status", string(t.EmissionStatus)),
		)
	}
	return t, nil
}

func (s *TripService) GetTrip(ctx context.Context, userID, tripID int64) (*trip.Trip, error) {
	t, err := s.tripRepo.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("trip %d: %w", tripID, xerrors.ErrNotFound)
	}
	return t, nil
}

func (s *TripService) ListTrips(ctx context.Context, userID int64, filters *trip.TripListFilters) (*trip.TripListResponse, error) {
	trips, total, err := s.tripRepo.ListByUser(ctx, userID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}

	var pages int
	if filters.PageSize > 0 {
		pages = int((total + int64(filters.PageSize) - 1) / int64(filters.PageSize))
	}
	return &trip.TripListResponse{
		Trips:      trips,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pages,
	}, nil
}

func (s *TripService) DeleteTrip(ctx context.Context, userID, tripID int64) error {
	if _, err := s.GetTrip(ctx, userID, tripID); err != nil {
		return err
	}
	if err := s.tripRepo.Delete(ctx, tripID); err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	return nil
}

// Estimate computes the emissions of a route option without storing anything.
func (s *TripService) Estimate(ctx context.Context, userID int64, req *trip.EstimateRequest) (*trip.EstimateResponse, error) {
	mode, err := trip.NormalizeTravelMode(req.TravelMode)
	if err != nil {
		return nil, err
	}

	a, err := s.assess(ctx, userID, req.VehicleID, mode, req.DistanceKm)
	if err != nil {
		return nil, err
	}

	resp := &trip.EstimateResponse{
		DistanceKm:     req.DistanceKm,
		TravelMode:     mode,
		EmissionStatus: a.status,
		Co2Kg:          a.co2Kg,
	}
	if a.co2Kg != nil {
		resp.Co2 = emissionsvc.FormatKg(*a.co2Kg)
	}
	if a.resolution != nil {
		factorID, g := a.resolution.Factor.ID, a.resolution.Factor.FactorGPerKm
		resp.EmissionFactorID, resp.FactorGPerKm = &factorID, &g
		resp.ResolvedBy = a.resolution.Rule
		resp.Approximate = a.resolution.Approximate
	}
	return resp, nil
}

// DashboardStats aggregates all of a user's trips. Ratings rank against the
// currently active factors.
func (s *TripService) DashboardStats(ctx context.Context, userID int64) (*stats.DashboardStats, error) {
	trips, err := s.tripRepo.ListAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	reference, err := s.factors.ActiveFactorValues(ctx)
	if err != nil {
		s.logger.Warn("failed to load reference factors, rating against trip factors", zap.Error(err))
		reference = nil
	}

	out := emissionsvc.Aggregate(trips, emissionsvc.AggregateOptions{
		BaselineGPerKm:   s.baselineGPerKm,
		ReferenceFactors: reference,
	})
	return &out, nil
}

// ========== Pending back-fill ==========

// ResolvePending computes emissions for pending trips of the pair now that a
// factor may cover them. Trips resolved elsewhere in the meantime are left
// alone. It returns how many trips were filled.
func (s *TripService) ResolvePending(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) (int, error) {
	pending, err := s.tripRepo.ListPending(ctx, vt, ft)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending trips: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	filled := map[int64][]trip.Trip{}
	count := 0
	var loopErr error
	for i := range pending {
		t := pending[i]

		res, err := s.resolver.Resolve(ctx, s.pendingProfile(ctx, &t, vt, ft))
		if err != nil {
			if !xerrors.Is(err, xerrors.ErrNoFactorAvailable) {
				loopErr = fmt.Errorf("failed to resolve emission factor: %w", err)
			}
			break
		}

		co2, err := emissionsvc.ComputeEmissions(t.DistanceKm, res.Factor)
		if err != nil {
			s.logger.Warn("skipping pending trip", zap.Int64("trip_id", t.ID), zap.Error(err))
			continue
		}
		factorID, g := res.Factor.ID, res.Factor.FactorGPerKm
		t.Co2Emissions, t.EmissionFactorID, t.FactorGPerKm = &co2, &factorID, &g

		ok, err := s.tripRepo.FillPending(ctx, &t)
		if err != nil {
			loopErr = err
			break
		}
		if !ok {
			continue
		}
		t.EmissionStatus = trip.EmissionStatusComputed
		filled[t.UserID] = append(filled[t.UserID], t)
		count++
	}

	// trips filled before a failure are committed, so their owners still hear about them
	if s.notifier != nil {
		for userID, trips := range filled {
			s.notifier.NotifyEmissionsResolved(userID, trips)
		}
	}

	s.logger.Info("pending trips resolved",
		zap.String("vehicle_type", string(vt)),
		zap.String("fuel_type", string(ft)),
		zap.Int("filled", count),
	)
	if loopErr != nil {
		return count, loopErr
	}
	return count, nil
}

// pendingProfile reuses the vehicle's hints while it still matches the
// snapshot taken when the trip was stored.
func (s *TripService) pendingProfile(ctx context.Context, t *trip.Trip, vt emission.VehicleType, ft emission.FuelType) emission.Profile {
	p := emission.Profile{VehicleType: vt, FuelType: ft}
	if t.VehicleID == nil {
		return p
	}
	v, err := s.vehicles.FindByID(ctx, *t.VehicleID)
	if err != nil || v.VehicleType != vt || v.FuelType != ft {
		return p
	}
	return v.Profile()
}
