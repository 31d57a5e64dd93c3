// internal/service/admin/admin.go
package admin

import (
	"context"
	"fmt"
	"strings"

	"carp-service/internal/domain/audit"
	"carp-service/internal/domain/emission"
	"carp-service/internal/domain/stats"
	"carp-service/internal/domain/user"
	xerrors "carp-service/internal/pkg/errors"
	auditsvc "carp-service/internal/service/audit"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserStore interface {
	List(ctx context.Context, filters *user.UserListFilters) ([]user.User, int64, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*user.User, error)
	UpdateWithTx(ctx context.Context, tx pgx.Tx, u *user.User) error
	DeleteWithTx(ctx context.Context, tx pgx.Tx, id int64) error
}

type FactorStore interface {
	List(ctx context.Context, filters *emission.FactorListFilters) ([]emission.EmissionFactor, int64, error)
	CreateWithTx(ctx context.Context, tx pgx.Tx, f *emission.EmissionFactor) error
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*emission.EmissionFactor, error)
	UpdateWithTx(ctx context.Context, tx pgx.Tx, f *emission.EmissionFactor) error
	DeactivateWithTx(ctx context.Context, tx pgx.Tx, id int64) error
}

type StatsReader interface {
	AdminStats(ctx context.Context) (*stats.AdminStats, error)
}

type LogReader interface {
	List(ctx context.Context, filters *audit.LogListFilters) ([]audit.AdminLog, int64, error)
}

// PendingResolver back-fills trips a new or reactivated factor now covers.
type PendingResolver interface {
	ResolvePending(ctx context.Context, vt emission.VehicleType, ft emission.FuelType) (int, error)
}

// SessionRevoker drops the tokens of a user whose access changed.
type SessionRevoker interface {
	RevokeUser(ctx context.Context, userID int64) error
}

type AdminService struct {
	users    UserStore
	factors  FactorStore
	stats    StatsReader
	logs     LogReader
	recorder *auditsvc.Recorder
	pending  PendingResolver
	sessions SessionRevoker
	logger   *zap.Logger
}

func NewAdminService(
	users UserStore,
	factors FactorStore,
	statsReader StatsReader,
	logs LogReader,
	recorder *auditsvc.Recorder,
	pending PendingResolver,
	sessions SessionRevoker,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		factors:  factors,
		stats:    statsReader,
		logs:     logs,
		recorder: recorder,
		pending:  pending,
		sessions: sessions,
		logger:   logger,
	}
}

// ========== Users ==========

func (s *AdminService) ListUsers(ctx context.Context, filters *user.UserListFilters) (*user.UserListResponse, error) {
	filters.Search = strings.TrimSpace(filters.Search)
	users, total, err := s.users.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &user.UserListResponse{
		Users:      users,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

// UpdateUser changes a user's name, role or active flag. Role changes are
// recorded as update_user_role. Admins cannot demote or deactivate themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actor audit.Actor, userID int64, req *user.UpdateUserRequest) (*user.User, error) {
	if req.Role != nil && !req.Role.Valid() {
		return nil, xerrors.InvalidField("role", "must be user or admin")
	}
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return nil, xerrors.InvalidField("full_name", "must not be empty")
	}
	if actor.AdminID == userID {
		if req.Role != nil && *req.Role != user.RoleAdmin {
			return nil, fmt.Errorf("%w: admins cannot change their own role", xerrors.ErrForbidden)
		}
		if req.IsActive != nil && !*req.IsActive {
			return nil, fmt.Errorf("%w: admins cannot deactivate themselves", xerrors.ErrForbidden)
		}
	}

	var old, updated *user.User
	action := audit.ActionUpdateUser
	err := s.recorder.Run(ctx, auditsvc.Mutation{
		Actor:      actor,
		Action:     audit.ActionUpdateUser,
		TargetType: audit.TargetUser,
		TargetID:   &userID,
	}, func(ctx context.Context, tx pgx.Tx) (*auditsvc.Change, error) {
		u, err := s.users.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		before := *u
		old = &before

		// the locked row decides whether this is a role change
		if req.Role != nil && *req.Role != u.Role {
			action = audit.ActionUpdateUserRole
		}
		if req.FullName != nil {
			u.FullName = strings.TrimSpace(*req.FullName)
		}
		if req.Role != nil {
			u.Role = *req.Role
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}

		if err := s.users.UpdateWithTx(ctx, tx, u); err != nil {
			return nil, err
		}
		updated = u
		return &auditsvc.Change{Action: action, Old: before, New: u}, nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Role != old.Role || (old.IsActive && !updated.IsActive) {
		s.revoke(ctx, userID)
	}

	s.logger.Info("user updated by admin",
		zap.Int64("admin_id", actor.AdminID),
		zap.Int64("user_id", userID),
		zap.String("action", string(action)),
	)
	return updated, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor audit.Actor, userID int64) error {
	if actor.AdminID == userID {
		return fmt.Errorf("%w: admins cannot delete themselves", xerrors.ErrForbidden)
	}

	err := s.recorder.Run(ctx, auditsvc.Mutation{
		Actor:      actor,
		Action:     audit.ActionDeleteUser,
		TargetType: audit.TargetUser,
		TargetID:   &userID,
	}, func(ctx context.Context, tx pgx.Tx) (*auditsvc.Change, error) {
		u, err := s.users.FindByIDForUpdate(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
		if err := s.users.DeleteWithTx(ctx, tx, userID); err != nil {
			return nil, err
		}
		return &auditsvc.Change{Old: u}, nil
	})
	if err != nil {
		return err
	}

	s.revoke(ctx, userID)
	s.logger.Info("user deleted by admin", zap.Int64("admin_id", actor.AdminID), zap.Int64("user_id", userID))
	return nil
}

func (s *AdminService) revoke(ctx context.Context, userID int64) {
	if s.sessions == nil {
		return
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke user sessions", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ========== Emission factors ==========

func (s *AdminService) ListEmissionFactors(ctx context.Context, filters *emission.FactorListFilters) (*emission.FactorListResponse, error) {
	factors, total, err := s.factors.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list emission factors: %w", err)
	}

	return &emission.FactorListResponse{
		Factors:    factors,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

func (s *AdminService) CreateEmissionFactor(ctx context.Context, actor audit.Actor, req *emission.CreateFactorRequest) (*emission.EmissionFactor, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	adminID := actor.AdminID
	f := &emission.EmissionFactor{
		VehicleType:  req.VehicleType,
		FuelType:     req.FuelType,
		FactorGPerKm: req.FactorGPerKm,
		Description:  strings.TrimSpace(req.Description),
		Source:       req.Source,
		Tags:         req.Tags,
		IsActive:     true,
		CreatedBy:    &adminID,
	}

	err := s.recorder.Run(ctx, auditsvc.Mutation{
		Actor:      actor,
		Action:     audit.ActionCreateEmissionFactor,
		TargetType: audit.TargetEmissionFactor,
	}, func(ctx context.Context, tx pgx.Tx) (*auditsvc.Change, error) {
		if err := s.factors.CreateWithTx(ctx, tx, f); err != nil {
			return nil, err
		}
		id := f.ID
		return &auditsvc.Change{TargetID: &id, New: f}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("emission factor created",
		zap.Int64("factor_id", f.ID),
		zap.String("vehicle_type", string(f.VehicleType)),
		zap.String("fuel_type", string(f.FuelType)),
	)
	s.resolvePending(ctx, f)
	return f, nil
}

func (s *AdminService) UpdateEmissionFactor(ctx context.Context, actor audit.Actor, id int64, req *emission.UpdateFactorRequest) (*emission.EmissionFactor, error) {
	var updated *emission.EmissionFactor
	var reactivated bool

	err := s.recorder.Run(ctx, auditsvc.Mutation{
		Actor:      actor,
		Action:     audit.ActionUpdateEmissionFactor,
		TargetType: audit.TargetEmissionFactor,
		TargetID:   &id,
	}, func(ctx context.Context, tx pgx.Tx) (*auditsvc.Change, error) {
		f, err := s.factors.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		old := cloneFactor(*f)

		if err := req.Apply(f); err != nil {
			return nil, err
		}
		if err := s.factors.UpdateWithTx(ctx, tx, f); err != nil {
			return nil, err
		}
		updated, reactivated = f, f.IsActive && !old.IsActive
		return &auditsvc.Change{Old: old, New: f}, nil
	})
	if err != nil {
		return nil, err
	}

	if reactivated {
		s.resolvePending(ctx, updated)
	}
	return updated, nil
}

// DeactivateEmissionFactor removes the factor from resolution. Trips keep the
// emissions computed with it.
func (s *AdminService) DeactivateEmissionFactor(ctx context.Context, actor audit.Actor, id int64) (*emission.EmissionFactor, error) {
	var deactivated *emission.EmissionFactor

	err := s.recorder.Run(ctx, auditsvc.Mutation{
		Actor:      actor,
		Action:     audit.ActionDeactivateEmissionFactor,
		TargetType: audit.TargetEmissionFactor,
		TargetID:   &id,
	}, func(ctx context.Context, tx pgx.Tx) (*auditsvc.Change, error) {
		f, err := s.factors.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if err := s.factors.DeactivateWithTx(ctx, tx, id); err != nil {
			return nil, err
		}
		after := cloneFactor(*f)
		if after.IsActive {
			after.IsActive = false
			after.Version++
		}
		deactivated = &after
		return &auditsvc.Change{Old: f, New: after}, nil
	})
	if err != nil {
		return nil, err
	}
	return deactivated, nil
}

func (s *AdminService) resolvePending(ctx context.Context, f *emission.EmissionFactor) {
	if s.pending == nil || !f.IsActive {
		return
	}
	n, err := s.pending.ResolvePending(ctx, f.VehicleType, f.FuelType)
	if err != nil {
		s.logger.Error("failed to resolve pending trips",
			zap.Int64("factor_id", f.ID),
			zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("pending trips back-filled", zap.Int64("factor_id", f.ID), zap.Int("trips", n))
	}
}

// ========== Stats & logs ==========

func (s *AdminService) Stats(ctx context.Context) (*stats.AdminStats, error) {
	st, err := s.stats.AdminStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}
	return st, nil
}

func (s *AdminService) ListLogs(ctx context.Context, filters *audit.LogListFilters) (*audit.LogListResponse, error) {
	logs, total, err := s.logs.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list admin logs: %w", err)
	}

	return &audit.LogListResponse{
		Logs:       logs,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages(total, filters.PageSize),
	}, nil
}

func cloneFactor(f emission.EmissionFactor) emission.EmissionFactor {
	f.Tags = append([]string(nil), f.Tags...)
	return f
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
