// internal/service/preferences/preferences.go
package preferences

import (
	"context"
	"fmt"

	"carp-service/internal/domain/preferences"
	xerrors "carp-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type PreferencesService struct {
	prefsRepo preferences.Repository
	logger    *zap.Logger
}

func NewPreferencesService(prefsRepo preferences.Repository, logger *zap.Logger) *PreferencesService {
	return &PreferencesService{
		prefsRepo: prefsRepo,
		logger:    logger,
	}
}

// GetPreferences returns the user's preferences, creating the defaults on
// first access. Two first reads racing on the insert both end with the
// stored row.
func (s *PreferencesService) GetPreferences(ctx context.Context, userID int64) (*preferences.UserPreferences, error) {
	p, err := s.prefsRepo.FindByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !xerrors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	p = preferences.Defaults(userID)
	if err := s.prefsRepo.Create(ctx, p); err != nil {
		if !xerrors.Is(err, xerrors.ErrConstraintViolation) {
			return nil, fmt.Errorf("failed to create preferences: %w", err)
		}
		s.logger.Debug("preferences created concurrently, reading stored row", zap.Int64("user_id", userID))
		return s.prefsRepo.FindByUser(ctx, userID)
	}

	s.logger.Info("default preferences created", zap.Int64("user_id", userID))
	return p, nil
}

// UpdatePreferences applies a partial update. Notification keys are merged,
// not replaced.
func (s *PreferencesService) UpdatePreferences(ctx context.Context, userID int64, req *preferences.UpdatePreferencesRequest) (*preferences.UserPreferences, error) {
	p, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := req.Apply(p); err != nil {
		return nil, err
	}

	if err := s.prefsRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	return p, nil
}
