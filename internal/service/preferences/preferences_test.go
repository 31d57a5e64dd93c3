package preferences

import (
	"context"
	"errors"
	"testing"

	"carp-service/internal/domain/preferences"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockPreferencesRepo struct {
	mock.Mock
}

func (m *MockPreferencesRepo) FindByUser(ctx context.Context, userID int64) (*preferences.UserPreferences, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*preferences.UserPreferences)
	return p, args.Error(1)
}

func (m *MockPreferencesRepo) Create(ctx context.Context, p *preferences.UserPreferences) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPreferencesRepo) Update(ctx context.Context, p *preferences.UserPreferences) error {
	return m.Called(ctx, p).Error(0)
}

func TestGetPreferences_Existing(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	stored := preferences.Defaults(5)
	stored.ID = 1
	repo.On("FindByUser", mock.Anything, int64(5)).Return(stored, nil)

	got, err := svc.GetPreferences(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetPreferences_CreatesDefaults(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	repo.On("FindByUser", mock.Anything, int64(5)).Return(nil, xerrors.ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(p *preferences.UserPreferences) bool {
		return p.UserID == 5 && p.PreferEcoRoutes && p.MaxCyclingDistanceKm == 10
	})).Return(nil)

	got, err := svc.GetPreferences(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultMaxWalkingDistanceKm, got.MaxWalkingDistanceKm)
	repo.AssertExpectations(t)
}

func TestGetPreferences_CreateRaceReadsStoredRow(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	winner := preferences.Defaults(5)
	winner.ID = 9
	repo.On("FindByUser", mock.Anything, int64(5)).Return(nil, xerrors.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(xerrors.ErrConstraintViolation)
	repo.On("FindByUser", mock.Anything, int64(5)).Return(winner, nil).Once()

	got, err := svc.GetPreferences(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	repo.AssertExpectations(t)
}

func TestGetPreferences_StorageError(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	repo.On("FindByUser", mock.Anything, int64(5)).Return(nil, errors.New("connection refused"))

	_, err := svc.GetPreferences(context.Background(), 5)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdatePreferences(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	stored := preferences.Defaults(5)
	repo.On("FindByUser", mock.Anything, int64(5)).Return(stored, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	tolls := true
	got, err := svc.UpdatePreferences(context.Background(), 5, &preferences.UpdatePreferencesRequest{
		AvoidTolls:           &tolls,
		NotificationSettings: map[string]interface{}{"push": true},
	})
	require.NoError(t, err)
	assert.True(t, got.AvoidTolls)
	assert.Equal(t, true, got.NotificationSettings["push"])
	assert.Equal(t, true, got.NotificationSettings["email"])
}

func TestUpdatePreferences_InvalidLeavesRowAlone(t *testing.T) {
	repo := new(MockPreferencesRepo)
	svc := NewPreferencesService(repo, zap.NewNop())

	repo.On("FindByUser", mock.Anything, int64(5)).Return(preferences.Defaults(5), nil)

	bad := -3.0
	_, err := svc.UpdatePreferences(context.Background(), 5, &preferences.UpdatePreferencesRequest{
		MaxWalkingDistanceKm: &bad,
	})
	fe, ok := xerrors.AsFieldError(err)
	require.True(t, ok)
	assert.Equal(t, "max_walking_distance_km", fe.Field)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
