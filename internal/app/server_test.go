package app

import (
	"context"
	"errors"
	"testing"

	"carp-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSeeder struct {
	mock.Mock
}

func (m *MockSeeder) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	return m.Called(ctx, email, password, fullName).Error(0)
}

func (m *MockSeeder) EnsureSampleUser(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

func TestSeedAccounts(t *testing.T) {
	cfg := config.AppConfig{
		AdminEmail:         "root@carp.local",
		AdminPassword:      "s3cret-pass",
		AdminName:          "Root",
		SeedSampleUser:     true,
		SampleUserEmail:    "demo@carp.local",
		SampleUserPassword: "demo-pass",
	}

	seeder := new(MockSeeder)
	seeder.On("EnsureAdminExists", mock.Anything, "root@carp.local", "s3cret-pass", "Root").Return(nil)
	seeder.On("EnsureSampleUser", mock.Anything, "demo@carp.local", "demo-pass").Return(nil)

	assert.NoError(t, SeedAccounts(context.Background(), cfg, seeder))
	seeder.AssertExpectations(t)
}

func TestSeedAccountsSkipsSampleUserWhenDisabled(t *testing.T) {
	cfg := config.AppConfig{AdminEmail: "root@carp.local", AdminPassword: "s3cret-pass"}

	seeder := new(MockSeeder)
	seeder.On("EnsureAdminExists", mock.Anything, "root@carp.local", "s3cret-pass", "").Return(nil)

	assert.NoError(t, SeedAccounts(context.Background(), cfg, seeder))
	seeder.AssertNotCalled(t, "EnsureSampleUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeedAccountsStopsOnAdminFailure(t *testing.T) {
	cfg := config.AppConfig{SeedSampleUser: true}

	seeder := new(MockSeeder)
	seeder.On("EnsureAdminExists", mock.Anything, "", "", "").Return(errors.New("db down"))

	err := SeedAccounts(context.Background(), cfg, seeder)
	assert.ErrorContains(t, err, "db down")
	seeder.AssertNotCalled(t, "EnsureSampleUser", mock.Anything, mock.Anything, mock.Anything)
}
