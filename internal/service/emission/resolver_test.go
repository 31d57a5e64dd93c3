package emission

import (
	"context"
	"errors"
	"testing"

	"carp-service/internal/domain/emission"
	xerrors "carp-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func gasolineCars() []emission.EmissionFactor {
	return []emission.EmissionFactor{
		{VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 120, Description: "Average gasoline car", IsActive: true},
		{VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 95, Description: "Small gasoline car", Tags: []string{"small", "efficient"}, IsActive: true},
		{VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 180, Description: "Large gasoline car", Tags: []string{"large", "inefficient"}, IsActive: true},
	}
}

func carProfile() emission.Profile {
	return emission.Profile{VehicleType: emission.VehicleTypeCar, FuelType: emission.FuelTypeGasoline}
}

func TestResolveZeroCandidates(t *testing.T) {
	_, err := Resolve(carProfile(), nil)
	assert.ErrorIs(t, err, xerrors.ErrNoFactorAvailable)
}

func TestResolveSingleCandidate(t *testing.T) {
	only := emission.EmissionFactor{ID: 4, VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 120, IsActive: true}

	res, err := Resolve(carProfile(), []emission.EmissionFactor{only})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Factor.ID)
	assert.Equal(t, RuleSingleCandidate, res.Rule)
	assert.False(t, res.Approximate)
}

func TestResolveIgnoresInactiveAndForeignCandidates(t *testing.T) {
	candidates := []emission.EmissionFactor{
		{ID: 1, VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 150, IsActive: false},
		{ID: 2, VehicleType: "car", FuelType: "diesel", FactorGPerKm: 110, IsActive: true},
		{ID: 3, VehicleType: "car", FuelType: "gasoline", FactorGPerKm: 120, IsActive: true},
	}

	res, err := Resolve(carProfile(), candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Factor.ID)
	assert.Equal(t, RuleSingleCandidate, res.Rule)
}

func TestResolveRuleChain(t *testing.T) {
	tests := []struct {
		name        string
		engine      *float64
		efficiency  *float64
		wantFactor  float64
		wantRule    string
		approximate bool
	}{
		{"no hints falls back to insertion order", nil, nil, 120, RuleInsertionOrder, true},
		{"small engine", ptr(1.2), nil, 95, RuleEngineSize, false},
		{"large engine", ptr(3.0), nil, 180, RuleEngineSize, false},
		{"medium engine matches nothing", ptr(1.6), nil, 120, RuleInsertionOrder, true},
		{"efficient consumption", nil, ptr(4.2), 95, RuleFuelEfficiency, false},
		{"inefficient consumption", ptr(1.6), ptr(11), 180, RuleFuelEfficiency, false},
		{"average consumption carries no label", nil, ptr(6.5), 120, RuleInsertionOrder, true},
		{"engine rule wins over efficiency", ptr(3.5), ptr(4.0), 180, RuleEngineSize, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := carProfile()
			p.EngineSize = tt.engine
			p.FuelEfficiency = tt.efficiency

			res, err := Resolve(p, gasolineCars())
			require.NoError(t, err)
			assert.Equal(t, tt.wantFactor, res.Factor.FactorGPerKm)
			assert.Equal(t, tt.wantRule, res.Rule)
			assert.Equal(t, tt.approximate, res.Approximate)
		})
	}
}

func TestResolveMatchesDescriptionWords(t *testing.T) {
	candidates := []emission.EmissionFactor{
		{ID: 1, VehicleType: "van", FuelType: "diesel", FactorGPerKm: 200, Description: "Average diesel van", IsActive: true},
		{ID: 2, VehicleType: "van", FuelType: "diesel", FactorGPerKm: 260, Description: "Large diesel van (3.5t)", IsActive: true},
	}
	p := emission.Profile{VehicleType: "van", FuelType: "diesel", EngineSize: ptr(2.8)}

	res, err := Resolve(p, candidates)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Factor.ID)
	assert.Equal(t, RuleEngineSize, res.Rule)
}

func TestResolveIsIdempotent(t *testing.T) {
	p := carProfile()
	p.EngineSize = ptr(1.0)
	candidates := gasolineCars()

	first, err := Resolve(p, candidates)
	require.NoError(t, err)
	second, err := Resolve(p, candidates)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, candidates, 3)
}

func TestResolveRejectsUnknownProfile(t *testing.T) {
	_, err := Resolve(emission.Profile{VehicleType: "hovercraft", FuelType: "gasoline"}, gasolineCars())
	assert.ErrorIs(t, err, xerrors.ErrInvalidInput)
}

type failingFinder struct{}

func (failingFinder) FindCandidates(context.Context, emission.VehicleType, emission.FuelType) ([]emission.EmissionFactor, error) {
	return nil, errors.New("connection refused")
}

func TestResolverWithStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(gasolineCars()...)
	r := NewResolver(store)

	res, err := r.Resolve(ctx, carProfile())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Factor.ID)

	_, err = NewResolver(failingFinder{}).Resolve(ctx, carProfile())
	require.Error(t, err)
	assert.NotErrorIs(t, err, xerrors.ErrNoFactorAvailable)
}

func TestDeactivationRemovesCandidate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(gasolineCars()...)
	r := NewResolver(store)

	require.NoError(t, store.Deactivate(ctx, 1))

	candidates, err := store.FindCandidates(ctx, "car", "gasoline")
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, int64(2), candidates[0].ID)

	res, err := r.Resolve(ctx, carProfile())
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Factor.ID)
	assert.True(t, res.Approximate)

	require.NoError(t, store.Deactivate(ctx, 2))
	require.NoError(t, store.Deactivate(ctx, 3))
	_, err = r.Resolve(ctx, carProfile())
	assert.ErrorIs(t, err, xerrors.ErrNoFactorAvailable)

	assert.ErrorIs(t, store.Deactivate(ctx, 99), xerrors.ErrNotFound)
}

func TestNewMemoryStorePanicsOnInvalidSeed(t *testing.T) {
	assert.Panics(t, func() {
		NewMemoryStore(emission.EmissionFactor{VehicleType: "car", FuelType: "steam", FactorGPerKm: 10, IsActive: true})
	})
}
