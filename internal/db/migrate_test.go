package db

import (
	"io/fs"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrderedAndAnnotated(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.True(t, sort.StringsAreSorted(names))

	for _, name := range names {
		body, err := fs.ReadFile(migrationsFS, migrationsDir+"/"+name)
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", name)
		assert.Contains(t, string(body), "-- +goose Down", name)
	}
}

func TestSeedContainsGasolineBaseline(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, migrationsDir+"/00002_seed_emission_factors.sql")
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "('car',        'gasoline', 120.0, 'Average gasoline car'"))
}

func TestSchemaCarriesDefaultVehicleBackstop(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, migrationsDir+"/00001_init_schema.sql")
	require.NoError(t, err)

	assert.Contains(t, string(body), "CREATE UNIQUE INDEX uq_vehicles_one_default_per_user ON vehicles (user_id) WHERE is_default;")
}
