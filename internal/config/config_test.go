package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUDIT_FAIL_CLOSED_ACTIONS", "")
	t.Setenv("BASELINE_FACTOR_G_PER_KM", "")

	cfg := Load()

	assert.Equal(t, 120.0, cfg.BaselineFactorGPerKm)
	assert.Equal(t, []string{"delete_user", "update_user_role", "update_system_config"}, cfg.AuditFailClosedActions)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUDIT_FAIL_CLOSED_ACTIONS", " delete_user , update_emission_factor,")
	t.Setenv("BASELINE_FACTOR_G_PER_KM", "150.5")
	t.Setenv("SEED_SAMPLE_USER", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"delete_user", "update_emission_factor"}, cfg.AuditFailClosedActions)
	assert.Equal(t, 150.5, cfg.BaselineFactorGPerKm)
	assert.True(t, cfg.SeedSampleUser)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}
