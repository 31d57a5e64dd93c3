package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRateLimiterAllowsFiveAttemptsPerWindow(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	rl := NewRateLimiter(client)

	for i := 1; i <= DefaultMaxLoginAttempts; i++ {
		allowed, remaining, err := rl.CheckLoginAttempt(ctx, "10.0.0.1", "Ada@example.com")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i)
		assert.Equal(t, int64(DefaultMaxLoginAttempts-i), remaining)
	}

	allowed, remaining, err := rl.CheckLoginAttempt(ctx, "10.0.0.1", "ada@example.com")
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, int64(0), remaining)

	// another address has its own budget
	allowed, _, err = rl.CheckLoginAttempt(ctx, "10.0.0.2", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)

	mr.FastForward(DefaultLoginWindow + time.Second)
	allowed, _, err = rl.CheckLoginAttempt(ctx, "10.0.0.1", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterReset(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	rl := NewRateLimiter(client)

	for i := 0; i < DefaultMaxLoginAttempts+1; i++ {
		_, _, err := rl.CheckLoginAttempt(ctx, "ip", "user@example.com")
		require.NoError(t, err)
	}
	require.NoError(t, rl.ResetLoginAttempts(ctx, "ip", "user@example.com"))

	allowed, remaining, err := rl.CheckLoginAttempt(ctx, "ip", "user@example.com")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, int64(DefaultMaxLoginAttempts-1), remaining)
}

func TestBlacklist(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	m := NewManager(client)

	blacklisted, err := m.IsTokenBlacklisted(ctx, "01JTI")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, m.BlacklistToken(ctx, "01JTI", time.Minute))
	blacklisted, err = m.IsTokenBlacklisted(ctx, "01JTI")
	require.NoError(t, err)
	assert.True(t, blacklisted)

	mr.FastForward(2 * time.Minute)
	blacklisted, err = m.IsTokenBlacklisted(ctx, "01JTI")
	require.NoError(t, err)
	assert.False(t, blacklisted)

	require.NoError(t, m.BlacklistToken(ctx, "expired", 0))
	blacklisted, err = m.IsTokenBlacklisted(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestRevokeUser(t *testing.T) {
	ctx := context.Background()
	_, client := newTestClient(t)
	m := NewManager(client)

	issued := time.Now().Add(-time.Minute)
	revoked, err := m.IsUserRevoked(ctx, 7, issued)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, m.RevokeUser(ctx, 7, time.Hour))

	revoked, err = m.IsUserRevoked(ctx, 7, issued)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = m.IsUserRevoked(ctx, 7, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = m.IsUserRevoked(ctx, 8, issued)
	require.NoError(t, err)
	assert.False(t, revoked)
}
