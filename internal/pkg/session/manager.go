// internal/pkg/session/manager.go
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager tracks revoked tokens in Redis. Access tokens are stateless, so
// revocation is the only session state kept.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

// BlacklistToken rejects the token id until ttl passes.
func (m *Manager) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := m.client.Set(ctx, m.blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (m *Manager) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := m.client.Exists(ctx, m.blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// RevokeUser rejects every token of the user issued up to now. ttl should
// cover the longest token lifetime.
func (m *Manager) RevokeUser(ctx context.Context, userID int64, ttl time.Duration) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := m.client.Set(ctx, m.revokedKey(userID), now, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}

// IsUserRevoked reports whether a token issued at issuedAt predates a revocation.
func (m *Manager) IsUserRevoked(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	revokedAt, err := m.client.Get(ctx, m.revokedKey(userID)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check user revocation: %w", err)
	}
	return issuedAt.Unix() <= revokedAt, nil
}

func (m *Manager) blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:%s", jti)
}

func (m *Manager) revokedKey(userID int64) string {
	return fmt.Sprintf("revoked:user:%d", userID)
}
