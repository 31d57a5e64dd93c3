// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carp-service/internal/domain/user"
	xerrors "carp-service/internal/pkg/errors"
	"carp-service/internal/pkg/jwt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	user.Repository
	SetRole(ctx context.Context, id int64, role user.Role) error
}

// TokenStore is the Redis side of token revocation.
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	RevokeUser(ctx context.Context, userID int64, ttl time.Duration) error
	IsUserRevoked(ctx context.Context, userID int64, issuedAt time.Time) (bool, error)
}

type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, email string) error
}

type AuthService struct {
	userRepo    UserRepository
	jwtManager  *jwt.Manager
	tokens      TokenStore
	rateLimiter LoginLimiter
	logger      *zap.Logger
	hashCost    int
}

func NewAuthService(
	userRepo UserRepository,
	jwtManager *jwt.Manager,
	tokens TokenStore,
	rateLimiter LoginLimiter,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtManager:  jwtManager,
		tokens:      tokens,
		rateLimiter: rateLimiter,
		logger:      logger,
		hashCost:    bcrypt.DefaultCost,
	}
}

// ========== Registration ==========

// Register creates a user account and signs the user in.
func (s *AuthService) Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, xerrors.InvalidField("full_name", "must not be empty")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, xerrors.ErrDuplicateEntry
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
		Role:         user.RoleUser,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", u.ID))
	return s.issue(u)
}

// ========== Login ==========

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest, ipAddress string) (*user.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, ipAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: too many login attempts, try again later", xerrors.ErrRateLimited)
	}

	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials (attempts remaining: %d)", xerrors.ErrUnauthorized, remaining)
	}

	if !u.IsActive {
		return nil, fmt.Errorf("%w: account is inactive", xerrors.ErrForbidden)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, u.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	if err := s.rateLimiter.ResetLoginAttempts(ctx, ipAddress, email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	return s.issue(u)
}

func (s *AuthService) issue(u *user.User) (*user.AuthResponse, error) {
	tok, err := s.jwtManager.Generator.GenerateAccessToken(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	return &user.AuthResponse{
		Token:     tok.Token,
		ExpiresAt: tok.ExpiresAt,
		User:      u,
	}, nil
}

// ========== Logout ==========

// Logout blacklists the token id for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return xerrors.ErrUnauthorized
	}
	if err := s.tokens.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

// RevokeUser invalidates every token the user holds, e.g. after deactivation.
func (s *AuthService) RevokeUser(ctx context.Context, userID int64) error {
	return s.tokens.RevokeUser(ctx, userID, s.jwtManager.Generator.Ttl)
}

// ValidateToken verifies the signature and checks both revocation lists.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrUnauthorized, err)
	}

	blacklisted, err := s.tokens.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: token has been revoked", xerrors.ErrUnauthorized)
	}

	if claims.IssuedAt != nil {
		revoked, err := s.tokens.IsUserRevoked(ctx, claims.UserID, claims.IssuedAt.Time)
		if err != nil {
			return nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token has been revoked", xerrors.ErrUnauthorized)
		}
	}

	return claims, nil
}

// ========== Profile ==========

func (s *AuthService) Me(ctx context.Context, userID int64) (*user.User, error) {
	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
