// internal/service/auth/admin_create.go
package auth

import (
	"context"
	"fmt"

	"carp-service/internal/domain/user"
	xerrors "carp-service/internal/pkg/errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Seeder creates the bootstrap accounts. It needs only the user store, so
// the operator CLI can seed without JWT keys or Redis.
type Seeder struct {
	userRepo UserRepository
	logger   *zap.Logger
	hashCost int
}

func NewSeeder(userRepo UserRepository, logger *zap.Logger) *Seeder {
	return &Seeder{userRepo: userRepo, logger: logger, hashCost: bcrypt.DefaultCost}
}

func (s *AuthService) seeder() *Seeder {
	return &Seeder{userRepo: s.userRepo, logger: s.logger, hashCost: s.hashCost}
}

func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	return s.seeder().EnsureAdminExists(ctx, email, password, fullName)
}

func (s *AuthService) EnsureSampleUser(ctx context.Context, email, password string) error {
	return s.seeder().EnsureSampleUser(ctx, email, password)
}

// EnsureAdminExists creates the admin account on startup, or promotes an
// existing account with that email. Empty credentials skip seeding.
func (s *Seeder) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		s.logger.Info("admin credentials not set, skipping admin seeding")
		return nil
	}
	return s.ensureUser(ctx, email, password, fullName, user.RoleAdmin)
}

// EnsureSampleUser creates a regular demo account when it does not exist yet.
func (s *Seeder) EnsureSampleUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.logger.Info("sample user credentials not set, skipping")
		return nil
	}
	return s.ensureUser(ctx, email, password, "Sample User", user.RoleUser)
}

func (s *Seeder) ensureUser(ctx context.Context, email, password, fullName string, role user.Role) error {
	email = normalizeEmail(email)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == role || role != user.RoleAdmin {
			s.logger.Info("seed user already exists, skipping creation", zap.String("email", email))
			return nil
		}
		if err := s.userRepo.SetRole(ctx, existing.ID, role); err != nil {
			return fmt.Errorf("failed to promote %s: %w", email, err)
		}
		s.logger.Info("existing user promoted", zap.String("email", email), zap.String("role", string(role)))
		return nil
	case !xerrors.Is(err, xerrors.ErrNotFound):
		return fmt.Errorf("failed to check email: %w", err)
	}

	if fullName == "" {
		fullName = email
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := &user.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to create %s user: %w", role, err)
	}

	s.logger.Info("seed user created",
		zap.String("email", email),
		zap.String("role", string(role)),
		zap.Int64("user_id", u.ID),
	)
	return nil
}
