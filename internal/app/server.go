// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"carp-service/internal/config"
	"carp-service/internal/db"
	adminHandler "carp-service/internal/handlers/admin"
	authHandler "carp-service/internal/handlers/auth"
	emissionHandler "carp-service/internal/handlers/emission"
	prefsHandler "carp-service/internal/handlers/preferences"
	tripHandler "carp-service/internal/handlers/trip"
	vehicleHandler "carp-service/internal/handlers/vehicle"
	wsHandler "carp-service/internal/handlers/websocket"
	"carp-service/internal/middleware"
	"carp-service/internal/pkg/jwt"
	"carp-service/internal/pkg/session"
	"carp-service/internal/repository/postgres"
	adminUsecase "carp-service/internal/service/admin"
	auditsvc "carp-service/internal/service/audit"
	authUsecase "carp-service/internal/service/auth"
	emissionsvc "carp-service/internal/service/emission"
	prefsUsecase "carp-service/internal/service/preferences"
	tripUsecase "carp-service/internal/service/trip"
	vehicleUsecase "carp-service/internal/service/vehicle"
	"carp-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine, logger: logger}
}

// Start wires the service and serves HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	logger := s.logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to PostgreSQL")

	if s.cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pool); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addresses: []string{s.cfg.RedisAddr},
		Password:  s.cfg.RedisPass,
		DB:        0,
		PoolSize:  10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	userRepo := postgres.NewUserRepository(pool)
	vehicleRepo := postgres.NewVehicleRepository(pool, dbWrapper)
	tripRepo := postgres.NewTripRepository(pool)
	factorRepo := postgres.NewEmissionFactorRepository(pool)
	prefsRepo := postgres.NewPreferencesRepository(pool)
	adminLogRepo := postgres.NewAdminLogRepository(pool)
	statsRepo := postgres.NewStatsRepository(pool)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(userRepo, jwtManager, sessionManager, rateLimiter, logger)

	hub := websocket.NewHub(authService, logger)
	go hub.Run(ctx)

	vehicleService := vehicleUsecase.NewVehicleService(vehicleRepo, logger)
	tripService := tripUsecase.NewTripService(
		tripRepo,
		vehicleRepo,
		emissionsvc.NewResolver(factorRepo),
		factorRepo,
		hub,
		s.cfg.BaselineFactorGPerKm,
		logger,
	)
	prefsService := prefsUsecase.NewPreferencesService(prefsRepo, logger)
	recorder := auditsvc.NewRecorder(dbWrapper, adminLogRepo, auditsvc.NewPolicy(s.cfg.AuditFailClosedActions), logger)
	adminService := adminUsecase.NewAdminService(
		userRepo,
		factorRepo,
		statsRepo,
		adminLogRepo,
		recorder,
		tripService,
		&sessionRevoker{auth: authService, hub: hub},
		logger,
	)

	// ----- Seed accounts -----
	if err := SeedAccounts(ctx, s.cfg, authService); err != nil {
		logger.Error("failed to seed accounts", zap.Error(err))
	}

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(s.cfg.CORSOrigins),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:     authHandler.NewAuthHandler(authService, logger),
		VehicleHandler:  vehicleHandler.NewVehicleHandler(vehicleService, logger),
		TripHandler:     tripHandler.NewTripHandler(tripService, logger),
		PrefsHandler:    prefsHandler.NewPreferencesHandler(prefsService, logger),
		EmissionHandler: emissionHandler.NewEmissionHandler(emissionsvc.NewCatalog(factorRepo)),
		AdminHandler:    adminHandler.NewAdminHandler(adminService, logger),
		WSHandler:       wsHandler.NewWebSocketHandler(hub, s.cfg.CORSOrigins, logger),
		AuthMiddleware:  authMiddleware,
	}
	SetupRouter(s.engine, logger, handlers)

	// ----- Start HTTP -----
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// AccountSeeder creates the bootstrap accounts.
type AccountSeeder interface {
	EnsureAdminExists(ctx context.Context, email, password, fullName string) error
	EnsureSampleUser(ctx context.Context, email, password string) error
}

// SeedAccounts creates the configured admin and, when enabled, the sample user.
func SeedAccounts(ctx context.Context, cfg config.AppConfig, seeder AccountSeeder) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := seeder.EnsureAdminExists(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		return fmt.Errorf("failed to ensure admin exists: %w", err)
	}
	if cfg.SeedSampleUser {
		if err := seeder.EnsureSampleUser(ctx, cfg.SampleUserEmail, cfg.SampleUserPassword); err != nil {
			return fmt.Errorf("failed to ensure sample user exists: %w", err)
		}
	}
	return nil
}

// sessionRevoker invalidates a user's tokens and drops their live sockets.
type sessionRevoker struct {
	auth *authUsecase.AuthService
	hub  *websocket.Hub
}

func (r *sessionRevoker) RevokeUser(ctx context.Context, userID int64) error {
	if err := r.auth.RevokeUser(ctx, userID); err != nil {
		return err
	}
	r.hub.DisconnectUser(userID, "session revoked")
	return nil
}
